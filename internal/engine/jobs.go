package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/foliograde/internal/logging"
)

// JobStatus is the lifecycle state of a batch job.
type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobDone     JobStatus = "done"
	JobFailed   JobStatus = "failed"
	JobCanceled JobStatus = "canceled"
)

// JobEventType distinguishes the events on a job's stream.
type JobEventType string

const (
	JobEventStatus   JobEventType = "status"
	JobEventProgress JobEventType = "progress"
	JobEventResult   JobEventType = "result"
)

// JobEvent is one message on a job's event stream.
type JobEvent struct {
	JobID     string        `json:"job_id"`
	Type      JobEventType  `json:"type"`
	Status    JobStatus     `json:"status,omitempty"`
	Completed int           `json:"completed,omitempty"`
	Total     int           `json:"total,omitempty"`
	Item      *BatchItem    `json:"item,omitempty"`
	Summary   *BatchSummary `json:"summary,omitempty"`
}

// Job tracks one asynchronous batch run. Events is buffered and closed when
// the job reaches a terminal state; slow consumers lose events rather than
// blocking the run.
type Job struct {
	ID        string        `json:"id"`
	Status    JobStatus     `json:"status"`
	Error     string        `json:"error,omitempty"`
	Total     int           `json:"total"`
	Completed int           `json:"completed"`
	Summary   *BatchSummary `json:"summary,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`

	Events chan JobEvent `json:"-"`
}

// ErrJobNotFound is returned for unknown job IDs.
var ErrJobNotFound = errors.New("engine: job not found")

func (e *Engine) setJob(j *Job) {
	e.jobsMu.Lock()
	e.jobs[j.ID] = j
	e.jobsMu.Unlock()
}

// GetJob returns a snapshot of the job with the given ID. Snapshots are safe
// to marshal while the job is still running.
func (e *Engine) GetJob(id string) (*Job, bool) {
	e.jobsMu.Lock()
	defer e.jobsMu.Unlock()
	j, ok := e.jobs[id]
	if !ok {
		return nil, false
	}
	snap := *j
	return &snap, true
}

func (e *Engine) setCancel(id string, cancel context.CancelFunc) {
	e.jobsMu.Lock()
	e.jobCancels[id] = cancel
	e.jobsMu.Unlock()
}

func (e *Engine) takeCancel(id string) (context.CancelFunc, bool) {
	e.jobsMu.Lock()
	defer e.jobsMu.Unlock()
	cancel, ok := e.jobCancels[id]
	if ok {
		delete(e.jobCancels, id)
	}
	return cancel, ok
}

// emitJobEvent sends without blocking; a full buffer drops the event.
func emitJobEvent(j *Job, ev JobEvent) {
	select {
	case j.Events <- ev:
	default:
	}
}

// StartBatchJob launches a batch in the background and returns immediately.
// Progress is observable through GetJob and the job's event stream.
func (e *Engine) StartBatchJob(targets []AnalysisTarget, scope string) *Job {
	job := &Job{
		ID:        uuid.New().String(),
		Status:    JobPending,
		Total:     len(targets),
		StartedAt: time.Now(),
		Events:    make(chan JobEvent, 16),
	}
	e.setJob(job)

	jobCtx, cancel := context.WithCancel(context.Background())
	e.setCancel(job.ID, cancel)

	go func() {
		defer func() {
			e.jobsMu.Lock()
			job.EndedAt = time.Now()
			delete(e.jobCancels, job.ID)
			e.jobsMu.Unlock()
			cancel()
			close(job.Events)
		}()

		e.jobsMu.Lock()
		job.Status = JobRunning
		e.jobsMu.Unlock()
		emitJobEvent(job, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: JobRunning, Total: job.Total})

		summary := e.runBatch(jobCtx, targets, scope, func(i int, item *BatchItem) {
			e.jobsMu.Lock()
			job.Completed++
			completed := job.Completed
			e.jobsMu.Unlock()
			emitJobEvent(job, JobEvent{
				JobID:     job.ID,
				Type:      JobEventProgress,
				Completed: completed,
				Total:     job.Total,
				Item:      item,
			})
		})

		status := JobDone
		if jobCtx.Err() != nil {
			status = JobCanceled
		}

		e.jobsMu.Lock()
		job.Status = status
		job.Summary = summary
		if status == JobCanceled {
			job.Error = jobCtx.Err().Error()
		}
		e.jobsMu.Unlock()

		emitJobEvent(job, JobEvent{JobID: job.ID, Type: JobEventResult, Status: status, Summary: summary})

		e.logger.Info("batch job finished",
			logging.Field{Key: "job_id", Value: job.ID},
			logging.Field{Key: "status", Value: string(status)})
	}()

	return job
}

// CancelJob cancels a running job. Finished jobs return ErrJobNotFound.
func (e *Engine) CancelJob(id string) error {
	cancel, ok := e.takeCancel(id)
	if !ok {
		return ErrJobNotFound
	}
	cancel()
	return nil
}
