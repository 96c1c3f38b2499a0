package engine

import (
	"context"
	"math"
	"sync"
	"time"
)

// RunBatch grades targets concurrently under the MaxConcurrent cap and
// returns a summary whose items sit at their input index. Item failures are
// recorded, never escalated; a canceled context marks unstarted items
// skipped.
func (e *Engine) RunBatch(ctx context.Context, targets []AnalysisTarget, scope string) *BatchSummary {
	return e.runBatch(ctx, targets, scope, nil)
}

func (e *Engine) runBatch(ctx context.Context, targets []AnalysisTarget, scope string, onItem func(i int, item *BatchItem)) *BatchSummary {
	start := time.Now()

	items := make([]BatchItem, len(targets))
	sem := make(chan struct{}, e.cfg.MaxConcurrent)
	var wg sync.WaitGroup
	var mu sync.Mutex

	finish := func(i int, item BatchItem) {
		mu.Lock()
		items[i] = item
		mu.Unlock()
		if onItem != nil {
			onItem(i, &item)
		}
	}

	for i, t := range targets {
		wg.Add(1)
		go func(i int, t AnalysisTarget) {
			defer wg.Done()

			// Invalid targets fail without occupying a worker slot.
			if _, err := canonicalTarget(t.URL); err != nil {
				finish(i, BatchItem{Target: t, Status: BatchItemFailed, Error: err.Error()})
				return
			}

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				finish(i, BatchItem{Target: t, Status: BatchItemSkipped, Error: ctx.Err().Error()})
				return
			}

			res, err := e.grade(ctx, t.URL, GradeOptions{Scope: scope}, false)
			if err != nil {
				status := BatchItemFailed
				if ctx.Err() != nil {
					status = BatchItemSkipped
				}
				finish(i, BatchItem{Target: t, Status: status, Error: err.Error()})
				return
			}
			finish(i, BatchItem{Target: t, Status: BatchItemSuccess, Result: res})
		}(i, t)
	}
	wg.Wait()

	return summarize(items, time.Since(start))
}

func summarize(items []BatchItem, elapsed time.Duration) *BatchSummary {
	s := &BatchSummary{
		Items:          items,
		Total:          len(items),
		ElapsedSeconds: elapsed.Seconds(),
	}

	var sum float64
	for _, it := range items {
		switch it.Status {
		case BatchItemSuccess:
			s.Succeeded++
			sum += it.Result.Score
		case BatchItemSkipped:
			s.Skipped++
		default:
			s.Failed++
		}
	}
	if s.Succeeded > 0 {
		avg := math.Round(sum/float64(s.Succeeded)*10) / 10
		s.AverageScore = &avg
	}
	return s
}
