// Package engine runs the grading pipeline: admission, cache lookup, fetch,
// checklist evaluation, feedback generation and cache write-back. Batches run
// single-item pipelines under a bounded worker pool.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/raysh454/foliograde/internal/cache"
	"github.com/raysh454/foliograde/internal/checklist"
	"github.com/raysh454/foliograde/internal/feedback"
	"github.com/raysh454/foliograde/internal/fetcher"
	"github.com/raysh454/foliograde/internal/logging"
	"github.com/raysh454/foliograde/internal/ratelimit"
	"github.com/raysh454/foliograde/internal/urlutil"
)

// RateLimitedError carries the limiter decision so the transport layer can
// set Retry-After.
type RateLimitedError struct {
	Decision ratelimit.Decision
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.Decision.RetryAfter.Round(time.Second))
}

// Config holds engine tuning knobs.
type Config struct {
	// AnalysisTimeout is the wall-clock budget of one pipeline run.
	AnalysisTimeout time.Duration
	// MaxConcurrent caps parallel pipelines inside a batch.
	MaxConcurrent int
	// CacheTTL is the lifetime of a cached result.
	CacheTTL time.Duration
	// EnableShareLinks attaches a share token to every fresh result.
	EnableShareLinks bool
	// ShareTTL is the lifetime of a share link, independent of CacheTTL.
	ShareTTL time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		AnalysisTimeout:  90 * time.Second,
		MaxConcurrent:    5,
		CacheTTL:         7 * 24 * time.Hour,
		EnableShareLinks: true,
		ShareTTL:         30 * 24 * time.Hour,
	}
}

// GradeOptions modify a single Grade call.
type GradeOptions struct {
	// Scope is the rate-limit bucket, typically a client IP.
	Scope string
	// ForceRefresh bypasses the cache lookup; the fresh result still gets
	// written back.
	ForceRefresh bool
}

// Engine wires the pipeline stages together. store and limiter may be nil,
// which disables caching and rate limiting respectively.
type Engine struct {
	fetcher    *fetcher.Fetcher
	feedback   *feedback.Generator
	summarizer *feedback.Summarizer
	store      cache.Store
	limiter    *ratelimit.Limiter
	clock      cache.Clock
	cfg        Config
	logger     logging.Logger

	jobsMu     sync.Mutex
	jobs       map[string]*Job
	jobCancels map[string]context.CancelFunc
}

// New creates an Engine. f and gen must not be nil.
func New(f *fetcher.Fetcher, gen *feedback.Generator, store cache.Store, limiter *ratelimit.Limiter, cfg Config, clock cache.Clock, logger logging.Logger) (*Engine, error) {
	if f == nil {
		return nil, errors.New("engine: fetcher is nil")
	}
	if gen == nil {
		return nil, errors.New("engine: feedback generator is nil")
	}
	if cfg.AnalysisTimeout <= 0 {
		cfg.AnalysisTimeout = DefaultConfig().AnalysisTimeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultConfig().MaxConcurrent
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultConfig().CacheTTL
	}
	if cfg.ShareTTL <= 0 {
		cfg.ShareTTL = DefaultConfig().ShareTTL
	}
	if clock == nil {
		clock = cache.SystemClock{}
	}
	return &Engine{
		fetcher:    f,
		feedback:   gen,
		summarizer: feedback.NewSummarizer(),
		store:      store,
		limiter:    limiter,
		clock:      clock,
		cfg:        cfg,
		logger:     logging.OrNop(logger).With(logging.Field{Key: "component", Value: "engine"}),
		jobs:       map[string]*Job{},
		jobCancels: map[string]context.CancelFunc{},
	}, nil
}

// Admit runs one rate-limit check without grading anything. Batch endpoints
// use it to charge the whole batch as a single request.
func (e *Engine) Admit(scope string) error {
	if e.limiter == nil {
		return nil
	}
	if d := e.limiter.Admit(scope); !d.Allowed {
		return &RateLimitedError{Decision: d}
	}
	return nil
}

// Grade runs the full pipeline for one portfolio URL. The only hard failures
// are invalid targets and rate-limit rejections; everything downstream
// degrades into the result instead of failing the call.
func (e *Engine) Grade(ctx context.Context, rawURL string, opts GradeOptions) (*AnalysisResult, error) {
	return e.grade(ctx, rawURL, opts, true)
}

// canonicalTarget canonicalizes and validates a URL without fetching it.
// Batch items run it before taking a worker slot so malformed targets fail
// immediately.
func canonicalTarget(rawURL string) (string, error) {
	canonical, err := urlutil.Canonicalize(rawURL, urlutil.DefaultOptions())
	if err != nil {
		return "", fmt.Errorf("%w: %v", fetcher.ErrInvalidTarget, err)
	}
	if err := fetcher.ValidateTarget(canonical); err != nil {
		return "", err
	}
	return canonical, nil
}

func (e *Engine) grade(ctx context.Context, rawURL string, opts GradeOptions, admit bool) (*AnalysisResult, error) {
	canonical, err := canonicalTarget(rawURL)
	if err != nil {
		return nil, err
	}

	// Batches are admitted as one request upstream, so their items skip the
	// limiter here.
	if admit && e.limiter != nil {
		if d := e.limiter.Admit(opts.Scope); !d.Allowed {
			return nil, &RateLimitedError{Decision: d}
		}
	}

	key := cache.Key(canonical, checklist.Version)
	if e.store != nil && !opts.ForceRefresh {
		if res := e.cachedResult(ctx, key); res != nil {
			return res, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.AnalysisTimeout)
	defer cancel()

	start := time.Now()

	fetchRes, err := e.fetcher.Fetch(ctx, canonical)
	fetchFailed := false
	if err != nil {
		if errors.Is(err, fetcher.ErrInvalidTarget) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Grade against the empty page so the caller still gets a full
		// checklist with failure details.
		e.logger.Warn("fetch failed, grading empty page",
			logging.Field{Key: "url", Value: canonical},
			logging.Field{Key: "error", Value: err.Error()})
		fetchRes = fetcher.Empty()
		fetchFailed = true
	}

	cl, err := checklist.Evaluate(fetchRes.HTML, canonical)
	if err != nil {
		e.logger.Warn("evaluation failed, recording all checks as failed",
			logging.Field{Key: "url", Value: canonical},
			logging.Field{Key: "error", Value: err.Error()})
		cl = checklist.NewChecklist()
	}
	score := checklist.Score(cl)

	fb := e.feedback.Generate(ctx, &feedback.Request{
		CanonicalURL: canonical,
		PageSummary:  e.summarizer.Summarize(fetchRes.HTML),
		Checklist:    cl,
		Score:        score,
	})

	result := &AnalysisResult{
		URL:                  rawURL,
		CanonicalURL:         canonical,
		Score:                score,
		Checklist:            cl.Items(),
		Breakdown:            checklist.Breakdown(cl),
		Feedback:             fb.Text,
		FeedbackProvider:     fb.Provider,
		Degraded:             fb.Degraded,
		Resources:            checklist.ResourcesFor(cl),
		UsedFallback:         fetchRes.UsedFallback,
		LowConfidenceWarning: fetchRes.LowConfidenceWarning,
		FetchFailed:          fetchFailed,
		AnalysisTime:         time.Since(start).Seconds(),
		AnalyzedAt:           e.clock.Now().UTC(),
	}

	if e.store != nil && !fetchFailed {
		e.persist(ctx, key, canonical, result)
	}

	e.logger.Info("portfolio graded",
		logging.Field{Key: "url", Value: canonical},
		logging.Field{Key: "score", Value: score},
		logging.Field{Key: "provider", Value: fb.Provider})

	return result, nil
}

// cachedResult returns the stored result for key, or nil on miss or any
// cache failure.
func (e *Engine) cachedResult(ctx context.Context, key string) *AnalysisResult {
	entry, err := e.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			e.logger.Warn("cache read failed, continuing uncached",
				logging.Field{Key: "key", Value: key},
				logging.Field{Key: "error", Value: err.Error()})
		}
		return nil
	}

	var res AnalysisResult
	if err := json.Unmarshal(entry.Payload, &res); err != nil {
		e.logger.Warn("cached payload unreadable, regrading",
			logging.Field{Key: "key", Value: key},
			logging.Field{Key: "error", Value: err.Error()})
		return nil
	}
	res.FromCache = true
	return &res
}

// persist writes the result to the cache and, when enabled, registers a
// share link. Both failures are logged and swallowed.
func (e *Engine) persist(ctx context.Context, key, canonical string, result *AnalysisResult) {
	now := e.clock.Now()

	var token string
	if e.cfg.EnableShareLinks {
		token = cache.ShareToken(canonical, now)
		result.ShareURL = "/share/" + token
	}

	payload, err := json.Marshal(result)
	if err != nil {
		e.logger.Error("result marshal failed",
			logging.Field{Key: "url", Value: canonical},
			logging.Field{Key: "error", Value: err.Error()})
		return
	}

	entry := &cache.Entry{
		Key:          key,
		CanonicalURL: canonical,
		Payload:      payload,
		CreatedAt:    now,
		ExpiresAt:    now.Add(e.cfg.CacheTTL),
	}
	if err := e.store.Put(ctx, entry); err != nil {
		e.logger.Warn("cache write failed",
			logging.Field{Key: "url", Value: canonical},
			logging.Field{Key: "error", Value: err.Error()})
	}

	if token != "" {
		if err := e.store.CreateShareLink(ctx, token, entry, now.Add(e.cfg.ShareTTL)); err != nil {
			e.logger.Warn("share link creation failed",
				logging.Field{Key: "url", Value: canonical},
				logging.Field{Key: "error", Value: err.Error()})
			result.ShareURL = ""
		}
	}
}

// SharedResult resolves a share token to the snapshotted result.
func (e *Engine) SharedResult(ctx context.Context, token string) (*AnalysisResult, error) {
	if e.store == nil {
		return nil, cache.ErrNotFound
	}
	entry, err := e.store.GetSharedEntry(ctx, token)
	if err != nil {
		return nil, err
	}
	var res AnalysisResult
	if err := json.Unmarshal(entry.Payload, &res); err != nil {
		return nil, fmt.Errorf("shared payload unreadable: %w", err)
	}
	return &res, nil
}

// ClearCache drops every cached result and returns the count removed.
func (e *Engine) ClearCache(ctx context.Context) (int64, error) {
	if e.store == nil {
		return 0, nil
	}
	return e.store.ClearAll(ctx)
}

// DeleteCached removes the cached result of one URL, reporting whether a
// live entry existed.
func (e *Engine) DeleteCached(ctx context.Context, rawURL string) (bool, error) {
	if e.store == nil {
		return false, nil
	}
	canonical, err := urlutil.Canonicalize(rawURL, urlutil.DefaultOptions())
	if err != nil {
		return false, fmt.Errorf("%w: %v", fetcher.ErrInvalidTarget, err)
	}
	return e.store.Delete(ctx, cache.Key(canonical, checklist.Version))
}

// Health reports liveness and provider availability.
func (e *Engine) Health() HealthStatus {
	return HealthStatus{
		Status:            "ok",
		RubricVersion:     checklist.Version,
		FeedbackProviders: e.feedback.ProviderStatus(),
	}
}

// Status extends Health with cache statistics.
func (e *Engine) Status(ctx context.Context) HealthStatus {
	hs := e.Health()
	if e.store != nil {
		stats, err := e.store.Stats(ctx)
		if err != nil {
			e.logger.Warn("cache stats failed",
				logging.Field{Key: "error", Value: err.Error()})
		} else {
			hs.Cache = stats
		}
	}
	return hs
}
