package engine

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/raysh454/foliograde/internal/cache"
	"github.com/raysh454/foliograde/internal/feedback"
	"github.com/raysh454/foliograde/internal/fetcher"
	"github.com/raysh454/foliograde/internal/ratelimit"
	"github.com/raysh454/foliograde/internal/testutil"
	"github.com/raysh454/foliograde/internal/webclient"
)

type stubProvider struct {
	name  string
	text  string
	err   error
	calls int
}

func (s *stubProvider) Name() string    { return s.name }
func (s *stubProvider) Available() bool { return true }

func (s *stubProvider) Generate(_ context.Context, _ *feedback.Request) (string, error) {
	s.calls++
	return s.text, s.err
}

// countingClient tracks the peak number of in-flight requests.
type countingClient struct {
	inner webclient.WebClient

	mu       sync.Mutex
	inflight int
	peak     int
}

func (c *countingClient) Do(ctx context.Context, req *webclient.Request) (*webclient.Response, error) {
	c.mu.Lock()
	c.inflight++
	if c.inflight > c.peak {
		c.peak = c.inflight
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inflight--
		c.mu.Unlock()
	}()
	return c.inner.Do(ctx, req)
}

func (c *countingClient) Close() error { return nil }

func (c *countingClient) Peak() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peak
}

type testEnv struct {
	engine *Engine
	client *testutil.DummyWebClient
	store  cache.Store
	clock  *testutil.FakeClock
}

func newTestEnv(t *testing.T, mutate func(cfg *Config, deps *testDeps)) *testEnv {
	t.Helper()

	clock := testutil.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	client := &testutil.DummyWebClient{}

	deps := &testDeps{
		plain:     client,
		store:     cache.NewMemoryStore(clock),
		providers: []feedback.Provider{},
	}
	cfg := DefaultConfig()
	cfg.AnalysisTimeout = 5 * time.Second
	if mutate != nil {
		mutate(&cfg, deps)
	}

	f, err := fetcher.New(nil, deps.plain, fetcher.Config{
		PageLoadTimeout: 2 * time.Second,
		RetryBackoff:    time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatalf("fetcher.New: %v", err)
	}

	gen := feedback.NewGenerator(deps.providers, time.Second, nil)

	eng, err := New(f, gen, deps.store, deps.limiter, cfg, clock, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &testEnv{engine: eng, client: client, store: deps.store, clock: clock}
}

type testDeps struct {
	plain     webclient.WebClient
	store     cache.Store
	limiter   *ratelimit.Limiter
	providers []feedback.Provider
}

const targetURL = "https://student.example/portfolio"

func TestGrade_CachesResult(t *testing.T) {
	env := newTestEnv(t, nil)

	first, err := env.engine.Grade(context.Background(), targetURL, GradeOptions{})
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if first.FromCache {
		t.Error("first grade should not come from cache")
	}
	if first.CanonicalURL != targetURL {
		t.Errorf("canonical = %s", first.CanonicalURL)
	}
	if first.ShareURL == "" || !strings.HasPrefix(first.ShareURL, "/share/") {
		t.Errorf("share url = %q", first.ShareURL)
	}
	if len(first.Checklist) != 26 {
		t.Errorf("checklist items = %d, want 26", len(first.Checklist))
	}

	second, err := env.engine.Grade(context.Background(), targetURL, GradeOptions{})
	if err != nil {
		t.Fatalf("second Grade: %v", err)
	}
	if !second.FromCache {
		t.Error("second grade should come from cache")
	}
	if second.Score != first.Score {
		t.Errorf("cached score %v != original %v", second.Score, first.Score)
	}
	if n := env.client.RequestCount(targetURL); n != 1 {
		t.Errorf("fetches = %d, want 1", n)
	}

	// The share token resolves to the same snapshot.
	token := strings.TrimPrefix(first.ShareURL, "/share/")
	shared, err := env.engine.SharedResult(context.Background(), token)
	if err != nil {
		t.Fatalf("SharedResult: %v", err)
	}
	if shared.Score != first.Score {
		t.Errorf("shared score %v != original %v", shared.Score, first.Score)
	}
}

func TestGrade_CacheExpiry(t *testing.T) {
	env := newTestEnv(t, nil)

	if _, err := env.engine.Grade(context.Background(), targetURL, GradeOptions{}); err != nil {
		t.Fatalf("Grade: %v", err)
	}

	env.clock.Advance(8 * 24 * time.Hour)

	res, err := env.engine.Grade(context.Background(), targetURL, GradeOptions{})
	if err != nil {
		t.Fatalf("Grade after expiry: %v", err)
	}
	if res.FromCache {
		t.Error("expired entry must not be served")
	}
	if n := env.client.RequestCount(targetURL); n != 2 {
		t.Errorf("fetches = %d, want 2", n)
	}
}

func TestGrade_ForceRefresh(t *testing.T) {
	env := newTestEnv(t, nil)

	if _, err := env.engine.Grade(context.Background(), targetURL, GradeOptions{}); err != nil {
		t.Fatalf("Grade: %v", err)
	}
	res, err := env.engine.Grade(context.Background(), targetURL, GradeOptions{ForceRefresh: true})
	if err != nil {
		t.Fatalf("Grade force refresh: %v", err)
	}
	if res.FromCache {
		t.Error("force refresh must bypass the cache")
	}
	if n := env.client.RequestCount(targetURL); n != 2 {
		t.Errorf("fetches = %d, want 2", n)
	}
}

func TestGrade_InvalidTarget(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, raw := range []string{
		"ftp://student.example",
		"http://localhost/portfolio",
		"http://127.0.0.1/portfolio",
		"",
	} {
		_, err := env.engine.Grade(context.Background(), raw, GradeOptions{})
		if !errors.Is(err, fetcher.ErrInvalidTarget) {
			t.Errorf("Grade(%q) error = %v, want ErrInvalidTarget", raw, err)
		}
	}
	if len(env.client.Requests) != 0 {
		t.Errorf("invalid targets must not be fetched, got %d requests", len(env.client.Requests))
	}
}

func TestGrade_RateLimited(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config, deps *testDeps) {
		deps.limiter = ratelimit.New(ratelimit.Config{PerHour: 1, PerDay: 10}, nil)
	})

	if _, err := env.engine.Grade(context.Background(), targetURL, GradeOptions{Scope: "1.2.3.4"}); err != nil {
		t.Fatalf("first Grade: %v", err)
	}

	_, err := env.engine.Grade(context.Background(), targetURL, GradeOptions{Scope: "1.2.3.4", ForceRefresh: true})
	var rle *RateLimitedError
	if !errors.As(err, &rle) {
		t.Fatalf("error = %v, want RateLimitedError", err)
	}
	if rle.Decision.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %v, want > 0", rle.Decision.RetryAfter)
	}

	// Other scopes are unaffected.
	if _, err := env.engine.Grade(context.Background(), targetURL, GradeOptions{Scope: "5.6.7.8"}); err != nil {
		t.Errorf("other scope Grade: %v", err)
	}
}

func TestGrade_FetchFailureDegrades(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config, deps *testDeps) {
		deps.plain.(*testutil.DummyWebClient).FailURLs = map[string]bool{targetURL: true}
	})

	res, err := env.engine.Grade(context.Background(), targetURL, GradeOptions{})
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if !res.FetchFailed {
		t.Error("FetchFailed not set")
	}
	if !res.LowConfidenceWarning {
		t.Error("empty page should carry a low-confidence warning")
	}
	if res.Feedback == "" || res.FeedbackProvider != feedback.FallbackProviderName {
		t.Errorf("feedback = %q via %q", res.Feedback, res.FeedbackProvider)
	}

	// Failed fetches are not cached; a later attempt fetches again.
	env.client.FailURLs = nil
	res2, err := env.engine.Grade(context.Background(), targetURL, GradeOptions{})
	if err != nil {
		t.Fatalf("retry Grade: %v", err)
	}
	if res2.FromCache || res2.FetchFailed {
		t.Errorf("retry result = fromCache %v fetchFailed %v", res2.FromCache, res2.FetchFailed)
	}
}

func TestGrade_UsesLLMProvider(t *testing.T) {
	p := &stubProvider{name: "gemini", text: "Solid start. Add more projects."}
	env := newTestEnv(t, func(cfg *Config, deps *testDeps) {
		deps.providers = []feedback.Provider{p}
	})

	res, err := env.engine.Grade(context.Background(), targetURL, GradeOptions{})
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if res.FeedbackProvider != "gemini" || res.Degraded {
		t.Errorf("provider = %s degraded = %v", res.FeedbackProvider, res.Degraded)
	}
	if res.Feedback != p.text {
		t.Errorf("feedback = %q", res.Feedback)
	}
}

func TestRunBatch_OrderAndConcurrencyBound(t *testing.T) {
	counter := &countingClient{inner: &testutil.DummyWebClient{ResponseDelay: 20 * time.Millisecond}}
	env := newTestEnv(t, func(cfg *Config, deps *testDeps) {
		cfg.MaxConcurrent = 2
		deps.plain = counter
		deps.store = nil
	})

	targets := []AnalysisTarget{
		{ID: "1", URL: "https://a.example/one"},
		{ID: "2", URL: "https://b.example/two"},
		{ID: "3", URL: "https://c.example/three"},
		{ID: "4", URL: "https://d.example/four"},
		{ID: "5", URL: "https://e.example/five"},
		{ID: "6", URL: "https://f.example/six"},
	}

	summary := env.engine.RunBatch(context.Background(), targets, "")

	if summary.Total != 6 || summary.Succeeded != 6 {
		t.Fatalf("summary = %+v", summary)
	}
	for i, item := range summary.Items {
		if item.Target.URL != targets[i].URL {
			t.Errorf("item %d holds %s, want %s", i, item.Target.URL, targets[i].URL)
		}
		if item.Status != BatchItemSuccess || item.Result == nil {
			t.Errorf("item %d status = %s", i, item.Status)
		}
	}
	if counter.Peak() > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", counter.Peak())
	}
}

func TestRunBatch_MixedItems(t *testing.T) {
	env := newTestEnv(t, nil)

	targets := []AnalysisTarget{
		{ID: "ok", URL: "https://a.example/one"},
		{ID: "bad", URL: "http://localhost/evil"},
		{ID: "ok2", URL: "https://b.example/two"},
	}

	summary := env.engine.RunBatch(context.Background(), targets, "")

	if summary.Succeeded != 2 || summary.Failed != 1 || summary.Skipped != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.Items[1].Status != BatchItemFailed || summary.Items[1].Error == "" {
		t.Errorf("invalid item = %+v", summary.Items[1])
	}
	if summary.Items[1].Result != nil {
		t.Error("failed item must not carry a result")
	}

	if summary.AverageScore == nil {
		t.Fatal("average missing despite successful items")
	}
	want := (summary.Items[0].Result.Score + summary.Items[2].Result.Score) / 2
	if diff := *summary.AverageScore - want; diff > 0.1 || diff < -0.1 {
		t.Errorf("average = %v, want about %v", *summary.AverageScore, want)
	}

	payload, err := json.Marshal(summary.Items[0])
	if err != nil {
		t.Fatalf("marshal item: %v", err)
	}
	if !strings.Contains(string(payload), `"status":"success"`) {
		t.Errorf("item payload = %s, want status success", payload)
	}
}

func TestRunBatch_NoSuccesses(t *testing.T) {
	env := newTestEnv(t, nil)

	summary := env.engine.RunBatch(context.Background(), []AnalysisTarget{
		{ID: "bad", URL: "http://localhost/one"},
		{ID: "bad2", URL: "ftp://b.example/two"},
	}, "")

	if summary.Failed != 2 || summary.Succeeded != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.AverageScore != nil {
		t.Errorf("average = %v, want nil with no successes", *summary.AverageScore)
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(payload), "average_score") {
		t.Errorf("payload must omit average_score: %s", payload)
	}
}

// gatedClient blocks every request until the gate closes and signals each
// request start.
type gatedClient struct {
	inner   webclient.WebClient
	gate    chan struct{}
	started chan struct{}
}

func (c *gatedClient) Do(ctx context.Context, req *webclient.Request) (*webclient.Response, error) {
	c.started <- struct{}{}
	select {
	case <-c.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return c.inner.Do(ctx, req)
}

func (c *gatedClient) Close() error { return nil }

func TestRunBatch_InvalidTargetBypassesWorkerPool(t *testing.T) {
	client := &gatedClient{
		inner:   &testutil.DummyWebClient{},
		gate:    make(chan struct{}),
		started: make(chan struct{}, 4),
	}
	env := newTestEnv(t, func(cfg *Config, deps *testDeps) {
		cfg.MaxConcurrent = 2
		deps.plain = client
		deps.store = nil
	})

	targets := []AnalysisTarget{
		{ID: "1", URL: "https://a.example/one"},
		{ID: "2", URL: "https://b.example/two"},
		{ID: "3", URL: "http://localhost/three"},
		{ID: "4", URL: "ftp://d.example/four"},
	}

	var mu sync.Mutex
	finished := 0
	done := make(chan *BatchSummary, 1)
	go func() {
		done <- env.engine.runBatch(context.Background(), targets, "", func(i int, item *BatchItem) {
			mu.Lock()
			finished++
			mu.Unlock()
		})
	}()

	// Both worker slots are held by in-flight fetches.
	<-client.started
	<-client.started

	// Invalid targets must still finish, without waiting for a slot.
	deadline := time.After(time.Second)
	for {
		mu.Lock()
		n := finished
		mu.Unlock()
		if n >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("invalid targets blocked behind busy worker slots")
		case <-time.After(5 * time.Millisecond):
		}
	}

	close(client.gate)
	summary := <-done
	if summary.Succeeded != 2 || summary.Failed != 2 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestStartBatchJob_Lifecycle(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config, deps *testDeps) {
		deps.store = nil
	})

	targets := []AnalysisTarget{
		{URL: "https://a.example/one"},
		{URL: "https://b.example/two"},
	}
	job := env.engine.StartBatchJob(targets, "")

	var sawRunning, sawProgress bool
	var final *JobEvent
	for ev := range job.Events {
		switch ev.Type {
		case JobEventStatus:
			if ev.Status == JobRunning {
				sawRunning = true
			}
		case JobEventProgress:
			sawProgress = true
		case JobEventResult:
			e := ev
			final = &e
		}
	}

	if !sawRunning || !sawProgress {
		t.Errorf("events: running=%v progress=%v", sawRunning, sawProgress)
	}
	if final == nil || final.Status != JobDone || final.Summary == nil {
		t.Fatalf("final event = %+v", final)
	}
	if final.Summary.Succeeded != 2 {
		t.Errorf("summary = %+v", final.Summary)
	}

	got, ok := env.engine.GetJob(job.ID)
	if !ok {
		t.Fatal("job not found after completion")
	}
	if got.Status != JobDone || got.Completed != 2 || got.EndedAt.IsZero() {
		t.Errorf("job = status %s completed %d", got.Status, got.Completed)
	}

	if err := env.engine.CancelJob(job.ID); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("cancel finished job = %v, want ErrJobNotFound", err)
	}
}

func TestCancelJob(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config, deps *testDeps) {
		cfg.MaxConcurrent = 1
		deps.plain.(*testutil.DummyWebClient).ResponseDelay = 200 * time.Millisecond
		deps.store = nil
	})

	targets := make([]AnalysisTarget, 5)
	for i := range targets {
		targets[i] = AnalysisTarget{URL: "https://site.example/p" + string(rune('a'+i))}
	}
	job := env.engine.StartBatchJob(targets, "")

	time.Sleep(50 * time.Millisecond)
	if err := env.engine.CancelJob(job.ID); err != nil {
		t.Fatalf("CancelJob: %v", err)
	}

	for range job.Events {
	}

	got, _ := env.engine.GetJob(job.ID)
	if got.Status != JobCanceled {
		t.Fatalf("status = %s, want canceled", got.Status)
	}
	if got.Summary == nil || got.Summary.Skipped == 0 {
		t.Errorf("summary = %+v, want skipped items", got.Summary)
	}
}

func TestClearAndDeleteCache(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	if _, err := env.engine.Grade(ctx, targetURL, GradeOptions{}); err != nil {
		t.Fatalf("Grade: %v", err)
	}

	ok, err := env.engine.DeleteCached(ctx, targetURL)
	if err != nil || !ok {
		t.Fatalf("DeleteCached = %v, %v", ok, err)
	}
	ok, err = env.engine.DeleteCached(ctx, targetURL)
	if err != nil || ok {
		t.Fatalf("second DeleteCached = %v, %v", ok, err)
	}

	if _, err := env.engine.Grade(ctx, targetURL, GradeOptions{}); err != nil {
		t.Fatalf("regrade: %v", err)
	}
	n, err := env.engine.ClearCache(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ClearCache = %d, %v", n, err)
	}
}

func TestHealthAndStatus(t *testing.T) {
	env := newTestEnv(t, nil)

	hs := env.engine.Health()
	if hs.Status != "ok" || hs.RubricVersion == "" {
		t.Errorf("health = %+v", hs)
	}
	if !hs.FeedbackProviders[feedback.FallbackProviderName] {
		t.Error("fallback provider missing from health")
	}

	if _, err := env.engine.Grade(context.Background(), targetURL, GradeOptions{}); err != nil {
		t.Fatalf("Grade: %v", err)
	}
	st := env.engine.Status(context.Background())
	if st.Cache == nil || st.Cache.Entries != 1 {
		t.Errorf("status cache = %+v", st.Cache)
	}
}
