// Package fetcher retrieves portfolio pages. It prefers the rendering backend
// so JavaScript-built sites produce real content, and falls back to the plain
// HTTP backend when rendering is unavailable or fails.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/raysh454/foliograde/internal/logging"
	"github.com/raysh454/foliograde/internal/webclient"
)

// ErrInvalidTarget marks URLs that must never be fetched, like loopback or
// private-network targets. Callers fail the item without consuming a fetch.
var ErrInvalidTarget = errors.New("invalid fetch target")

// Config holds fetcher tuning knobs.
type Config struct {
	// PageLoadTimeout bounds one fetch attempt.
	PageLoadTimeout time.Duration
	// RetryBackoff is the pause before the single retry of a failed attempt.
	RetryBackoff time.Duration
	// LowConfidenceBytes is the body size under which a fallback fetch is
	// flagged as likely missing client-rendered content.
	LowConfidenceBytes int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		PageLoadTimeout:    30 * time.Second,
		RetryBackoff:       500 * time.Millisecond,
		LowConfidenceBytes: 2048,
	}
}

// Result is what one fetch produces. A failed fetch yields Empty() so the
// evaluation pipeline can continue and record failures per rule.
type Result struct {
	HTML                 string
	UsedFallback         bool
	ByteLength           int
	FetchLatency         time.Duration
	LowConfidenceWarning bool
}

// Empty returns the zero fetch result used when both backends fail.
func Empty() *Result {
	return &Result{LowConfidenceWarning: true}
}

// Fetcher coordinates the rendering and plain backends.
type Fetcher struct {
	renderer webclient.WebClient // may be nil when no browser is available
	plain    webclient.WebClient
	cfg      Config
	logger   logging.Logger
}

// New creates a Fetcher. renderer may be nil; plain must not be.
func New(renderer, plain webclient.WebClient, cfg Config, logger logging.Logger) (*Fetcher, error) {
	if plain == nil {
		return nil, fmt.Errorf("fetcher: plain webclient is nil")
	}
	if cfg.PageLoadTimeout <= 0 {
		cfg.PageLoadTimeout = DefaultConfig().PageLoadTimeout
	}
	if cfg.LowConfidenceBytes <= 0 {
		cfg.LowConfidenceBytes = DefaultConfig().LowConfidenceBytes
	}
	return &Fetcher{
		renderer: renderer,
		plain:    plain,
		cfg:      cfg,
		logger:   logging.OrNop(logger).With(logging.Field{Key: "component", Value: "fetcher"}),
	}, nil
}

// ValidateTarget rejects URLs that should never be fetched: non-http schemes,
// localhost names, and literal loopback/private/link-local IPs. Hostnames
// that resolve to private addresses are caught later by the dialer.
func ValidateTarget(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q not allowed", ErrInvalidTarget, u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidTarget)
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("%w: localhost not allowed", ErrInvalidTarget)
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
			return fmt.Errorf("%w: address %s not allowed", ErrInvalidTarget, host)
		}
	}
	return nil
}

// Fetch retrieves the page at canonicalURL. The rendering backend is tried
// first (once plus one retry); if it cannot produce a page the plain backend
// takes over and the result is marked as fallback.
func (f *Fetcher) Fetch(ctx context.Context, canonicalURL string) (*Result, error) {
	if err := ValidateTarget(canonicalURL); err != nil {
		return nil, err
	}

	start := time.Now()

	if f.renderer != nil {
		body, err := f.attempt(ctx, f.renderer, canonicalURL)
		if err == nil {
			return f.finish(body, false, start), nil
		}
		f.logger.Warn("render fetch failed, falling back to plain http",
			logging.Field{Key: "url", Value: canonicalURL},
			logging.Field{Key: "error", Value: err.Error()})
	}

	body, err := f.attempt(ctx, f.plain, canonicalURL)
	if err != nil {
		f.logger.Error("plain fetch failed",
			logging.Field{Key: "url", Value: canonicalURL},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, err
	}

	usedFallback := f.renderer != nil
	return f.finish(body, usedFallback, start), nil
}

// attempt performs one fetch plus one retry after a short backoff.
func (f *Fetcher) attempt(ctx context.Context, wc webclient.WebClient, target string) ([]byte, error) {
	body, err := f.once(ctx, wc, target)
	if err == nil {
		return body, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	if f.cfg.RetryBackoff > 0 {
		select {
		case <-time.After(f.cfg.RetryBackoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return f.once(ctx, wc, target)
}

func (f *Fetcher) once(ctx context.Context, wc webclient.WebClient, target string) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.cfg.PageLoadTimeout)
	defer cancel()

	resp, err := wc.Do(attemptCtx, &webclient.Request{Method: "GET", URL: target})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, target)
	}
	return resp.Body, nil
}

func (f *Fetcher) finish(body []byte, usedFallback bool, start time.Time) *Result {
	html := string(body)
	res := &Result{
		HTML:         html,
		UsedFallback: usedFallback,
		ByteLength:   len(body),
		FetchLatency: time.Since(start),
	}
	if usedFallback && (res.ByteLength < f.cfg.LowConfidenceBytes || isJSSkeleton(html)) {
		res.LowConfidenceWarning = true
	}
	return res
}

// jsSkeletonMarkers are mount points and bundle paths typical of pages that
// are empty until client-side JavaScript runs.
var jsSkeletonMarkers = []string{
	`<div id="root"`,
	`<div id="app"`,
	`<div id="__next"`,
	"react-root",
	"vue-app",
	"/static/js/main.",
	"/static/js/bundle.",
}

// isJSSkeleton reports whether html looks like an unrendered single-page-app
// shell: short overall, framework mount point present, near-empty body.
func isJSSkeleton(html string) bool {
	if len(html) > 5000 {
		return false
	}
	lower := strings.ToLower(html)

	marked := false
	for _, m := range jsSkeletonMarkers {
		if strings.Contains(lower, m) {
			marked = true
			break
		}
	}
	if !marked {
		return false
	}

	bodyStart := strings.Index(lower, "<body")
	bodyEnd := strings.Index(lower, "</body>")
	if bodyStart < 0 || bodyEnd <= bodyStart {
		return true
	}
	body := lower[bodyStart:bodyEnd]
	body = strings.ReplaceAll(body, "<script", "")
	body = strings.ReplaceAll(body, "<link", "")
	return len(strings.TrimSpace(body)) < 500
}
