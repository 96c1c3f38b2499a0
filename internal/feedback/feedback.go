// Package feedback turns a graded checklist into narrative guidance. It
// tries LLM providers in a fixed order and degrades to a deterministic
// template when none is reachable.
package feedback

import (
	"context"
	"time"

	"github.com/raysh454/foliograde/internal/checklist"
	"github.com/raysh454/foliograde/internal/logging"
)

// Request is everything a provider needs to produce feedback.
type Request struct {
	CanonicalURL string
	// PageSummary is the markdown rendering of the fetched page, already
	// truncated to a provider-safe size.
	PageSummary string
	Checklist   checklist.Checklist
	Score       float64
}

// Result is the generated feedback plus provenance.
type Result struct {
	Text     string `json:"text"`
	Provider string `json:"provider"`
	// Degraded marks template output produced without an LLM.
	Degraded bool `json:"degraded"`
}

// Provider generates feedback text. Available reports whether the provider
// is configured; unavailable providers are skipped without logging failures.
type Provider interface {
	Name() string
	Available() bool
	Generate(ctx context.Context, req *Request) (string, error)
}

// Generator walks an ordered provider chain until one succeeds. The template
// provider at the end never fails, so Generate always returns a Result.
type Generator struct {
	providers      []Provider
	requestTimeout time.Duration
	logger         logging.Logger
}

// NewGenerator builds the chain. providers run in the given order; the
// template fallback is appended automatically.
func NewGenerator(providers []Provider, requestTimeout time.Duration, logger logging.Logger) *Generator {
	if requestTimeout <= 0 {
		requestTimeout = 20 * time.Second
	}
	return &Generator{
		providers:      append(append([]Provider{}, providers...), &TemplateProvider{}),
		requestTimeout: requestTimeout,
		logger:         logging.OrNop(logger).With(logging.Field{Key: "component", Value: "feedback"}),
	}
}

// Generate produces feedback using the first available provider that
// succeeds within the per-call timeout.
func (g *Generator) Generate(ctx context.Context, req *Request) *Result {
	for _, p := range g.providers {
		if !p.Available() {
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, g.requestTimeout)
		text, err := p.Generate(callCtx, req)
		cancel()

		if err != nil {
			g.logger.Warn("provider failed, trying next",
				logging.Field{Key: "provider", Value: p.Name()},
				logging.Field{Key: "error", Value: err.Error()})
			continue
		}

		g.logger.Info("feedback generated",
			logging.Field{Key: "provider", Value: p.Name()},
			logging.Field{Key: "url", Value: req.CanonicalURL})

		return &Result{
			Text:     text,
			Provider: p.Name(),
			Degraded: p.Name() == FallbackProviderName,
		}
	}

	// Unreachable: the template provider cannot fail.
	return &Result{Provider: FallbackProviderName, Degraded: true}
}

// ProviderStatus reports configured availability per provider for the
// status endpoint.
func (g *Generator) ProviderStatus() map[string]bool {
	out := make(map[string]bool, len(g.providers))
	for _, p := range g.providers {
		out[p.Name()] = p.Available()
	}
	return out
}
