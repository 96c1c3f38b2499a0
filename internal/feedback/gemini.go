package feedback

import (
	"context"
	"fmt"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

const geminiModel = "gemini-2.0-flash-exp"

// GeminiProvider is the primary LLM provider.
type GeminiProvider struct {
	apiKey string

	// One provider instance serves all concurrent pipelines, so the lazy
	// client init must be synchronized.
	initOnce sync.Once
	llm      *googleai.GoogleAI
	initErr  error
}

// NewGeminiProvider constructs the provider. With an empty key the provider
// reports unavailable and the chain skips it; the client is only dialed on
// first use.
func NewGeminiProvider(apiKey string) *GeminiProvider {
	return &GeminiProvider{apiKey: apiKey}
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Available() bool { return p.apiKey != "" }

func (p *GeminiProvider) client(ctx context.Context) (*googleai.GoogleAI, error) {
	p.initOnce.Do(func() {
		p.llm, p.initErr = googleai.New(ctx,
			googleai.WithAPIKey(p.apiKey),
			googleai.WithDefaultModel(geminiModel),
		)
	})
	return p.llm, p.initErr
}

func (p *GeminiProvider) Generate(ctx context.Context, req *Request) (string, error) {
	llm, err := p.client(ctx)
	if err != nil {
		return "", fmt.Errorf("init gemini client: %w", err)
	}

	text, err := llms.GenerateFromSinglePrompt(ctx, llm, BuildPrompt(req),
		llms.WithTemperature(0.3),
		llms.WithMaxTokens(2000),
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return text, nil
}
