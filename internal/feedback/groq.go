package feedback

import (
	"context"
	"fmt"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	groqBaseURL = "https://api.groq.com/openai/v1"
	groqModel   = "llama-3.1-70b-versatile"
)

// GroqProvider is the secondary LLM provider, reached through Groq's
// OpenAI-compatible API.
type GroqProvider struct {
	apiKey string

	// One provider instance serves all concurrent pipelines, so the lazy
	// client init must be synchronized.
	initOnce sync.Once
	llm      *openai.LLM
	initErr  error
}

func NewGroqProvider(apiKey string) *GroqProvider {
	return &GroqProvider{apiKey: apiKey}
}

func (p *GroqProvider) Name() string { return "groq" }

func (p *GroqProvider) Available() bool { return p.apiKey != "" }

func (p *GroqProvider) client() (*openai.LLM, error) {
	p.initOnce.Do(func() {
		p.llm, p.initErr = openai.New(
			openai.WithToken(p.apiKey),
			openai.WithBaseURL(groqBaseURL),
			openai.WithModel(groqModel),
		)
	})
	return p.llm, p.initErr
}

func (p *GroqProvider) Generate(ctx context.Context, req *Request) (string, error) {
	llm, err := p.client()
	if err != nil {
		return "", fmt.Errorf("init groq client: %w", err)
	}

	text, err := llms.GenerateFromSinglePrompt(ctx, llm, BuildPrompt(req),
		llms.WithTemperature(0.3),
		llms.WithMaxTokens(2000),
	)
	if err != nil {
		return "", fmt.Errorf("groq generate: %w", err)
	}
	return text, nil
}
