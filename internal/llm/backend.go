package llm

import (
	"context"

	"genweb/internal/config"
)

// Backend produces a single text reply for a prompt.
type Backend interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// NewBackend returns the client for cfg.Provider, Anthropic by default.
func NewBackend(cfg config.Config) Backend {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(cfg)
	default:
		return NewAnthropicClient(cfg)
	}
}
