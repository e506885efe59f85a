package factory

import (
	"fmt"

	"workspace-context-be/pkg/llm"
	"workspace-context-be/pkg/llm/ollama"
	"workspace-context-be/pkg/llm/openai"
)

// NewLLMProvider builds the completion client. A config without a base URL
// yields a nil provider, which callers treat as offline mode.
func NewLLMProvider(cfg llm.Config) (llm.LLMProvider, error) {
	if cfg.BaseURL == "" {
		return nil, nil
	}

	switch cfg.Provider {
	case "", "openai":
		return openai.NewProvider(cfg), nil
	case "ollama":
		return ollama.NewOllamaProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
