package llm

import "context"

type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// LLMClient defines the standard interface for any LLM backend. The router
// and specialists only need single-shot completion; chat-style multi-turn
// state lives in the ticket conversation, not in the backend.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

// NewClientFromEnv selects a backend from LLM_PROVIDER ("openai" or
// "ollama", default "ollama").
func NewClientFromEnv() (LLMClient, error) {
	return newClientForProvider(envProvider())
}
