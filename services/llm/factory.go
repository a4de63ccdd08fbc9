package llm

import (
	"fmt"
	"os"
	"strings"
)

func envProvider() string {
	p := strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER")))
	if p == "" {
		p = "ollama"
	}
	return p
}

func newClientForProvider(provider string) (LLMClient, error) {
	switch provider {
	case "openai":
		return NewOpenAIClient()
	case "ollama":
		return NewOllamaClient()
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", provider)
	}
}
