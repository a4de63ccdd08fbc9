package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// deskPersona pins the system role for every oracle call. The desk's
// prompts are self-contained, so there is no per-deployment persona knob.
const deskPersona = "You are a precise enterprise service-desk agent. " +
	"Answer only with what the prompt asks for."

const (
	defaultOpenAIModel  = "gpt-4o-mini"
	openaiKeySecretFile = "/run/secrets/openai_api_key"
)

// OpenAIClient is the hosted oracle backend. The desk only issues
// single-shot completions against it; conversation state lives in the
// ticket, never in the backend.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient reads OPENAI_API_KEY from the environment, falling back
// to the container secret file, and OPENAI_MODEL for the model name.
func NewOpenAIClient() (*OpenAIClient, error) {
	key, err := openaiAPIKey()
	if err != nil {
		return nil, err
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = defaultOpenAIModel
	}
	slog.Info("Initializing OpenAI client", "model", model)
	return &OpenAIClient{client: openai.NewClient(key), model: model}, nil
}

func openaiAPIKey() (string, error) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key, nil
	}
	raw, err := os.ReadFile(openaiKeySecretFile)
	if err != nil {
		return "", fmt.Errorf("OPENAI_API_KEY not set and secret %s not readable", openaiKeySecretFile)
	}
	slog.Info("Read the OpenAI API key from the container secret")
	return strings.TrimSpace(string(raw)), nil
}

// Generate implements the LLMClient interface.
func (o *OpenAIClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: deskPersona},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if params.Temperature != nil {
		req.Temperature = *params.Temperature
	}
	if params.MaxTokens != nil {
		req.MaxCompletionTokens = *params.MaxTokens
	}
	if params.TopP != nil {
		req.TopP = *params.TopP
	}
	if len(params.Stop) > 0 {
		req.Stop = params.Stop
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	slog.Debug("OpenAI completion finished",
		"model", o.model, "finish_reason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}
