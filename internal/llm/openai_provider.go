package llm

import (
	"context"
	"errors"
	"fmt"

	"resumescore/internal/config"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider for any OpenAI-compatible chat
// completion endpoint (OpenAI, Groq, Ollama)
type OpenAIProvider struct {
	client *openai.Client
	config *config.AIConfig
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a chat completion client honoring the configured
// base URL
func NewOpenAIProvider(cfg *config.AIConfig) *OpenAIProvider {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}
}

// Name implements Provider
func (o *OpenAIProvider) Name() string {
	return config.ProviderOpenAI
}

// Complete implements Provider
func (o *OpenAIProvider) Complete(ctx context.Context, model, prompt string) (string, *TokenUsage, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if o.config.UseSystemPrompts {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt(o.config),
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   o.config.MaxTokens,
		Temperature: o.config.Temperature,
	})
	if err != nil {
		return "", nil, classifyOpenAIError(model, err)
	}
	if len(resp.Choices) == 0 {
		return "", nil, fmt.Errorf("model %s returned no choices", model)
	}

	usage := &TokenUsage{
		InputTokens:  int64(resp.Usage.PromptTokens),
		OutputTokens: int64(resp.Usage.CompletionTokens),
		TotalTokens:  int64(resp.Usage.TotalTokens),
	}
	return resp.Choices[0].Message.Content, usage, nil
}

func classifyOpenAIError(model string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if code, ok := apiErr.Code.(string); ok && (code == "model_not_found" || code == "model_decommissioned") {
			return &ModelError{Model: model, Err: err}
		}
		return classifyStatus(model, apiErr.HTTPStatusCode, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(model, reqErr.HTTPStatusCode, err)
	}

	return classifyStatus(model, 0, err)
}
