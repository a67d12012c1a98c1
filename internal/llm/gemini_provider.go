package llm

import (
	"context"
	"errors"

	"resumescore/internal/config"
	appErrors "resumescore/internal/errors"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GeminiProvider implements Provider for Google Gemini
type GeminiProvider struct {
	client *genai.Client
	config *config.AIConfig
	logger *appErrors.Logger
}

var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini client from the AI configuration
func NewGeminiProvider(ctx context.Context, cfg *config.AIConfig, logger *appErrors.Logger) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, appErrors.NewAIError(appErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client: client,
		config: cfg,
		logger: logger,
	}, nil
}

// Name implements Provider
func (g *GeminiProvider) Name() string {
	return config.ProviderGemini
}

// Complete implements Provider
func (g *GeminiProvider) Complete(ctx context.Context, model, prompt string) (string, *TokenUsage, error) {
	result, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), g.generateConfig())
	if err != nil {
		return "", nil, classifyGeminiError(model, err)
	}
	return result.Text(), extractTokenUsage(result), nil
}

func (g *GeminiProvider) generateConfig() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}

	if g.config.Temperature > 0 {
		temperature := g.config.Temperature
		cfg.Temperature = &temperature
	}
	if g.config.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(g.config.MaxTokens)
	}
	if g.config.UseSystemPrompts {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt(g.config), genai.RoleUser)
	}

	return cfg
}

// classifyGeminiError marks not-found responses as model errors
func classifyGeminiError(model string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(model, apiErr.Code, err)
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return classifyStatus(model, gErr.Code, err)
	}

	return classifyStatus(model, 0, err)
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
