package llm

import (
	"context"
	"fmt"
	"time"

	"resumescore/internal/config"
	"resumescore/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const defaultTimeout = 30 * time.Second

// Recorder receives per-call telemetry. Implementations must be safe for
// concurrent use.
type Recorder interface {
	RecordLLMCall(ctx context.Context, operation, provider, model string, duration time.Duration, usage *TokenUsage, err error)
	RecordFallback(ctx context.Context, operation, reason string)
}

// Bridge sends prompts to the configured provider and turns every failure
// into a value callers can fall back from. The zero value and a nil
// *Bridge are unavailable.
type Bridge struct {
	provider Provider
	config   *config.AIConfig
	models   []string
	breaker  *CircuitBreaker
	logger   *errors.Logger
	recorder Recorder
}

// NewBridge wraps a provider. A nil provider or an empty model list yields
// an unavailable bridge.
func NewBridge(provider Provider, cfg *config.AIConfig, logger *errors.Logger) *Bridge {
	if cfg == nil {
		cfg = &config.AIConfig{}
	}
	b := &Bridge{
		provider: provider,
		config:   cfg,
		models:   append([]string(nil), cfg.Models...),
		logger:   logger,
	}
	if provider != nil {
		b.breaker = NewCircuitBreaker(provider.Name(), cfg.CircuitBreaker, logger)
	}
	return b
}

// New builds the bridge for the configured provider. When the provider is
// disabled or lacks credentials the returned bridge is unavailable and
// every operation returns its default.
func New(ctx context.Context, cfg *config.Config, logger *errors.Logger) (*Bridge, error) {
	if !cfg.LLMEnabled() {
		logger.Info("LLM disabled, using heuristic analysis only",
			"provider", cfg.AI.Provider)
		return NewBridge(nil, &cfg.AI, logger), nil
	}

	var provider Provider
	switch cfg.AI.Provider {
	case config.ProviderGemini:
		gemini, err := NewGeminiProvider(ctx, &cfg.AI, logger)
		if err != nil {
			return nil, err
		}
		provider = gemini
	case config.ProviderOpenAI:
		provider = NewOpenAIProvider(&cfg.AI)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unsupported AI provider: %s", cfg.AI.Provider), nil)
	}

	logger.Info("LLM bridge ready",
		"provider", provider.Name(),
		"models", cfg.AI.Models,
		"timeout", cfg.AI.Timeout.String())

	return NewBridge(provider, &cfg.AI, logger), nil
}

// WithRecorder attaches a telemetry recorder
func (b *Bridge) WithRecorder(r Recorder) *Bridge {
	if b != nil {
		b.recorder = r
	}
	return b
}

// Available reports whether a model can be consulted at all
func (b *Bridge) Available() bool {
	return b != nil && b.provider != nil && len(b.models) > 0
}

// Generate sends prompt to the preferred model. On a model-specific error
// it retries exactly once against the next model in the preference list.
func (b *Bridge) Generate(ctx context.Context, prompt string) (string, error) {
	return b.generate(ctx, "generate", prompt)
}

func (b *Bridge) generate(ctx context.Context, operation, prompt string) (string, error) {
	if !b.Available() {
		return "", errors.NewAIError(errors.ErrCodeModelUnavailable, "no language model configured", nil)
	}

	tracer := otel.Tracer("resumescore.llm")
	ctx, span := tracer.Start(ctx, "llm."+operation)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", b.provider.Name()),
		attribute.String("ai.operation", operation),
		attribute.Int("input.prompt_length", len(prompt)),
	)

	text, err := b.attempt(ctx, operation, b.models[0], prompt)
	if err != nil && IsModelError(err) && len(b.models) > 1 {
		fallback := b.models[1]
		b.logWarn("Model failed, trying fallback model",
			"operation", operation,
			"model", b.models[0],
			"fallback_model", fallback,
			"error", err.Error())
		if b.recorder != nil {
			b.recorder.RecordFallback(ctx, operation, "model_error")
		}
		span.SetAttributes(attribute.String("ai.fallback_model", fallback))
		text, err = b.attempt(ctx, operation, fallback, prompt)
	}

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return "", errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to generate content for "+operation, err)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return text, nil
}

// attempt runs one model call under the per-call timeout and the breaker
func (b *Bridge) attempt(ctx context.Context, operation, model, prompt string) (string, error) {
	timeout := b.config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	result, err := b.breaker.Execute(func() (completion, error) {
		text, usage, err := b.provider.Complete(callCtx, model, prompt)
		return completion{text: text, usage: usage}, err
	})
	duration := time.Since(start)

	if b.recorder != nil {
		b.recorder.RecordLLMCall(ctx, operation, b.provider.Name(), model, duration, result.usage, err)
	}
	if err != nil {
		return "", err
	}

	b.logDebug("LLM call completed",
		"operation", operation,
		"model", model,
		"duration_ms", duration.Milliseconds(),
		"response_length", len(result.text))
	return result.text, nil
}

// Status describes the bridge for health and stats endpoints
func (b *Bridge) Status() map[string]any {
	if !b.Available() {
		return map[string]any{
			"available": false,
		}
	}
	return map[string]any{
		"available":       true,
		"provider":        b.provider.Name(),
		"models":          b.models,
		"current_model":   b.models[0],
		"circuit_breaker": b.breaker.GetStats(),
		"healthy":         b.breaker.IsHealthy(),
	}
}

func (b *Bridge) logWarn(message string, args ...any) {
	if b.logger != nil {
		b.logger.Warn(message, args...)
	}
}

func (b *Bridge) logDebug(message string, args ...any) {
	if b.logger != nil {
		b.logger.Debug(message, args...)
	}
}
