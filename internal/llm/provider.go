// Package llm talks to large language models for the optional parts of
// resume analysis. Every operation has a default so a missing or failing
// model never fails the caller.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Provider is a chat completion backend
type Provider interface {
	Name() string
	Complete(ctx context.Context, model, prompt string) (string, *TokenUsage, error)
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelError reports that a specific model cannot serve requests: it does
// not exist, was decommissioned or does not support the call. Another
// model may still succeed.
type ModelError struct {
	Model string
	Err   error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model %s unavailable: %v", e.Model, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

var modelErrorHints = []string{
	"model not found",
	"model_not_found",
	"decommissioned",
	"not supported",
	"unsupported",
	"does not exist",
	"model",
}

// IsModelError reports whether err is specific to the requested model
func IsModelError(err error) bool {
	if err == nil {
		return false
	}
	var modelErr *ModelError
	if errors.As(err, &modelErr) {
		return true
	}
	// Deadlines and cancellations are never the model's fault
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range modelErrorHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

// classifyStatus wraps err in a ModelError when the status code or message
// points at the model rather than the request
func classifyStatus(model string, status int, err error) error {
	if status == http.StatusNotFound || IsModelError(err) {
		return &ModelError{Model: model, Err: err}
	}
	return err
}
