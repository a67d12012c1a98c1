package llm

import (
	"fmt"

	"resumescore/internal/config"
	"resumescore/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// completion is what a provider call yields through the breaker
type completion struct {
	text  string
	usage *TokenUsage
}

// CircuitBreaker wraps model calls with the circuit breaker pattern. A nil
// CircuitBreaker passes calls straight through.
type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker[completion]
}

// NewCircuitBreaker creates a circuit breaker for a provider, or nil when
// disabled
func NewCircuitBreaker(providerName string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("LLM-%s", providerName),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		// A missing model says nothing about the health of the endpoint
		IsSuccessful: func(err error) bool {
			return err == nil || IsModelError(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger == nil {
				return
			}
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &CircuitBreaker{
		cb: gobreaker.NewCircuitBreaker[completion](settings),
	}
}

// Execute runs fn with circuit breaker protection
func (cb *CircuitBreaker) Execute(fn func() (completion, error)) (completion, error) {
	if cb == nil || cb.cb == nil {
		return fn()
	}
	return cb.cb.Execute(fn)
}

// GetStats returns circuit breaker statistics
func (cb *CircuitBreaker) GetStats() map[string]any {
	if cb == nil || cb.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    cb.cb.Name(),
		"state":   cb.cb.State().String(),
		"counts":  cb.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is not open
func (cb *CircuitBreaker) IsHealthy() bool {
	if cb == nil || cb.cb == nil {
		return true
	}
	return cb.cb.State() != gobreaker.StateOpen
}
