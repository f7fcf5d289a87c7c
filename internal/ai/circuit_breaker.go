package ai

import (
	"fmt"

	"github.com/sony/gobreaker/v2"

	"candidatelens/internal/config"
	"candidatelens/internal/errors"
)

// Breaker guards one kind of model call. A nil *Breaker runs calls unguarded.
type Breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// tripPolicy decides when a breaker opens
type tripPolicy func(counts gobreaker.Counts) bool

// ratioPolicy trips once minRequests have been seen and the failure ratio reaches threshold
func ratioPolicy(minRequests uint32, threshold float64) tripPolicy {
	return func(counts gobreaker.Counts) bool {
		if counts.Requests == 0 {
			return false
		}
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= minRequests && failureRatio >= threshold
	}
}

func newBreaker[T any](name, operationType string, cfg config.CircuitBreakerConfig, trip tripPolicy, logger *errors.Logger) *Breaker[T] {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: trip,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger == nil {
				return
			}
			logger.Info("Circuit breaker state changed",
				"name", name,
				"operation_type", operationType,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &Breaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// NewGenerationBreaker creates the breaker that guards content generation for an operation
func NewGenerationBreaker[T any](operationType string, cfg *config.OperationAIConfig, logger *errors.Logger) *Breaker[T] {
	cb := cfg.CircuitBreaker
	return newBreaker[T](fmt.Sprintf("AI-%s", operationType), operationType, cb,
		ratioPolicy(cb.MinRequests, cb.FailureThreshold), logger)
}

// NewModelBreaker creates the breaker for model availability checks. Those
// are less critical, so it trips later than the generation breaker.
func NewModelBreaker[T any](operationType string, cfg *config.OperationAIConfig, logger *errors.Logger) *Breaker[T] {
	return newBreaker[T](fmt.Sprintf("AI-Model-%s", operationType), operationType, cfg.CircuitBreaker,
		ratioPolicy(5, 0.8), logger)
}

// Execute runs fn behind the breaker
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// Stats returns circuit breaker statistics
func (b *Breaker[T]) Stats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the breaker is closed or absent
func (b *Breaker[T]) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}
