package ai

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candidatelens/internal/config"
)

func breakerConfig(minRequests uint32, threshold float64) *config.OperationAIConfig {
	return &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "test-model",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          time.Minute,
			MinRequests:      minRequests,
			FailureThreshold: threshold,
		},
	}
}

func TestIndependentBreakersPerOperation(t *testing.T) {
	match := NewGenerationBreaker[string]("match", breakerConfig(3, 0.6), nil)
	research := NewGenerationBreaker[string]("research", breakerConfig(2, 0.7), nil)
	report := NewGenerationBreaker[string]("report", breakerConfig(5, 0.5), nil)

	tests := []struct {
		breaker *Breaker[string]
		name    string
	}{
		{match, "AI-match"},
		{research, "AI-research"},
		{report, "AI-report"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := tt.breaker.Stats()
			assert.Equal(t, tt.name, stats["name"])
			assert.Equal(t, "closed", stats["state"])
			assert.Equal(t, true, stats["enabled"])
			assert.True(t, tt.breaker.IsHealthy())
		})
	}

	assert.NotSame(t, match, research)
	assert.NotSame(t, research, report)
}

func TestGenerationBreakerTrips(t *testing.T) {
	b := NewGenerationBreaker[string]("match", breakerConfig(2, 0.5), nil)
	boom := errors.New("upstream down")

	for range 2 {
		_, err := b.Execute(func() (string, error) { return "", boom })
		require.ErrorIs(t, err, boom)
	}

	assert.False(t, b.IsHealthy())
	_, err := b.Execute(func() (string, error) { return "never", nil })
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestModelBreakerIsLenient(t *testing.T) {
	b := NewModelBreaker[string]("match", breakerConfig(1, 0.1), nil)
	boom := errors.New("model lookup failed")

	for range 4 {
		_, _ = b.Execute(func() (string, error) { return "", boom })
	}
	assert.True(t, b.IsHealthy(), "model breaker needs at least five requests")
	assert.Equal(t, "AI-Model-match", b.Stats()["name"])
}

func TestBreakerDisabled(t *testing.T) {
	cfg := breakerConfig(1, 0.1)
	cfg.CircuitBreaker.Enabled = false

	b := NewGenerationBreaker[string]("disabled", cfg, nil)
	require.Nil(t, b)

	// a nil breaker still runs the call
	out, err := b.Execute(func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.True(t, b.IsHealthy())
	assert.Equal(t, false, b.Stats()["enabled"])
}
