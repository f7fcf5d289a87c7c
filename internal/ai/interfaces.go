package ai

import (
	"context"
	"time"
)

// Generator produces a model completion for a system and user prompt.
// Implementations are asked for JSON output.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// Observer is told about every model call a Service makes
type Observer interface {
	ObserveAI(ctx context.Context, operation string, elapsed time.Duration, usage *TokenUsage, err error)
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}
