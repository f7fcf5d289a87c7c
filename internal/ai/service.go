package ai

import (
	"context"
	"fmt"
	"time"

	"candidatelens/internal/config"
	"candidatelens/internal/errors"
)

// Service runs the prompts of one configured AI operation
type Service struct {
	Provider  Generator // Exported for access from server package
	config    *config.OperationAIConfig
	operation string
	prompts   *config.PromptStore
	observer  Observer
	logger    *errors.Logger
}

// NewService creates a new AI service instance with configuration for a specific operation
func NewService(cfg *config.OperationAIConfig, operationType string, prompts *config.PromptStore, logger *errors.Logger) (*Service, error) {
	var provider Generator
	var err error

	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"operation_type", operationType,
		"model", cfg.Model,
		"temperature", *cfg.Temperature,
		"timeout", *cfg.Timeout,
		"max_retries", *cfg.MaxRetries,
		"use_system_prompts", *cfg.UseSystemPrompts)

	switch cfg.Provider {
	case "gemini":
		provider, err = NewGeminiProvider(cfg, operationType, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}

	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed,
			"Failed to create AI provider", err)
	}

	s := NewServiceWithProvider(provider, operationType, prompts, logger)
	s.config = cfg
	return s, nil
}

// NewServiceWithProvider wraps an existing Generator
func NewServiceWithProvider(provider Generator, operationType string, prompts *config.PromptStore, logger *errors.Logger) *Service {
	if logger == nil {
		logger = errors.Discard()
	}
	return &Service{
		Provider:  provider,
		operation: operationType,
		prompts:   prompts,
		logger:    logger.With("ai_operation", operationType),
	}
}

// WithObserver attaches an observer told about every model call
func (s *Service) WithObserver(o Observer) *Service {
	s.observer = o
	return s
}

// Operation is the configured operation name (match, research or report)
func (s *Service) Operation() string { return s.operation }

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.Provider.GetModelInfo(ctx)
}

// CircuitBreakerStats reports breaker state when the provider has one
func (s *Service) CircuitBreakerStats() map[string]any {
	if p, ok := s.Provider.(interface{ GetCircuitBreakerStats() map[string]any }); ok {
		return p.GetCircuitBreakerStats()
	}
	return nil
}

func (s *Service) Close() error {
	return s.Provider.Close()
}

// generate renders the named prompt and asks the provider for a completion
func (s *Service) generate(ctx context.Context, promptName string, args ...any) (string, error) {
	p := promptFor(s.prompts, promptName)
	user := fmt.Sprintf(p.User, args...)

	start := time.Now()
	raw, usage, err := s.Provider.Generate(ctx, p.System, user)
	elapsed := time.Since(start)

	if s.observer != nil {
		s.observer.ObserveAI(ctx, promptName, elapsed, usage, err)
	}
	if err != nil {
		return "", err
	}

	s.logger.Debug("Model call completed",
		"prompt", promptName,
		"duration", elapsed,
		"response_length", len(raw))
	return raw, nil
}
