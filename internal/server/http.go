package server

import (
	"context"
	"strings"
	"time"

	"candidatelens/internal/ai"
	"candidatelens/internal/analysis"
	"candidatelens/internal/config"
	appErrors "candidatelens/internal/errors"
	"candidatelens/internal/observability"
	"candidatelens/internal/types"
)

// AnalyzeRequest is the body of POST /api/analyze
type AnalyzeRequest struct {
	Resume         types.Resume         `json:"resume"`
	JobDescription types.JobDescription `json:"job_description"`
	CustomWeights  map[string]float64   `json:"custom_weights,omitempty"`
	Preset         string               `json:"preset,omitempty"`
	Mode           string               `json:"mode,omitempty"`
}

// Response statuses
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)

// AnalysisResponse describes a run to API clients
type AnalysisResponse struct {
	AnalysisID      string                `json:"analysis_id"`
	Status          string                `json:"status"`
	OverallProgress float64               `json:"overall_progress"`
	Progress        []analysis.TaskRecord `json:"progress"`
	Result          *types.FinalResult    `json:"result,omitempty"`
	Thinking        []analysis.Note       `json:"thinking,omitempty"`
	ErrorMessage    string                `json:"error_message,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at,omitzero"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Analyses is the part of the orchestrator the API needs
type Analyses interface {
	Start(ctx context.Context, req analysis.StartRequest) (string, error)
	GetProgress(id string) (analysis.Snapshot, bool)
	Cleanup(id string)
	Stats() analysis.Stats
	Presets() map[string]map[string]float64
}

// ModelService is an AI service whose model can be probed by /api/health
type ModelService interface {
	GetModelInfo(ctx context.Context) *ai.ModelInfo
	CircuitBreakerStats() map[string]any
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	Analyses      Analyses
	Hub           *Hub
	Models        map[string]ModelService
	Observability *observability.ObservabilityManager
	Recorder      *observability.Recorder

	Logger *appErrors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// Deps are the collaborators a Server routes requests to
type Deps struct {
	Analyses      Analyses
	Hub           *Hub
	Models        map[string]ModelService
	Observability *observability.ObservabilityManager
	Recorder      *observability.Recorder
}

// ServerConfigFrom copies the server section of the application config
func ServerConfigFrom(cfg *config.Config, version string) ServerConfig {
	rl := cfg.Server.RateLimit
	return ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.Server.MaxRequestSize,
		RateLimit:      &rl,
	}
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, deps Deps, logger *appErrors.Logger) *Server {
	if logger == nil {
		logger = appErrors.Discard()
	}
	if deps.Observability == nil {
		deps.Observability, _ = observability.NewObservabilityManager(observability.ObservabilityConfig{}, appCfg)
	}
	if deps.Recorder == nil {
		deps.Recorder = deps.Observability.NewRecorder()
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Analyses:       deps.Analyses,
		Hub:            deps.Hub,
		Models:         deps.Models,
		Observability:  deps.Observability,
		Recorder:       deps.Recorder,
		Logger:         logger,
	}
}

// responseStatus is completed exactly when a final result exists
func responseStatus(snap analysis.Snapshot) string {
	if snap.Completed() {
		return StatusCompleted
	}
	return StatusProcessing
}

func toResponse(snap analysis.Snapshot) AnalysisResponse {
	resp := AnalysisResponse{
		AnalysisID:      snap.AnalysisID,
		Status:          responseStatus(snap),
		OverallProgress: snap.OverallProgress(),
		Progress:        snap.Progress,
		Result:          snap.FinalResult,
		Thinking:        snap.Notes,
		CreatedAt:       snap.CreatedAt,
		UpdatedAt:       snap.UpdatedAt,
	}
	if msgs := snap.ErrorMessages(); len(msgs) > 0 {
		resp.ErrorMessage = strings.Join(msgs, "; ")
	}
	return resp
}

