package server

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"candidatelens/internal/analysis"
	appErrors "candidatelens/internal/errors"
)

const healthCheckTimeout = 10 * time.Second

// analyzeHandler registers a run and returns immediately; progress is
// observed by polling or over the websocket
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.Observability.Tracer("candidatelens.api").Start(r.Context(), "api.analyze")
	defer span.End()

	var req AnalyzeRequest
	if err := parseJSONRequest(r, &req); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "validation"))
		writeErrorResponse(w, "Invalid request body", appErrors.ErrCodeInvalidRequest, err.Error(), http.StatusBadRequest)
		return
	}

	mode := analysis.Mode("")
	if req.Mode != "" {
		parsed, err := analysis.ParseMode(req.Mode)
		if err != nil {
			span.RecordError(err)
			writeAppError(w, err)
			return
		}
		mode = parsed
	}

	id, err := s.Analyses.Start(ctx, analysis.StartRequest{
		Resume:  req.Resume,
		Job:     req.JobDescription,
		Weights: req.CustomWeights,
		Preset:  req.Preset,
		Mode:    mode,
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "validation"))
		writeAppError(w, err)
		return
	}

	span.SetAttributes(
		attribute.String("analysis.id", id),
		attribute.String("analysis.preset", req.Preset),
		attribute.Int("request.projects", len(req.Resume.Projects)),
		attribute.Int("request.experience", len(req.Resume.Experience)),
	)
	s.Logger.Info("Analysis started", "analysis_id", id, "preset", req.Preset, "mode", string(mode))

	resp := AnalysisResponse{AnalysisID: id, Status: StatusPending, Progress: []analysis.TaskRecord{}, CreatedAt: time.Now()}
	if snap, ok := s.Analyses.GetProgress(id); ok {
		resp.Progress = snap.Progress
		resp.CreatedAt = snap.CreatedAt
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) getAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	snap, ok := s.Analyses.GetProgress(id)
	if !ok {
		writeNotFound(w, id)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(snap))
}

func (s *Server) deleteAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.Analyses.GetProgress(id); !ok {
		writeNotFound(w, id)
		return
	}
	s.Analyses.Cleanup(id)
	if s.Hub != nil {
		s.Hub.Forget(id)
	}
	s.Logger.Info("Analysis deleted", "analysis_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// websocketHandler streams progress for a known run. The current state is
// sent first so a late subscriber does not wait for the next update.
func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	snap, ok := s.Analyses.GetProgress(id)
	if !ok {
		writeNotFound(w, id)
		return
	}
	if s.Hub == nil {
		writeErrorResponse(w, "Streaming unavailable", "", "progress streaming is not enabled", http.StatusServiceUnavailable)
		return
	}
	if err := s.Hub.Serve(w, r, id, &snap); err != nil {
		s.Logger.Debug("Websocket upgrade failed", "analysis_id", id, "error", err.Error())
	}
}

func (s *Server) presetsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"presets": s.Analyses.Presets(),
		"keys":    analysis.WeightKeys,
	})
}

// healthHandler reports the service and the availability of each AI model
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":    "healthy",
		"service":   "candidatelens",
		"version":   s.Version,
		"timestamp": time.Now().UTC(),
	}

	if len(s.Models) > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		models := make(map[string]any, len(s.Models))
		breakers := make(map[string]any, len(s.Models))
		healthy := true
		for name, svc := range s.Models {
			info := svc.GetModelInfo(ctx)
			models[name] = info
			if info == nil || !info.Available {
				healthy = false
			}
			if stats := svc.CircuitBreakerStats(); stats != nil {
				breakers[name] = stats
			}
		}
		response["ai_models"] = models
		response["circuit_breakers"] = breakers
		if !healthy {
			response["status"] = "degraded"
			writeJSON(w, http.StatusServiceUnavailable, response)
			return
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// statsHandler reports registry, subscriber and rate limiting statistics
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service":  "candidatelens",
		"version":  s.Version,
		"analyses": s.Analyses.Stats(),
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
	}

	if s.Hub != nil {
		response["websocket_subscribers"] = s.Hub.Subscribers()
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stdErrors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		_ = r.Body.Close()
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// the status line is already written, so an encode error has nowhere to go
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, title, code, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   title,
		Code:    code,
		Message: message,
	})
}

func writeNotFound(w http.ResponseWriter, id string) {
	writeErrorResponse(w, "Analysis not found", appErrors.ErrCodeAnalysisNotFound,
		fmt.Sprintf("no analysis with id %q", id), http.StatusNotFound)
}

// writeAppError maps an AppError type onto an HTTP status
func writeAppError(w http.ResponseWriter, err error) {
	var appErr *appErrors.AppError
	if !stdErrors.As(err, &appErr) {
		writeErrorResponse(w, "Internal error", "", err.Error(), http.StatusInternalServerError)
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Type {
	case appErrors.ErrorTypeValidation:
		status = http.StatusBadRequest
	case appErrors.ErrorTypeNotFound:
		status = http.StatusNotFound
	case appErrors.ErrorTypeTimeout:
		status = http.StatusGatewayTimeout
	case appErrors.ErrorTypeAI, appErrors.ErrorTypeNetwork:
		status = http.StatusBadGateway
	}
	writeErrorResponse(w, appErr.Message, appErr.Code, appErr.Error(), status)
}
