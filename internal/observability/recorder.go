package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"

	"candidatelens/internal/ai"
	"candidatelens/internal/analysis"
	"candidatelens/internal/config"
	"candidatelens/internal/types"
)

// Recorder feeds model calls, analysis runs and server events into Metrics,
// honouring the customMetrics switches
type Recorder struct {
	metrics *Metrics
	custom  config.CustomMetricsConfig
}

var (
	_ analysis.Recorder = (*Recorder)(nil)
	_ ai.Observer       = (*Recorder)(nil)
)

// NewRecorder returns a recorder backed by the manager's metrics. A disabled
// manager yields a recorder that drops everything.
func (om *ObservabilityManager) NewRecorder() *Recorder {
	r := &Recorder{metrics: om.GetMetrics()}
	if om.fullConfig != nil {
		r.custom = om.fullConfig.Observability.CustomMetrics
	} else {
		r.custom = config.CustomMetricsConfig{
			AIOperations:    config.AIOperationsMetricsConfig{Enabled: true, TrackDuration: true, TrackTokenUsage: true},
			BusinessMetrics: config.BusinessMetricsConfig{Enabled: true, TrackSubtasks: true, TrackFinalScores: true},
			Infrastructure:  config.InfrastructureMetricsConfig{Enabled: true, TrackRateLimits: true, TrackWebSockets: true},
		}
	}
	return r
}

// ObserveAI records one model call
func (r *Recorder) ObserveAI(ctx context.Context, operation string, elapsed time.Duration, usage *ai.TokenUsage, err error) {
	span := oteltrace.SpanFromContext(ctx)
	if usage != nil {
		// always on the span for debugging
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}

	cfg := r.custom.AIOperations
	if !cfg.Enabled || r.metrics.AIRequestCount == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	)
	r.metrics.AIRequestCount.Add(ctx, 1, attrs)
	if err != nil {
		r.metrics.AIErrorCount.Add(ctx, 1, attrs)
	}
	if cfg.TrackDuration {
		r.metrics.AIProcessingTime.Record(ctx, elapsed.Seconds(), attrs)
	}
	if cfg.TrackTokenUsage && usage != nil {
		r.recordTokens(ctx, operation, usage)
	}
}

func (r *Recorder) recordTokens(ctx context.Context, operation string, usage *ai.TokenUsage) {
	for _, tt := range []struct {
		kind  string
		value int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	} {
		r.metrics.AITokenUsage.Record(ctx, tt.value, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("token_type", tt.kind),
		))
	}
}

func (r *Recorder) RecordRunStarted(ctx context.Context, mode analysis.Mode) {
	if !r.custom.BusinessMetrics.Enabled || r.metrics.RunsStarted == nil {
		return
	}
	r.metrics.RunsStarted.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", string(mode))))
}

func (r *Recorder) RecordRun(ctx context.Context, mode analysis.Mode, final *types.FinalResult, elapsed time.Duration) {
	cfg := r.custom.BusinessMetrics
	if !cfg.Enabled || r.metrics.RunsCompleted == nil {
		return
	}

	recommendation := analysis.RecommendIncomplete
	if final != nil {
		recommendation = final.Recommendation
	}
	attrs := metric.WithAttributes(
		attribute.String("mode", string(mode)),
		attribute.String("recommendation", recommendation),
	)
	r.metrics.RunsCompleted.Add(ctx, 1, attrs)
	r.metrics.RunDuration.Record(ctx, elapsed.Seconds(), attrs)
	if cfg.TrackFinalScores && final != nil {
		r.metrics.FinalScores.Record(ctx, final.OverallScore, attrs)
	}
}

func (r *Recorder) RecordSubtask(ctx context.Context, taskID string, status analysis.TaskStatus, elapsed time.Duration) {
	cfg := r.custom.BusinessMetrics
	if !cfg.Enabled || !cfg.TrackSubtasks || r.metrics.SubtaskOutcomes == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("task", taskID),
		attribute.String("status", string(status)),
	)
	r.metrics.SubtaskOutcomes.Add(ctx, 1, attrs)
	r.metrics.SubtaskDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordRateLimitHit counts a rejected request
func (r *Recorder) RecordRateLimitHit(ctx context.Context, path string) {
	cfg := r.custom.Infrastructure
	if !cfg.Enabled || !cfg.TrackRateLimits || r.metrics.RateLimitHits == nil {
		return
	}
	r.metrics.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("path", path)))
}

// WebSocketOpened and WebSocketClosed track live progress subscribers
func (r *Recorder) WebSocketOpened(ctx context.Context) { r.addWebSocket(ctx, 1) }

func (r *Recorder) WebSocketClosed(ctx context.Context) { r.addWebSocket(ctx, -1) }

func (r *Recorder) addWebSocket(ctx context.Context, delta int64) {
	cfg := r.custom.Infrastructure
	if !cfg.Enabled || !cfg.TrackWebSockets || r.metrics.WebSocketConnections == nil {
		return
	}
	r.metrics.WebSocketConnections.Add(ctx, delta)
}

// WebSocketMessage counts one message of the given type pushed to a subscriber
func (r *Recorder) WebSocketMessage(ctx context.Context, messageType string) {
	cfg := r.custom.Infrastructure
	if !cfg.Enabled || !cfg.TrackWebSockets || r.metrics.WebSocketMessages == nil {
		return
	}
	r.metrics.WebSocketMessages.Add(ctx, 1, metric.WithAttributes(attribute.String("type", messageType)))
}
