package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"candidatelens/internal/ai"
	"candidatelens/internal/analysis"
	"candidatelens/internal/config"
	"candidatelens/internal/types"
)

func newTestManager(t *testing.T, custom config.CustomMetricsConfig) (*ObservabilityManager, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	cfg := &config.Config{}
	cfg.Observability.CustomMetrics = custom
	om := &ObservabilityManager{
		config:        ObservabilityConfig{ServiceName: "candidatelens-test", Enabled: true},
		fullConfig:    cfg,
		meterProvider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
	}
	require.NoError(t, om.initCustomMetrics())
	return om, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected an int64 sum, got %T", data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func allOn() config.CustomMetricsConfig {
	return config.CustomMetricsConfig{
		AIOperations:    config.AIOperationsMetricsConfig{Enabled: true, TrackDuration: true, TrackTokenUsage: true},
		BusinessMetrics: config.BusinessMetricsConfig{Enabled: true, TrackSubtasks: true, TrackFinalScores: true},
		Infrastructure:  config.InfrastructureMetricsConfig{Enabled: true, TrackRateLimits: true, TrackWebSockets: true},
	}
}

func TestRecorderAIOperations(t *testing.T) {
	om, reader := newTestManager(t, allOn())
	rec := om.NewRecorder()
	ctx := context.Background()

	rec.ObserveAI(ctx, "resumeMatch", time.Second, &ai.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}, nil)
	rec.ObserveAI(ctx, "resumeMatch", time.Second, nil, errors.New("boom"))

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, data["candidatelens_ai_requests_total"]))
	assert.Equal(t, int64(1), sumOf(t, data["candidatelens_ai_errors_total"]))
	assert.Contains(t, data, "candidatelens_ai_processing_duration_seconds")
	assert.Contains(t, data, "candidatelens_ai_token_usage_total")
}

func TestRecorderRuns(t *testing.T) {
	om, reader := newTestManager(t, allOn())
	rec := om.NewRecorder()
	ctx := context.Background()

	rec.RecordRunStarted(ctx, analysis.ModeGraph)
	rec.RecordSubtask(ctx, analysis.TaskGitHub, analysis.StatusCompleted, 2*time.Second)
	rec.RecordSubtask(ctx, analysis.TaskTwitter, analysis.StatusFailed, time.Second)
	rec.RecordRun(ctx, analysis.ModeGraph, &types.FinalResult{OverallScore: 72, Recommendation: analysis.RecommendHire}, 5*time.Second)

	data := collect(t, reader)
	assert.Equal(t, int64(1), sumOf(t, data["candidatelens_analyses_started_total"]))
	assert.Equal(t, int64(1), sumOf(t, data["candidatelens_analyses_completed_total"]))
	assert.Equal(t, int64(2), sumOf(t, data["candidatelens_subtasks_total"]))

	hist, ok := data["candidatelens_final_score"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, 72.0, hist.DataPoints[0].Sum)
}

func TestRecorderHonoursSwitches(t *testing.T) {
	custom := allOn()
	custom.AIOperations.Enabled = false
	custom.BusinessMetrics.TrackSubtasks = false
	custom.Infrastructure.TrackWebSockets = false
	om, reader := newTestManager(t, custom)
	rec := om.NewRecorder()
	ctx := context.Background()

	rec.ObserveAI(ctx, "resumeMatch", time.Second, nil, nil)
	rec.RecordSubtask(ctx, analysis.TaskGitHub, analysis.StatusCompleted, time.Second)
	rec.WebSocketOpened(ctx)
	rec.RecordRateLimitHit(ctx, "/api/analyze")

	data := collect(t, reader)
	assert.NotContains(t, data, "candidatelens_ai_requests_total")
	assert.NotContains(t, data, "candidatelens_subtasks_total")
	assert.NotContains(t, data, "candidatelens_websocket_connections")
	assert.Equal(t, int64(1), sumOf(t, data["candidatelens_rate_limit_hits_total"]))
}

func TestDisabledManagerRecorderIsSafe(t *testing.T) {
	om, err := NewObservabilityManager(ObservabilityConfig{Enabled: false}, nil)
	require.NoError(t, err)
	rec := om.NewRecorder()
	ctx := context.Background()

	assert.NotPanics(t, func() {
		rec.ObserveAI(ctx, "finalReport", time.Second, &ai.TokenUsage{}, nil)
		rec.RecordRunStarted(ctx, analysis.ModeSequential)
		rec.RecordRun(ctx, analysis.ModeSequential, nil, time.Second)
		rec.RecordSubtask(ctx, analysis.TaskResumeMatch, analysis.StatusCompleted, time.Second)
		rec.WebSocketOpened(ctx)
		rec.WebSocketMessage(ctx, "progress")
		rec.WebSocketClosed(ctx)
		rec.RecordRateLimitHit(ctx, "/")
	})
	assert.NoError(t, om.Shutdown(ctx))
}
