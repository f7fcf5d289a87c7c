package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candidatelens/internal/analysis"
	"candidatelens/internal/config"
	"candidatelens/internal/errors"
	"candidatelens/internal/types"
)

type fakeAnalyses struct {
	mu       sync.Mutex
	snaps    map[string]analysis.Snapshot
	started  []analysis.StartRequest
	startErr error
}

func newFakeAnalyses() *fakeAnalyses {
	return &fakeAnalyses{snaps: map[string]analysis.Snapshot{}}
}

func (f *fakeAnalyses) Start(_ context.Context, req analysis.StartRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return "", f.startErr
	}
	f.started = append(f.started, req)
	id := "run-1"
	f.snaps[id] = pendingSnapshot(id)
	return id, nil
}

func (f *fakeAnalyses) GetProgress(id string) (analysis.Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.snaps[id]
	return s, ok
}

func (f *fakeAnalyses) Cleanup(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.snaps, id)
}

func (f *fakeAnalyses) Stats() analysis.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return analysis.Stats{Total: len(f.snaps)}
}

func (f *fakeAnalyses) Presets() map[string]map[string]float64 {
	return map[string]map[string]float64{"default": analysis.DefaultWeights()}
}

func (f *fakeAnalyses) put(s analysis.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snaps[s.AnalysisID] = s
}

func pendingSnapshot(id string) analysis.Snapshot {
	progress := make([]analysis.TaskRecord, 0, len(analysis.DefaultTasks))
	for _, t := range analysis.DefaultTasks {
		progress = append(progress, analysis.TaskRecord{TaskID: t.ID, TaskName: t.Name, Status: analysis.StatusPending})
	}
	return analysis.Snapshot{AnalysisID: id, Status: analysis.RunCreated, Progress: progress, CreatedAt: time.Now()}
}

func newTestServer(t *testing.T, fa *fakeAnalyses, rl *config.RateLimitConfig) (*Server, *Hub) {
	t.Helper()
	hub := NewHub(config.WebSocketConfig{SendBuffer: 8}, nil, errors.Discard())
	t.Cleanup(hub.Close)
	srv := NewServer(nil, ServerConfig{Version: "test", MaxRequestSize: 1 << 20, RateLimit: rl},
		Deps{Analyses: fa, Hub: hub}, errors.Discard())
	t.Cleanup(srv.cleanupRateLimiter)
	return srv, hub
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestAnalyzeHandler(t *testing.T) {
	fa := newFakeAnalyses()
	srv, _ := newTestServer(t, fa, nil)

	body := `{
		"resume": {"name": "Ada", "profiles": {"github": "https://github.com/ada"}},
		"job_description": {"title": "Backend Engineer", "company": "Acme"},
		"custom_weights": {"github_analysis": 0.5},
		"preset": "open_source",
		"mode": "graph"
	}`
	rec := do(t, srv.Handler(), http.MethodPost, "/api/analyze", body)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	resp := decode[AnalysisResponse](t, rec)
	assert.Equal(t, "run-1", resp.AnalysisID)
	assert.Equal(t, StatusPending, resp.Status)
	assert.Len(t, resp.Progress, len(analysis.DefaultTasks))

	require.Len(t, fa.started, 1)
	got := fa.started[0]
	assert.Equal(t, "Ada", got.Resume.Name)
	assert.Equal(t, "Acme", got.Job.Company)
	assert.Equal(t, 0.5, got.Weights[analysis.WeightGitHub])
	assert.Equal(t, "open_source", got.Preset)
	assert.Equal(t, analysis.ModeGraph, got.Mode)
}

func TestAnalyzeHandlerRejects(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		startErr    error
		wantCode    string
	}{
		{name: "wrong content type", contentType: "text/plain", body: `{}`, wantCode: errors.ErrCodeInvalidRequest},
		{name: "malformed json", contentType: "application/json", body: `{`, wantCode: errors.ErrCodeInvalidRequest},
		{name: "unknown mode", contentType: "application/json", body: `{"mode":"parallel"}`, wantCode: errors.ErrCodeInvalidRequest},
		{
			name:        "orchestrator validation",
			contentType: "application/json",
			body:        `{"preset":"nope"}`,
			startErr:    errors.NewValidationError(errors.ErrCodeUnknownPreset, "unknown preset", nil),
			wantCode:    errors.ErrCodeUnknownPreset,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fa := newFakeAnalyses()
			fa.startErr = tt.startErr
			srv, _ := newTestServer(t, fa, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantCode, decode[ErrorResponse](t, rec).Code)
			assert.Empty(t, fa.started)
		})
	}
}

func TestGetAnalysis(t *testing.T) {
	fa := newFakeAnalyses()
	srv, _ := newTestServer(t, fa, nil)
	h := srv.Handler()

	t.Run("unknown id", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/analysis/missing", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, errors.ErrCodeAnalysisNotFound, decode[ErrorResponse](t, rec).Code)
	})

	t.Run("processing until final result is set", func(t *testing.T) {
		snap := pendingSnapshot("a")
		snap.Status = analysis.RunCompleted
		snap.Errors = []analysis.TaskError{{TaskName: "Twitter Analysis", Kind: analysis.KindTimedOut}}
		fa.put(snap)

		resp := decode[AnalysisResponse](t, do(t, h, http.MethodGet, "/api/analysis/a", ""))
		assert.Equal(t, StatusProcessing, resp.Status)
		assert.Nil(t, resp.Result)
		assert.Equal(t, "Twitter Analysis analysis timed out", resp.ErrorMessage)
	})

	t.Run("completed", func(t *testing.T) {
		snap := pendingSnapshot("b")
		snap.FinalResult = &types.FinalResult{OverallScore: 72.5, Recommendation: analysis.RecommendHire}
		fa.put(snap)

		resp := decode[AnalysisResponse](t, do(t, h, http.MethodGet, "/api/analysis/b", ""))
		assert.Equal(t, StatusCompleted, resp.Status)
		require.NotNil(t, resp.Result)
		assert.Equal(t, 72.5, resp.Result.OverallScore)
	})
}

func TestDeleteAnalysis(t *testing.T) {
	fa := newFakeAnalyses()
	fa.put(pendingSnapshot("gone"))
	srv, _ := newTestServer(t, fa, nil)
	h := srv.Handler()

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/api/analysis/gone", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/analysis/gone", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/analysis/gone", "").Code)
}

func TestPresetsStatsHealth(t *testing.T) {
	fa := newFakeAnalyses()
	fa.put(pendingSnapshot("x"))
	srv, _ := newTestServer(t, fa, nil)
	h := srv.Handler()

	presets := decode[map[string]any](t, do(t, h, http.MethodGet, "/api/presets", ""))
	assert.Contains(t, presets["presets"], "default")

	stats := decode[map[string]any](t, do(t, h, http.MethodGet, "/api/stats", ""))
	assert.Equal(t, float64(1), stats["analyses"].(map[string]any)["total"])

	health := do(t, h, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, health.Code)
	assert.Equal(t, "healthy", decode[map[string]any](t, health)["status"])

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodPost, "/api/health", `{}`).Code)
}

func TestRateLimit(t *testing.T) {
	fa := newFakeAnalyses()
	fa.put(pendingSnapshot("r"))
	srv, _ := newTestServer(t, fa, &config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstCapacity: 1, ByIP: true})
	h := srv.Handler()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/analysis/r", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodGet, "/api/analysis/r", "").Code)
	// health is not rate limited
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/health", "").Code)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded for", map[string]string{"X-Forwarded-For": "bogus, 10.0.0.1, 10.0.0.2"}, "1.2.3.4:5", "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.9"}, "1.2.3.4:5", "10.0.0.9"},
		{"remote addr", nil, "1.2.3.4:5", "1.2.3.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(r))
		})
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketStreamsProgress(t *testing.T) {
	fa := newFakeAnalyses()
	snap := pendingSnapshot("live")
	snap.Notes = []analysis.Note{{TaskID: analysis.TaskResumeMatch, Text: "already seen"}}
	fa.put(snap)
	srv, hub := newTestServer(t, fa, nil)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	initial := readMessage(t, conn)
	assert.Equal(t, MessageProgress, initial["type"])
	assert.Equal(t, StatusProcessing, initial["status"])

	require.Eventually(t, func() bool { return hub.Subscribers()["live"] == 1 }, time.Second, 10*time.Millisecond)

	snap.Notes = append(snap.Notes, analysis.Note{TaskID: analysis.TaskGitHub, Text: "Fetched 12 repositories"})
	snap.FinalResult = &types.FinalResult{OverallScore: 64, Recommendation: analysis.RecommendMaybe}
	require.NoError(t, hub.Publish(context.Background(), snap))

	thinking := readMessage(t, conn)
	assert.Equal(t, MessageThinking, thinking["type"])
	assert.Equal(t, analysis.TaskGitHub, thinking["task_id"])
	assert.Equal(t, "Fetched 12 repositories", thinking["content"])

	progress := readMessage(t, conn)
	assert.Equal(t, MessageProgress, progress["type"])
	assert.Equal(t, StatusCompleted, progress["status"])
	assert.NotNil(t, progress["final_analysis"])
}

func TestWebSocketUnknownAnalysis(t *testing.T) {
	srv, _ := newTestServer(t, newFakeAnalyses(), nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/nope"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHubForgetDisconnects(t *testing.T) {
	fa := newFakeAnalyses()
	fa.put(pendingSnapshot("bye"))
	srv, hub := newTestServer(t, fa, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/bye", nil)
	require.NoError(t, err)
	defer conn.Close()
	readMessage(t, conn)

	require.Eventually(t, func() bool { return hub.Subscribers()["bye"] == 1 }, time.Second, 10*time.Millisecond)
	hub.Forget("bye")
	assert.Empty(t, hub.Subscribers())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}
