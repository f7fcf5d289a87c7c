package server

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"candidatelens/internal/analysis"
	"candidatelens/internal/config"
	"candidatelens/internal/errors"
	"candidatelens/internal/types"
)

// Message types pushed to progress subscribers
const (
	MessageProgress = "progress_update"
	MessageThinking = "thinking_update"
)

// ProgressMessage is the full state of a run as seen by a subscriber
type ProgressMessage struct {
	Type            string                `json:"type"`
	AnalysisID      string                `json:"analysis_id"`
	Status          string                `json:"status"`
	OverallProgress float64               `json:"overall_progress"`
	Progress        []analysis.TaskRecord `json:"progress"`
	Results         analysis.Results      `json:"thinking_data"`
	FinalResult     *types.FinalResult    `json:"final_analysis,omitempty"`
	Errors          []string              `json:"errors,omitempty"`
}

// ThinkingMessage carries one note written by a subtask
type ThinkingMessage struct {
	Type       string    `json:"type"`
	AnalysisID string    `json:"analysis_id"`
	TaskID     string    `json:"task_id"`
	Content    string    `json:"content"`
	At         time.Time `json:"at"`
}

// HubObserver is told about subscriber activity
type HubObserver interface {
	WebSocketOpened(ctx context.Context)
	WebSocketClosed(ctx context.Context)
	WebSocketMessage(ctx context.Context, messageType string)
}

// Hub fans progress snapshots out to websocket subscribers of each run.
// It implements analysis.Publisher.
type Hub struct {
	cfg      config.WebSocketConfig
	upgrader websocket.Upgrader
	observer HubObserver
	logger   *errors.Logger

	mu     sync.Mutex
	topics map[string]*topic
	closed bool
}

type topic struct {
	clients   map[*client]struct{}
	notesSent int
}

type client struct {
	conn       *websocket.Conn
	analysisID string
	send       chan []byte
	closed     bool // guarded by Hub.mu
}

var _ analysis.Publisher = (*Hub)(nil)

func NewHub(cfg config.WebSocketConfig, observer HubObserver, logger *errors.Logger) *Hub {
	if logger == nil {
		logger = errors.Discard()
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 16
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = 60 * time.Second
	}
	if cfg.PingInterval <= 0 || cfg.PingInterval >= cfg.PongWait {
		cfg.PingInterval = cfg.PongWait * 9 / 10
	}

	h := &Hub{
		cfg:      cfg,
		observer: observer,
		logger:   logger,
		topics:   make(map[string]*topic),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(h.cfg.AllowedOrigins, origin)
}

// Serve upgrades the request and subscribes the connection to analysisID.
// initial, when non-nil, is sent before any later update.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, analysisID string, initial *analysis.Snapshot) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already replied
		return err
	}

	c := &client{conn: conn, analysisID: analysisID, send: make(chan []byte, h.cfg.SendBuffer)}
	notesSeen := 0
	if initial != nil {
		notesSeen = len(initial.Notes)
	}
	if !h.subscribe(c, notesSeen) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(h.cfg.WriteTimeout))
		return conn.Close()
	}
	if h.observer != nil {
		h.observer.WebSocketOpened(r.Context())
	}
	h.logger.Debug("Progress subscriber connected", "analysis_id", analysisID, "remote", r.RemoteAddr)

	if initial != nil {
		if payload, err := json.Marshal(progressMessage(*initial)); err == nil {
			h.enqueue(c, payload, MessageProgress)
		}
	}

	go h.writePump(c)
	go h.readPump(c)
	return nil
}

// subscribe registers c. A new topic starts after the notes the subscriber
// has already seen in its initial snapshot.
func (h *Hub) subscribe(c *client, notesSeen int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	t := h.topics[c.analysisID]
	if t == nil {
		t = &topic{clients: make(map[*client]struct{}), notesSent: notesSeen}
		h.topics[c.analysisID] = t
	}
	t.clients[c] = struct{}{}
	return true
}

// unsubscribe removes c and closes its send channel exactly once
func (h *Hub) unsubscribe(c *client) {
	h.mu.Lock()
	dropped := h.dropLocked(c)
	h.mu.Unlock()
	if dropped {
		h.afterDrop(c)
	}
}

func (h *Hub) dropLocked(c *client) bool {
	if c.closed {
		return false
	}
	c.closed = true
	if t := h.topics[c.analysisID]; t != nil {
		delete(t.clients, c)
		if len(t.clients) == 0 {
			delete(h.topics, c.analysisID)
		}
	}
	close(c.send)
	return true
}

func (h *Hub) afterDrop(c *client) {
	if h.observer != nil {
		h.observer.WebSocketClosed(context.Background())
	}
	h.logger.Debug("Progress subscriber disconnected", "analysis_id", c.analysisID)
}

// Publish sends a progress update and any notes not yet sent for the run
func (h *Hub) Publish(ctx context.Context, snap analysis.Snapshot) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	t := h.topics[snap.AnalysisID]
	if t == nil {
		h.mu.Unlock()
		return nil
	}
	var fresh []analysis.Note
	if t.notesSent < len(snap.Notes) {
		fresh = snap.Notes[t.notesSent:]
		t.notesSent = len(snap.Notes)
	}
	clients := make([]*client, 0, len(t.clients))
	for c := range t.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	payloads := make([][]byte, 0, len(fresh)+1)
	kinds := make([]string, 0, len(fresh)+1)
	for _, n := range fresh {
		b, err := json.Marshal(ThinkingMessage{
			Type:       MessageThinking,
			AnalysisID: snap.AnalysisID,
			TaskID:     n.TaskID,
			Content:    n.Text,
			At:         n.At,
		})
		if err != nil {
			return err
		}
		payloads = append(payloads, b)
		kinds = append(kinds, MessageThinking)
	}
	b, err := json.Marshal(progressMessage(snap))
	if err != nil {
		return err
	}
	payloads = append(payloads, b)
	kinds = append(kinds, MessageProgress)

	for _, c := range clients {
		for i, p := range payloads {
			if !h.enqueue(c, p, kinds[i]) {
				break
			}
		}
	}
	return nil
}

// enqueue never blocks: a subscriber whose buffer is full is dropped
func (h *Hub) enqueue(c *client, payload []byte, kind string) bool {
	h.mu.Lock()
	if c.closed {
		h.mu.Unlock()
		return false
	}
	select {
	case c.send <- payload:
		h.mu.Unlock()
		if h.observer != nil {
			h.observer.WebSocketMessage(context.Background(), kind)
		}
		return true
	default:
		h.dropLocked(c)
		h.mu.Unlock()
		h.logger.Warn("Progress subscriber too slow, disconnecting", "analysis_id", c.analysisID)
		h.afterDrop(c)
		return false
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.unsubscribe(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unsubscribe(c)
				return
			}
		}
	}
}

// readPump discards client frames and notices disconnects
func (h *Hub) readPump(c *client) {
	defer h.unsubscribe(c)

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("Progress subscriber read error", "analysis_id", c.analysisID, "error", err.Error())
			}
			return
		}
	}
}

// Forget disconnects every subscriber of a run and drops its bookkeeping
func (h *Hub) Forget(analysisID string) {
	h.mu.Lock()
	t := h.topics[analysisID]
	delete(h.topics, analysisID)
	h.mu.Unlock()
	if t == nil {
		return
	}
	for _, c := range h.clientsOf(t) {
		h.unsubscribe(c)
	}
}

// Subscribers returns the number of open connections per run
func (h *Hub) Subscribers() map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]int, len(h.topics))
	for id, t := range h.topics {
		if n := len(t.clients); n > 0 {
			out[id] = n
		}
	}
	return out
}

// Close disconnects everyone and rejects new subscribers
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	topics := h.topics
	h.topics = make(map[string]*topic)
	h.mu.Unlock()

	for _, t := range topics {
		for _, c := range h.clientsOf(t) {
			h.unsubscribe(c)
		}
	}
}

func (h *Hub) clientsOf(t *topic) []*client {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*client, 0, len(t.clients))
	for c := range t.clients {
		out = append(out, c)
	}
	return out
}

func progressMessage(snap analysis.Snapshot) ProgressMessage {
	return ProgressMessage{
		Type:            MessageProgress,
		AnalysisID:      snap.AnalysisID,
		Status:          responseStatus(snap),
		OverallProgress: snap.OverallProgress(),
		Progress:        snap.Progress,
		Results:         snap.Results,
		FinalResult:     snap.FinalResult,
		Errors:          snap.ErrorMessages(),
	}
}
