// Package server provides HTTP and WebSocket handlers
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/motionsnap/platform/internal/errors"
	"github.com/motionsnap/platform/internal/session"
	"github.com/motionsnap/platform/internal/trace"
)

// Message types.
type Message struct {
	Type string `json:"type"`
}

type StatusMessage struct {
	Type       string `json:"type"`
	Capturing  bool   `json:"capturing"`
	SavedCount int    `json:"saved_count"`
	SessionID  string `json:"session_id,omitempty"`
}

type SaveMessage struct {
	Type       string  `json:"type"`
	Count      int     `json:"count"`
	Seq        int64   `json:"seq"`
	Score      float64 `json:"score"`
	HashDist   int     `json:"hash_dist"`
	SaveFailed bool    `json:"save_failed"`
	CapturedAt int64   `json:"captured_at"`
}

type NotificationMessage struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// rateLimiter tracks message timestamps using a sliding window.
type rateLimiter struct {
	timestamps []time.Time
	mu         sync.Mutex
}

// allow checks if a message is allowed and records the timestamp if so.
func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-RateLimitWindow)

	// Prune old timestamps
	valid := r.timestamps[:0]
	for _, t := range r.timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.timestamps = valid

	if len(r.timestamps) >= RateLimitMessages {
		return false
	}

	r.timestamps = append(r.timestamps, now)
	return true
}

// Server exposes the capture toggle and live counter over HTTP/WebSocket.
// It also acts as the session's Notifier, fanning notifications out to
// connected clients.
type Server struct {
	ctrl       *session.Controller
	mu         sync.RWMutex
	conns      map[*websocket.Conn]struct{}
	rateLimits map[*websocket.Conn]*rateLimiter
}

// New creates a new server.
func New(ctrl *session.Controller) *Server {
	s := &Server{
		ctrl:       ctrl,
		conns:      make(map[*websocket.Conn]struct{}),
		rateLimits: make(map[*websocket.Conn]*rateLimiter),
	}

	go s.broadcastSaves()

	return s
}

// Notify implements session.Notifier by broadcasting to all clients.
func (s *Server) Notify(title, message string, severity session.Severity) {
	session.LogNotifier{}.Notify(title, message, severity)
	s.broadcast(NotificationMessage{
		Type:     "notification",
		Title:    title,
		Message:  message,
		Severity: string(severity),
	})
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("/ws", s.handleWebSocket)

	// REST API
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/session/start", s.handleStart)
	mux.HandleFunc("POST /api/session/stop", s.handleStop)

	// Apply middleware: trace -> CORS
	return corsMiddleware(trace.Middleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		trace.Logger(r.Context()).Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.rateLimits[conn] = &rateLimiter{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		delete(s.rateLimits, conn)
		s.mu.Unlock()
	}()

	baseCtx := r.Context()
	log := trace.Logger(baseCtx)
	log.Info("websocket connected", "remote", r.RemoteAddr)

	// Greet with current status
	_ = wsjson.Write(baseCtx, conn, s.status())

	for {
		var msg json.RawMessage
		if err := wsjson.Read(baseCtx, conn, &msg); err != nil {
			log.Debug("websocket read error", "error", err)
			return
		}

		s.mu.RLock()
		rl := s.rateLimits[conn]
		s.mu.RUnlock()

		if !rl.allow() {
			log.Warn("rate limit exceeded", "remote", r.RemoteAddr)
			_ = wsjson.Write(baseCtx, conn, ErrorMessage{
				Type:    "error",
				Message: "rate limit exceeded",
			})
			continue
		}

		var base Message
		if err := json.Unmarshal(msg, &base); err != nil {
			continue
		}

		switch base.Type {
		case "start":
			s.handleToggle(baseCtx, conn, true)
		case "stop":
			s.handleToggle(baseCtx, conn, false)
		case "status":
			_ = wsjson.Write(baseCtx, conn, s.status())
		}
	}
}

func (s *Server) handleToggle(ctx context.Context, conn *websocket.Conn, start bool) {
	name := "session_stop"
	if start {
		name = "session_start"
	}
	ctx, span := trace.StartSpan(ctx, name)
	defer span.End()

	var err error
	if start {
		_, err = s.ctrl.Start(ctx)
	} else {
		_, err = s.ctrl.Stop()
	}
	if err != nil {
		span.SetAttr("error", err.Error())
		trace.Logger(ctx).Warn("session toggle rejected", "start", start, "error", err)
		_ = wsjson.Write(ctx, conn, ErrorMessage{Type: "error", Message: err.Error()})
		return
	}

	s.broadcast(s.status())
}

// status snapshots the externally observable session state.
func (s *Server) status() StatusMessage {
	msg := StatusMessage{
		Type:       "status",
		Capturing:  s.ctrl.Capturing(),
		SavedCount: s.ctrl.SavedCount(),
	}
	if info := s.ctrl.Current(); msg.Capturing {
		msg.SessionID = info.ID
	}
	return msg
}

// broadcastSaves forwards accepted-frame events to all clients.
func (s *Server) broadcastSaves() {
	for evt := range s.ctrl.Events() {
		s.broadcast(SaveMessage{
			Type:       "save",
			Count:      evt.Count,
			Seq:        evt.Seq,
			Score:      evt.Score,
			HashDist:   evt.HashDist,
			SaveFailed: evt.SaveFailed,
			CapturedAt: evt.CapturedAt.UnixMilli(),
		})
		if evt.SaveFailed {
			s.Notify("Save failed", "A captured photo could not be written", session.SeverityError)
		}
	}
}

func (s *Server) broadcast(msg interface{}) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.conns {
		go func(c *websocket.Conn, m interface{}) {
			_ = wsjson.Write(context.Background(), c, m)
		}(conn, msg)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	info, err := s.ctrl.Start(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"session_id": info.ID,
		"started_at": info.StartedAt.Format(time.RFC3339),
	})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	saved := s.ctrl.SavedCount()
	info, err := s.ctrl.Stop()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": info.ID,
		"saved":      saved,
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	if errors.IsCode(err, errors.CodeSessionState) {
		code = http.StatusConflict
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
