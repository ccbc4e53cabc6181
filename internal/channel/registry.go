package channel

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Message types pushed over an enrollment status channel.
const (
	TypeStatus    = "STATUS"
	TypeCompleted = "COMPLETED"
	TypeFailed    = "FAILED"
)

// ErrChannelTaken is returned when a session id already has a live
// connection registered. Policy is rejection, not replacement: the first
// observer keeps the channel.
var ErrChannelTaken = errors.New("a status channel is already registered for this session")

// Envelope is the wire format pushed to status channel clients.
type Envelope struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp float64     `json:"timestamp"`
}

// Conn is the slice of a websocket connection the registry needs. Satisfied
// by *websocket.Conn.
type Conn interface {
	WriteJSON(v interface{}) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Registry maps an enrollment session id to at most one live status
// connection. It is shared between the HTTP layer (register/unregister on
// connect/disconnect) and the enrollment workflows (send/unregister), so
// every mutation holds the lock.
type Registry struct {
	mu     sync.Mutex
	conns  map[string]Conn
	logger *zap.Logger
}

// NewRegistry constructs an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{conns: make(map[string]Conn), logger: logger}
}

// Register associates conn with sessionID. A second registration for a live
// session is rejected with ErrChannelTaken; the caller owns closing the
// rejected connection.
func (r *Registry) Register(sessionID string, conn Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.conns[sessionID]; exists {
		return ErrChannelTaken
	}
	r.conns[sessionID] = conn
	r.logger.Debug("status channel registered", zap.String("session_id", sessionID))
	return nil
}

// Send delivers env to the channel registered for sessionID, best-effort.
// Returns false when no channel is registered or the write fails; a failed
// write also tears the entry down, since the connection is unusable.
func (r *Registry) Send(sessionID string, env Envelope) bool {
	if env.Timestamp == 0 {
		env.Timestamp = float64(time.Now().UnixNano()) / float64(time.Second)
	}

	r.mu.Lock()
	conn, ok := r.conns[sessionID]
	r.mu.Unlock()
	if !ok {
		r.logger.Debug("no status channel for session", zap.String("session_id", sessionID))
		return false
	}

	if err := conn.WriteJSON(env); err != nil {
		r.logger.Warn("status channel send failed",
			zap.String("session_id", sessionID),
			zap.String("type", env.Type),
			zap.Error(err))
		r.Unregister(sessionID)
		return false
	}
	return true
}

// Unregister removes the entry for sessionID and closes its connection.
// Idempotent: callers race here from the disconnect handler, the workflow's
// terminal path and failed sends, and every failure mode while closing an
// already-dead socket is non-fatal.
func (r *Registry) Unregister(sessionID string) {
	r.mu.Lock()
	conn, ok := r.conns[sessionID]
	if ok {
		delete(r.conns, sessionID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	deadline := time.Now().Add(time.Second)
	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, closeMsg, deadline); err != nil {
		r.logger.Debug("close handshake skipped", zap.String("session_id", sessionID), zap.Error(err))
	}
	if err := conn.Close(); err != nil {
		r.logger.Debug("connection close error", zap.String("session_id", sessionID), zap.Error(err))
	}
	r.logger.Debug("status channel unregistered", zap.String("session_id", sessionID))
}

// Shutdown tears down every registered channel.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	for _, id := range ids {
		r.Unregister(id)
	}
}

// Len reports the number of live entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}
