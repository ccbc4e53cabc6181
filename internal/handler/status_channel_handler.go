package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/afit-lms/edge-server/internal/channel"
)

// StatusChannelHandler upgrades status channel connections and binds them
// to their enrollment session in the registry.
type StatusChannelHandler struct {
	registry *channel.Registry
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewStatusChannelHandler constructs StatusChannelHandler.
func NewStatusChannelHandler(registry *channel.Registry, logger *zap.Logger) *StatusChannelHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusChannelHandler{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin policy is enforced by the CORS middleware in
			// front of the router; the upgrader accepts all origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Attach godoc
// @Summary Attach to an enrollment session's status channel
// @Tags Enrollment
// @Param session_id path string true "Enrollment session ID"
// @Router /ws/enrollment_status/{session_id} [get]
func (h *StatusChannelHandler) Attach(c *gin.Context) {
	sessionID := c.Param("session_id")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger.Warn("websocket upgrade failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return
	}

	if err := h.registry.Register(sessionID, conn); err != nil {
		if errors.Is(err, channel.ErrChannelTaken) {
			deadline := time.Now().Add(time.Second)
			msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "session already has an observer")
			_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
		}
		_ = conn.Close()
		return
	}
	h.logger.Info("status channel connected", zap.String("session_id", sessionID))

	// Server-push only: inbound frames are drained and discarded. The
	// read loop exists to notice disconnects.
	defer h.registry.Unregister(sessionID)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.logger.Debug("status channel disconnected",
				zap.String("session_id", sessionID),
				zap.Error(err))
			return
		}
	}
}
