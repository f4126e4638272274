package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/flaviabeo/caikit/internal/usecase"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development; restrict in production
	},
}

// WebSocketHandler pushes training status snapshots to clients that prefer
// a stream over polling.
type WebSocketHandler struct {
	statusUC *usecase.TrainingStatusUsecase
	logger   *zap.Logger
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(statusUC *usecase.TrainingStatusUsecase, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		statusUC: statusUC,
		logger:   logger,
	}
}

// Watch handles GET /api/v1/trainings/:id/watch (WebSocket upgrade)
func (h *WebSocketHandler) Watch(c *gin.Context) {
	id := c.Param("id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Debug("WebSocket connection opened", zap.String("training_id", id))

	// Send the current snapshot right away, then on every tick.
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		t, err := h.statusUC.Execute(c.Request.Context(), id)
		if err != nil {
			_ = conn.WriteJSON(gin.H{"error": err.Error()})
			return
		}

		if err := conn.WriteJSON(t); err != nil {
			h.logger.Debug("WebSocket write failed (client disconnected)", zap.Error(err))
			return
		}

		// Stop streaming once the training reaches a terminal state.
		if t.Status.IsTerminal() {
			h.logger.Debug("Training reached terminal state, closing WebSocket", zap.String("training_id", id))
			return
		}

		select {
		case <-ticker.C:
		case <-c.Request.Context().Done():
			return
		}
	}
}
