package live

import (
	"net/http"
	"slices"
	"time"

	"spacerental/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHandler accepts upgrades from allowedOrigins; "*" allows any origin.
func NewHandler(hub *Hub, allowedOrigins []string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowAll := len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*")

	return &Handler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// RegisterRoutes mounts the feed on a group that already runs JWTAuth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ws/bookings", h.HandleWebSocket)
}

// HandleWebSocket streams the caller's booking events until the client leaves.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	userID := middleware.UserID(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	cl := h.hub.register(userID, conn)
	h.logger.Info("live feed connected", zap.Int64("user_id", userID))
	defer func() {
		h.hub.unregister(userID, cl)
		h.logger.Info("live feed disconnected", zap.Int64("user_id", userID))
	}()

	h.readLoop(cl, userID)
}

// readLoop only answers pings; the feed is server to client.
func (h *Handler) readLoop(cl *client, userID int64) {
	for {
		var msg ClientMessage
		if err := cl.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("live read failed", zap.Int64("user_id", userID), zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case "ping":
			cl.enqueue(ServerMessage{Type: MessagePong})
		default:
			cl.enqueue(ServerMessage{Type: MessageError, ErrorCode: "UNKNOWN_TYPE", ErrorMessage: "Unknown message type: " + msg.Type})
		}
	}
}
