package live

import (
	"context"
	"sync"
	"time"

	"spacerental/internal/events"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 32
)

// client owns one feed connection. Only writePump writes to conn.
type client struct {
	conn      *websocket.Conn
	send      chan any
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn: conn,
		send: make(chan any, sendBuffer),
		done: make(chan struct{}),
	}
}

// enqueue never blocks; it reports false when the client is gone or too slow.
func (c *client) enqueue(message any) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// Hub keeps the live booking feed connection of each online user.
type Hub struct {
	connections map[int64]*client
	mutex       sync.RWMutex
	logger      *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		connections: make(map[int64]*client),
		logger:      logger,
	}
}

// register replaces any previous connection of the user and starts its writer.
func (h *Hub) register(userID int64, conn *websocket.Conn) *client {
	c := newClient(conn)

	h.mutex.Lock()
	if old, exists := h.connections[userID]; exists {
		old.close()
	}
	h.connections[userID] = c
	h.mutex.Unlock()

	go c.writePump()
	return c
}

// unregister closes c and forgets it unless the user already reconnected.
func (h *Hub) unregister(userID int64, c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if current, exists := h.connections[userID]; exists && current == c {
		delete(h.connections, userID)
	}
	c.close()
}

// SendToUser queues message for the user's connection without waiting for
// the network. Messages to a client whose queue is full are dropped.
func (h *Hub) SendToUser(userID int64, message any) bool {
	h.mutex.RLock()
	c, exists := h.connections[userID]
	h.mutex.RUnlock()

	if !exists {
		return false
	}

	if !c.enqueue(message) {
		h.logger.Debug("live message dropped", zap.Int64("user_id", userID))
		return false
	}
	return true
}

// Publish pushes a booking event to the booking's owner when they are online.
func (h *Hub) Publish(_ context.Context, event events.BookingEvent) {
	h.SendToUser(event.UserID, ServerMessage{Type: MessageBookingEvent, Event: &event})
}

func (h *Hub) IsOnline(userID int64) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.connections[userID]
	return exists
}

func (h *Hub) OnlineCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.connections)
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for userID, c := range h.connections {
		c.close()
		delete(h.connections, userID)
	}
}
