package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/nftbazaar/marketgate/internal/domain"
	"github.com/nftbazaar/marketgate/internal/logger"
)

const (
	// writeWait is the maximum time to wait for a write to complete
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is the maximum size of an incoming message
	maxMessageSize = 1024

	// sendBufferSize is the channel buffer for outgoing messages per client
	sendBufferSize = 64
)

// Message types pushed to clients
const (
	TypeRefresh  = "refresh"
	TypeListings = "listings"
	TypeActivity = "activity"
)

// upgrader configures the WebSocket upgrade parameters
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins. In production, restrict this to known origins.
		return true
	},
}

// envelope is the frame pushed to clients
type envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// client represents a single WebSocket connection
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans refresh notifications and view snapshots out to connected
// WebSocket clients. Clients are read-only; anything they send besides
// pongs is discarded.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	mu         sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
	}
}

// Run starts the hub's main event loop. It should be called in a goroutine
// and exits when the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			logger.Info("ws client connected", zap.Int("total_clients", h.ClientCount()))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			logger.Info("ws client disconnected", zap.Int("total_clients", h.ClientCount()))

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Client's send buffer is full; drop the message
					logger.Warn("dropping ws message for slow client")
				}
			}
			h.mu.RUnlock()
		}
	}
}

// BroadcastRefresh pushes a refresh notification to all clients
func (h *Hub) BroadcastRefresh(event domain.RefreshEvent) {
	h.push(TypeRefresh, event)
}

// BroadcastListings pushes a fresh listing snapshot to all clients
func (h *Hub) BroadcastListings(records []domain.ListingRecord) {
	h.push(TypeListings, records)
}

// BroadcastActivity pushes a fresh activity snapshot to all clients
func (h *Hub) BroadcastActivity(entries []domain.ActivityEvent) {
	h.push(TypeActivity, entries)
}

func (h *Hub) push(msgType string, payload interface{}) {
	data, err := json.Marshal(envelope{Type: msgType, Payload: payload})
	if err != nil {
		logger.Warn("failed to encode ws message", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- data:
	default:
		logger.Warn("ws broadcast queue full, dropping message", zap.String("type", msgType))
	}
}

// HandleWS upgrades an HTTP request to a WebSocket connection and registers
// the client with the hub.
// GET /ws
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	h.register <- c

	go c.writePump()
	go c.readPump()
}

// ClientCount returns the number of currently connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// readPump drains the connection so control frames are processed, keeping
// the read deadline fresh on every pong
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("ws unexpected close", zap.Error(err))
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection,
// interleaving periodic ping frames for keepalive
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
