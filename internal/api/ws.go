package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/FrancoUysp/TT/internal/engine"
	"github.com/FrancoUysp/TT/internal/logger"
)

// Hub fans tick snapshots out to connected websocket clients. A client that
// cannot keep up is dropped rather than allowed to stall the tick path.
type Hub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]chan engine.TickSnapshot
	upgrader websocket.Upgrader
	log      *logger.Logger
	closed   bool
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]chan engine.TickSnapshot),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// HandleWS upgrades the request and streams snapshots until the client
// disconnects.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	feed := make(chan engine.TickSnapshot, 16)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[conn] = feed
	h.mu.Unlock()

	h.log.Info("websocket client connected", zap.String("remote", conn.RemoteAddr().String()))

	go h.writeLoop(conn, feed)
	h.readLoop(conn)
}

func (h *Hub) writeLoop(conn *websocket.Conn, feed chan engine.TickSnapshot) {
	for snapshot := range feed {
		if err := conn.WriteJSON(snapshot); err != nil {
			h.log.Debug("websocket write failed", zap.Error(err))
			h.drop(conn)
			return
		}
	}
}

// readLoop discards inbound frames; its only job is to notice disconnects.
func (h *Hub) readLoop(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.drop(conn)
			return
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	feed, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
		close(feed)
	}
	h.mu.Unlock()

	conn.Close()
}

// Broadcast queues a snapshot for every connected client. Full client
// queues are skipped.
func (h *Hub) Broadcast(snapshot engine.TickSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn, feed := range h.clients {
		select {
		case feed <- snapshot:
		default:
			h.log.Warn("websocket client lagging, snapshot dropped",
				zap.String("remote", conn.RemoteAddr().String()))
		}
	}
}

// Close disconnects all clients and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for conn, feed := range h.clients {
		close(feed)
		conn.Close()
		delete(h.clients, conn)
	}
}
