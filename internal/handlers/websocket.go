package handlers

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/interfaces"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WebSocketHandler fans job status events out to connected clients.
// It implements JobEventPublisher; publishing never blocks the worker,
// a slow client is dropped instead.
type WebSocketHandler struct {
	logger  arbor.ILogger
	clients map[*websocket.Conn]chan interfaces.JobEvent
	mu      sync.RWMutex
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(logger arbor.ILogger) *WebSocketHandler {
	return &WebSocketHandler{
		logger:  logger,
		clients: make(map[*websocket.Conn]chan interfaces.JobEvent),
	}
}

// HandleWebSocket handles GET /ws/jobs upgrade requests
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	events := make(chan interfaces.JobEvent, 64)

	h.mu.Lock()
	h.clients[conn] = events
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().
		Str("remote", r.RemoteAddr).
		Int("clients", clientCount).
		Msg("WebSocket client connected")

	go h.writeLoop(conn, events)
	go h.readLoop(conn)
}

// Publish implements interfaces.JobEventPublisher
func (h *WebSocketHandler) Publish(event interfaces.JobEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, events := range h.clients {
		select {
		case events <- event:
		default:
			// Buffer full; client is too slow to keep up.
			h.logger.Debug().
				Str("job_id", event.JobID).
				Msg("Dropping job event for slow WebSocket client")
		}
	}
}

// writeLoop drains the event channel into the connection
func (h *WebSocketHandler) writeLoop(conn *websocket.Conn, events chan interfaces.JobEvent) {
	for event := range events {
		if err := conn.WriteJSON(event); err != nil {
			h.logger.Debug().Err(err).Msg("WebSocket write failed, disconnecting client")
			h.disconnect(conn)
			return
		}
	}
}

// readLoop consumes control frames and detects disconnects
func (h *WebSocketHandler) readLoop(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.disconnect(conn)
			return
		}
	}
}

func (h *WebSocketHandler) disconnect(conn *websocket.Conn) {
	h.mu.Lock()
	events, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
		close(events)
	}
	clientCount := len(h.clients)
	h.mu.Unlock()

	if ok {
		conn.Close()
		h.logger.Debug().
			Int("clients", clientCount).
			Msg("WebSocket client disconnected")
	}
}

var _ interfaces.JobEventPublisher = (*WebSocketHandler)(nil)
