package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"near-sft-market/internal/domain"
	"near-sft-market/internal/observability"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsSendBuffer   = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The SPA is served from a different origin during development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans marketplace events out to connected WebSocket clients. A slow
// client whose send buffer fills up is dropped rather than stalling the
// publishers.
type Hub struct {
	logger *log.Logger

	mu      sync.Mutex
	clients map[chan []byte]struct{}
}

// NewHub creates an empty Hub.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		logger:  logger,
		clients: make(map[chan []byte]struct{}),
	}
}

// Publish broadcasts the event to every connected client. Never blocks.
func (h *Hub) Publish(e *domain.MarketEvent) {
	payload, err := json.Marshal(e)
	if err != nil {
		h.logger.Printf("WARN: encode %s event: %v", e.Type, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- payload:
		default:
			// Buffer full: the client stopped reading.
			close(ch)
			delete(h.clients, ch)
			observability.WSClientDisconnected()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register() chan []byte {
	ch := make(chan []byte, wsSendBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	observability.WSClientConnected()
	return ch
}

func (h *Hub) unregister(ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; ok {
		close(ch)
		delete(h.clients, ch)
		observability.WSClientDisconnected()
	}
}

// handleSubscribe upgrades the connection and streams events until the
// client disconnects.
func (h *Hub) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("WARN: websocket upgrade: %v", err)
		return
	}

	ch := h.register()
	defer h.unregister(ch)
	defer conn.Close()

	// The reader only surfaces disconnects; clients send nothing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case payload, ok := <-ch:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "slow consumer"),
					time.Now().Add(wsWriteTimeout))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}
