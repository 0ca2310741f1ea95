package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ayusman/depthportrait/internal/app"
	"github.com/ayusman/depthportrait/internal/server/api"
)

const writeTimeout = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// UpdateSource publishes per-frame updates.
type UpdateSource interface {
	Subscribe() (<-chan app.Update, func())
}

// PeopleBroadcaster sends the people set of every frame to WebSocket clients.
type PeopleBroadcaster struct {
	logger  *zap.SugaredLogger
	cancel  func()
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
	done    chan struct{}
}

// NewPeopleBroadcaster subscribes to source and starts broadcasting.
func NewPeopleBroadcaster(source UpdateSource, logger *zap.SugaredLogger) *PeopleBroadcaster {
	updates, cancel := source.Subscribe()
	h := &PeopleBroadcaster{
		logger:  logger,
		cancel:  cancel,
		clients: make(map[*websocket.Conn]bool),
		done:    make(chan struct{}),
	}
	go h.broadcast(updates)
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *PeopleBroadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Clients returns the number of connected clients.
func (h *PeopleBroadcaster) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcast sends each update to all connected clients until the
// subscription ends.
func (h *PeopleBroadcaster) broadcast(updates <-chan app.Update) {
	defer close(h.done)

	for u := range updates {
		h.mu.RLock()
		if len(h.clients) == 0 {
			h.mu.RUnlock()
			continue
		}

		msg := api.ToPeopleResponse(u.Frame, u.People)
		for conn := range h.clients {
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debugw("websocket write failed", "error", err)
			}
		}
		h.mu.RUnlock()
	}
}

// Close ends the subscription and closes client connections.
func (h *PeopleBroadcaster) Close() {
	h.cancel()
	<-h.done

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
	}
}
