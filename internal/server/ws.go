package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/tapflow/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// EventsHandler broadcasts session status lines and action events to
// WebSocket clients.
type EventsHandler struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler() *EventsHandler {
	return &EventsHandler{
		clients: make(map[*websocket.Conn]bool),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
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

// BroadcastStatus sends one status line to all connected clients.
func (h *EventsHandler) BroadcastStatus(status string) {
	h.broadcast(map[string]any{
		"type":      "status",
		"status":    status,
		"timestamp": time.Now().UnixMilli(),
	})
}

// BroadcastAction sends one fired action event to all connected clients.
func (h *EventsHandler) BroadcastAction(ev session.ActionEvent) {
	h.broadcast(map[string]any{
		"type":       "action",
		"label":      ev.Label,
		"confidence": ev.Confidence,
		"timestamp":  ev.Time.UnixMilli(),
	})
}

// BroadcastMode sends one mode transition to all connected clients.
func (h *EventsHandler) BroadcastMode(m session.Mode) {
	h.broadcast(map[string]any{
		"type":      "mode",
		"mode":      string(m),
		"timestamp": time.Now().UnixMilli(),
	})
}

func (h *EventsHandler) broadcast(v map[string]any) {
	msg, err := json.Marshal(v)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.clients {
		conn.WriteMessage(websocket.TextMessage, msg)
	}
}
