// server/internal/socket/hub.go
package socket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub tracks the reviewer dashboards connected over WebSocket.
type Hub struct {
	// clients maps a reviewer id to their connection.
	clients map[string]*websocket.Conn
	mu      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*websocket.Conn),
	}
}

// Register adds a new client to the Hub.
func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[userID] = conn
	log.Printf("WebSocket client registered: %s", userID)
}

// Unregister removes a client from the Hub.
func (h *Hub) Unregister(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[userID]; ok {
		delete(h.clients, userID)
		log.Printf("WebSocket client unregistered: %s", userID)
	}
}

// Send delivers a message to one client.
func (h *Hub) Send(userID string, message []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conn, ok := h.clients[userID]
	if !ok {
		// Client may simply be offline; not an error.
		log.Printf("WebSocket client not found, could not send message: %s", userID)
		return nil
	}

	return conn.WriteMessage(websocket.TextMessage, message)
}

// Broadcast delivers a message to every connected client. Write failures are
// logged per client and do not stop the fan-out.
func (h *Hub) Broadcast(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for userID, conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("WebSocket write to %s failed: %v", userID, err)
		}
	}
}

// Event is the envelope pushed to reviewer dashboards.
type Event struct {
	Type    string `json:"type"`
	RiderID string `json:"riderID,omitempty"`
	Detail  string `json:"detail,omitempty"`
	At      string `json:"at"`
}

// BroadcastEvent marshals and broadcasts an event. Used for document uploads,
// status changes and background upload recoveries.
func (h *Hub) BroadcastEvent(eventType, riderID, detail string) {
	payload, err := json.Marshal(Event{
		Type:    eventType,
		RiderID: riderID,
		Detail:  detail,
		At:      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("Failed to marshal WebSocket event: %v", err)
		return
	}
	h.Broadcast(payload)
}
