package websocket

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Event types pushed to connected bot/dashboard clients
const (
	EventTypeMetricsRefreshed = "metrics_refreshed"
	EventTypePayoutCompleted  = "payout_completed"
	EventTypePayoutFailed     = "payout_failed"
)

// Event is a message sent over WebSocket to the command front-end
type Event struct {
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Client represents a connected WebSocket client
type Client struct {
	UserID string
	Conn   *websocket.Conn
}

// Hub maintains the set of active clients and broadcasts campaign events
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event
	mu         sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 64),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Conn.Close()
			}
			h.mu.Unlock()
		case event := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if err := client.Conn.WriteJSON(event); err != nil {
					log.Printf("websocket: write to %s failed: %v", client.UserID, err)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast queues an event for every connected client. Never blocks the
// caller; events are dropped when the queue is full.
func (h *Hub) Broadcast(event Event) {
	select {
	case h.broadcast <- event:
	default:
		log.Printf("websocket: broadcast queue full, dropping %s event", event.Type)
	}
}
