package websocket

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"kamianime/events"
	"kamianime/models"
)

// Client is one connected browser session. Writes go through SafeWriteJSON
// because gorilla connections allow only one concurrent writer.
type Client struct {
	Conn    *websocket.Conn
	UserID  string
	writeMu sync.Mutex
}

func (c *Client) SafeWriteJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteJSON(v)
}

// Hub fans SyncEvents from the in-process bus out to connected web clients.
// Every client receives every event; the frontend filters by userId.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]bool)}
}

// Run consumes a bus subscription until the channel closes. Call it once,
// in its own goroutine.
func (h *Hub) Run(bus *events.Bus) {
	sub := bus.Subscribe()
	for ev := range sub {
		h.Broadcast(ev)
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
	log.Printf("websocket: client connected, total %d", len(h.clients))
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	client.Conn.Close()
	log.Printf("websocket: client disconnected, total %d", len(h.clients))
}

// Broadcast writes one event to every connected client, dropping clients
// whose connection has gone bad.
func (h *Hub) Broadcast(ev models.SyncEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	message := map[string]interface{}{
		"id":        ev.ID,
		"type":      ev.Type,
		"userId":    ev.UserID,
		"data":      ev.Payload,
		"timestamp": ev.Timestamp,
	}

	for client := range h.clients {
		if err := client.SafeWriteJSON(message); err != nil {
			log.Printf("websocket: write to client failed: %v", err)
			go h.Unregister(client)
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
