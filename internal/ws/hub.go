package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Hub fans live events out to connected admin clients. A client either
// follows every user or a single uid.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}

func (h *Hub) deliver(event Event) {
	message, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if client.uid != "" && client.uid != event.UID {
			continue
		}
		select {
		case client.send <- message:
		default:
			// slow consumer
			delete(h.clients, client)
			close(client.send)
		}
	}
}

// join registers client; false once the hub has stopped
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues an event for delivery. It never blocks; when the queue is
// full the event is dropped.
func (h *Hub) Publish(uid string, eventType EventType, data interface{}) {
	event := Event{
		UID:       uid,
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	select {
	case h.broadcast <- event:
	default:
	}
}

// ConnectedClients counts the clients currently registered
func (h *Hub) ConnectedClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
