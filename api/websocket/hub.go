package websocket

import (
	"context"
	"log"
	"sync"
)

// Hub fans funnel run lifecycle events out to every connected dashboard
// client. Slow consumers are dropped rather than allowed to stall a run.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	events     chan []byte
	register   chan *Client
	unregister chan *Client
}

// NewHub builds an idle hub; Run starts it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		events:     make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run pumps registrations and run events until ctx is cancelled. Call in a
// goroutine.
func (h *Hub) Run(ctx context.Context) {
	log.Println("Run progress hub started")
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			log.Println("Run progress hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("Progress client connected (%d watching)", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				close(client.send)
				delete(h.clients, client)
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("Progress client disconnected (%d watching)", count)

		case message := <-h.events:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client buffer full; cut it loose.
					go func(c *Client) {
						h.unregister <- c
					}(client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Publish queues one run event for broadcast. A full queue drops the event;
// progress events are advisory, the run result is not delivered this way.
func (h *Hub) Publish(event Event) {
	select {
	case h.events <- event.JSON():
	default:
		log.Printf("Progress hub backlogged, dropping %s event", event.Type)
	}
}

// ClientCount reports how many dashboard clients are watching.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
