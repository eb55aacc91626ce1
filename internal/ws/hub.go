package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/hotelops/api/internal/events"
)

// hotelMessage routes an encoded event to one hotel's room.
type hotelMessage struct {
	HotelID string
	Message []byte
}

// Hub maintains the set of active dashboard clients, grouped by hotel, and
// pushes every published event to the clients of that hotel.
type Hub struct {
	// Registered clients by hotel ID
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	broadcast chan *hotelMessage

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *hotelMessage, 256),
	}
}

// Run starts the hub's main loop. Call it as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.hotelID] == nil {
				h.rooms[client.hotelID] = make(map[*Client]bool)
			}
			h.rooms[client.hotelID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.rooms[msg.HotelID] {
				select {
				case client.send <- msg.Message:
				default:
					// Slow consumer; it reconnects and refetches.
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop removes client and closes its send channel. Caller holds h.mu.
func (h *Hub) drop(client *Client) {
	clients, ok := h.rooms[client.hotelID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.hotelID)
	}
}

// Publish queues ev for the clients of ev.HotelID. It implements
// events.Publisher so the hub can sit next to Redis and AMQP in a Multi.
func (h *Hub) Publish(ctx context.Context, ev events.Event) error {
	message, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- &hotelMessage{HotelID: ev.HotelID, Message: message}:
		return nil
	case <-ctx.Done():
		log.Printf("ws: dropped %s for hotel %s: %v", ev.Type, ev.HotelID, ctx.Err())
		return ctx.Err()
	}
}

// Clients reports how many dashboards are connected for hotelID.
func (h *Hub) Clients(hotelID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[hotelID])
}
