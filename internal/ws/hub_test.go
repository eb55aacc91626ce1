package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/hotelops/api/internal/auth"
	"github.com/hotelops/api/internal/events"
)

const testSecret = "ws-test-secret"

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, hotelID string) *Client {
	return &Client{
		hub:     hub,
		hotelID: hotelID,
		send:    make(chan []byte, 256),
	}
}

func publish(t *testing.T, hub *Hub, typ, hotelID, payload string) {
	t.Helper()
	ev := events.Event{Type: typ, HotelID: hotelID, Payload: json.RawMessage(payload)}
	if err := hub.Publish(context.Background(), ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func TestHubRegistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, "hotel-1")
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	if got := hub.Clients("hotel-1"); got != 1 {
		t.Fatalf("expected 1 client, got %d", got)
	}
}

func TestHubCleanupEmptyRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub, "hotel-1")
	client2 := mockClient(hub, "hotel-1")
	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	hub.unregister <- client1
	time.Sleep(10 * time.Millisecond)
	if got := hub.Clients("hotel-1"); got != 1 {
		t.Fatalf("expected 1 client after first unregister, got %d", got)
	}

	hub.unregister <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	if hub.rooms["hotel-1"] != nil {
		t.Fatal("room should be deleted when last client unregisters")
	}
	if _, ok := <-client1.send; ok {
		t.Fatal("send channel should be closed on unregister")
	}
}

func TestPublishReachesOnlyThatHotel(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	clients := map[string][]*Client{
		"hotel-1": {mockClient(hub, "hotel-1"), mockClient(hub, "hotel-1")},
		"hotel-2": {mockClient(hub, "hotel-2")},
	}
	for _, list := range clients {
		for _, c := range list {
			hub.register <- c
		}
	}
	time.Sleep(10 * time.Millisecond)

	publish(t, hub, events.OrderItemUpdated, "hotel-1", `{"status":"READY"}`)

	for hotelID, list := range clients {
		for i, client := range list {
			select {
			case msg := <-client.send:
				if hotelID != "hotel-1" {
					t.Fatalf("%s client %d should not receive message", hotelID, i)
				}
				var received events.Event
				if err := json.Unmarshal(msg, &received); err != nil {
					t.Fatalf("unmarshal error: %v", err)
				}
				if received.Type != events.OrderItemUpdated || received.HotelID != "hotel-1" {
					t.Errorf("wrong event: %+v", received)
				}
				if string(received.Payload) != `{"status":"READY"}` {
					t.Errorf("payload: got %s", received.Payload)
				}
			case <-time.After(50 * time.Millisecond):
				if hotelID == "hotel-1" {
					t.Fatalf("hotel-1 client %d should have received message", i)
				}
			}
		}
	}
}

func TestPublishDropsSlowClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	slow := &Client{hub: hub, hotelID: "hotel-1", send: make(chan []byte, 1)}
	hub.register <- slow
	time.Sleep(10 * time.Millisecond)

	publish(t, hub, events.TableUpdated, "hotel-1", `{}`)
	publish(t, hub, events.TableUpdated, "hotel-1", `{}`)
	time.Sleep(20 * time.Millisecond)

	if got := hub.Clients("hotel-1"); got != 0 {
		t.Fatalf("slow client should be dropped, %d left", got)
	}
}

func TestPublishHonoursContext(t *testing.T) {
	hub := NewHub() // not running; the buffer fills up
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < cap(hub.broadcast); i++ {
		hub.broadcast <- &hotelMessage{}
	}
	err := hub.Publish(ctx, events.Event{Type: events.MenuUpdated, HotelID: "hotel-1"})
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func newWSServer(hub *Hub) *httptest.Server {
	r := chi.NewRouter()
	r.Get("/ws/hotels/{hid}", func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, testSecret, w, r)
	})
	return httptest.NewServer(r)
}

func TestServeWS_RejectsBadRequests(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	srv := newWSServer(hub)
	defer srv.Close()

	otherHotel, _ := auth.GenerateToken(testSecret, "STAFF_1", "hotel-2", "cook", "COOK")

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"invalid token", "?token=garbage", http.StatusUnauthorized},
		{"other hotel", "?token=" + otherHotel, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + "/ws/hotels/hotel-1" + tt.query)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status: got %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestServeWS_StreamsHotelEvents(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	srv := newWSServer(hub)
	defer srv.Close()

	token, err := auth.GenerateToken(testSecret, "STAFF_1", "hotel-1", "cook", "COOK")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/hotels/hotel-1?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for hub.Clients("hotel-1") == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	publish(t, hub, events.OrderCreated, "hotel-1", `{"orderId":"ORD_1"}`)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var received events.Event
	if err := json.Unmarshal(msg, &received); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if received.Type != events.OrderCreated {
		t.Errorf("type: got %s", received.Type)
	}
}
