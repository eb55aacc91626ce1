package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/hotelops/api/internal/handler"
)

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		db     handler.Pinger
		status int
		want   string
	}{
		{"no backend check", nil, http.StatusOK, "ok"},
		{"backend up", handler.PingFunc(func(context.Context) error { return nil }), http.StatusOK, "ok"},
		{"backend down", handler.PingFunc(func(context.Context) error { return errors.New("dial tcp: refused") }), http.StatusServiceUnavailable, "unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, handler.Health(tt.db), http.MethodGet, "/health", nil)
			assertStatus(t, rr, tt.status)

			var body map[string]string
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["status"] != tt.want {
				t.Errorf("status field: got %q, want %q", body["status"], tt.want)
			}
		})
	}
}
