package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/hotelops/api/internal/apperr"
	"github.com/hotelops/api/internal/auth"
	mw "github.com/hotelops/api/internal/middleware"
	"github.com/hotelops/api/internal/reqlog"
)

type exposeKey struct{}

// ExposeInternalErrors puts the internal error text into 5xx bodies for the
// requests it wraps. Production turns it off.
func ExposeInternalErrors(expose bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), exposeKey{}, expose)))
		})
	}
}

func exposeInternalErrors(ctx context.Context) bool {
	expose, _ := ctx.Value(exposeKey{}).(bool)
	return expose
}

type envelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

func writeOK(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

// writeError maps err to its HTTP status. Internal errors are logged with
// the request id; their text reaches the client only when exposed.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := apperr.HTTPStatus(err)
	body := envelope{
		Message:   apperr.Message(err),
		RequestID: middleware.GetReqID(r.Context()),
	}
	if status >= http.StatusInternalServerError {
		reqlog.Printf(r.Context(), "ERROR: %s: %v", op, err)
		body.Message = "internal server error"
		if exposeInternalErrors(r.Context()) {
			body.Error = err.Error()
		}
	}
	writeJSON(w, status, body)
}

func writeFail(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, envelope{Message: message, RequestID: middleware.GetReqID(r.Context())})
}

// decodeJSON reads the request body into v. An empty body leaves v as is.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}

// requireClaims returns the caller's claims or writes 401.
func requireClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims := mw.ClaimsFromContext(r.Context())
	if claims == nil {
		writeFail(w, r, http.StatusUnauthorized, "not authenticated")
		return nil, false
	}
	return claims, true
}
