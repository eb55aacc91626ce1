package handler_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hotelops/api/internal/apperr"
	"github.com/hotelops/api/internal/auth"
	"github.com/hotelops/api/internal/enum"
	"github.com/hotelops/api/internal/handler"
	"github.com/hotelops/api/internal/model"
	"github.com/hotelops/api/internal/service"
)

const testSecret = "test-secret"

// --- Mock StaffAuthenticator ---

type mockStaffAuth struct {
	authenticateFn func(ctx context.Context, hotelID, username, password string) (model.Staff, error)
	getFn          func(ctx context.Context, hotelID, staffID string) (model.Staff, error)
}

func (m *mockStaffAuth) Authenticate(ctx context.Context, hotelID, username, password string) (model.Staff, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, hotelID, username, password)
	}
	return model.Staff{}, service.ErrInvalidCredentials
}

func (m *mockStaffAuth) Get(ctx context.Context, hotelID, staffID string) (model.Staff, error) {
	if m.getFn != nil {
		return m.getFn(ctx, hotelID, staffID)
	}
	return model.Staff{}, apperr.NotFound("staff not found")
}

func receptionist() model.Staff {
	return model.Staff{
		StaffID:      "STAFF_1",
		Username:     "reception",
		Role:         enum.StaffRoleReceptionist,
		PasswordHash: "$2a$04$hash",
		IsActive:     true,
	}
}

func newAuthRouter(staff handler.StaffAuthenticator, limit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	handler.NewAuthHandler(staff, testSecret).RegisterRoutes(r, limit)
	return r
}

type tokenData struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	Staff        map[string]any `json:"staff"`
}

func TestLogin_Success(t *testing.T) {
	staff := &mockStaffAuth{
		authenticateFn: func(_ context.Context, hotelID, username, password string) (model.Staff, error) {
			if hotelID != testHotel || username != "reception" || password != "secret123" {
				return model.Staff{}, service.ErrInvalidCredentials
			}
			return receptionist(), nil
		},
	}

	rr := doRequest(t, newAuthRouter(staff, nil), http.MethodPost, "/auth/login",
		`{"hotelId":"hotel-1","username":"reception","password":"secret123"}`)
	assertStatus(t, rr, http.StatusOK)

	var data tokenData
	decodeData(t, decodeEnvelope(t, rr), &data)

	claims, err := auth.ValidateToken(testSecret, data.AccessToken)
	if err != nil {
		t.Fatalf("access token: %v", err)
	}
	if claims.StaffID != "STAFF_1" || claims.HotelID != testHotel || claims.Role != enum.StaffRoleReceptionist {
		t.Errorf("claims: %+v", claims)
	}
	if _, err := auth.ValidateRefreshToken(testSecret, data.RefreshToken); err != nil {
		t.Errorf("refresh token: %v", err)
	}
	if _, ok := data.Staff["passwordHash"]; ok {
		t.Error("password hash must not be returned")
	}
}

func TestLogin_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"wrong password", `{"hotelId":"hotel-1","username":"reception","password":"nope"}`, http.StatusUnauthorized},
		{"missing hotel", `{"username":"reception","password":"secret123"}`, http.StatusBadRequest},
		{"missing password", `{"hotelId":"hotel-1","username":"reception"}`, http.StatusBadRequest},
		{"bad json", `{"hotelId":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, newAuthRouter(&mockStaffAuth{}, nil), http.MethodPost, "/auth/login", tt.body)
			assertStatus(t, rr, tt.status)
		})
	}
}

func TestLogin_IsRateLimited(t *testing.T) {
	limit := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	r := newAuthRouter(&mockStaffAuth{}, limit)

	rr := doRequest(t, r, http.MethodPost, "/auth/login", `{}`)
	assertStatus(t, rr, http.StatusTooManyRequests)

	// Refresh stays outside the limiter.
	rr = doRequest(t, r, http.MethodPost, "/auth/refresh", `{}`)
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestRefresh(t *testing.T) {
	refresh, err := auth.GenerateRefreshToken(testSecret, "STAFF_1", testHotel)
	if err != nil {
		t.Fatalf("generate refresh: %v", err)
	}
	access, err := auth.GenerateToken(testSecret, "STAFF_1", testHotel, "reception", enum.StaffRoleReceptionist)
	if err != nil {
		t.Fatalf("generate access: %v", err)
	}

	active := &mockStaffAuth{
		getFn: func(_ context.Context, hotelID, staffID string) (model.Staff, error) {
			if hotelID != testHotel || staffID != "STAFF_1" {
				return model.Staff{}, apperr.NotFound("staff not found")
			}
			return receptionist(), nil
		},
	}
	disabled := &mockStaffAuth{
		getFn: func(context.Context, string, string) (model.Staff, error) {
			s := receptionist()
			s.IsActive = false
			return s, nil
		},
	}

	tests := []struct {
		name   string
		staff  handler.StaffAuthenticator
		token  string
		status int
	}{
		{"valid", active, refresh, http.StatusOK},
		{"disabled staff", disabled, refresh, http.StatusUnauthorized},
		{"unknown staff", &mockStaffAuth{}, refresh, http.StatusUnauthorized},
		{"garbage token", active, "not-a-jwt", http.StatusUnauthorized},
		{"empty token", active, "", http.StatusBadRequest},
		{"access token signed elsewhere", active, signWith(t, "other-secret"), http.StatusUnauthorized},
		// An access token carries no subject, so it cannot be exchanged.
		{"access token", active, access, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"refreshToken":"` + tt.token + `"}`
			rr := doRequest(t, newAuthRouter(tt.staff, nil), http.MethodPost, "/auth/refresh", body)
			assertStatus(t, rr, tt.status)
			if tt.status == http.StatusOK {
				var data tokenData
				decodeData(t, decodeEnvelope(t, rr), &data)
				if strings.Count(data.AccessToken, ".") != 2 {
					t.Errorf("access token: %q", data.AccessToken)
				}
			}
		})
	}
}

func signWith(t *testing.T, secret string) string {
	t.Helper()
	tok, err := auth.GenerateRefreshToken(secret, "STAFF_1", testHotel)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}
