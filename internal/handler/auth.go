package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hotelops/api/internal/apperr"
	"github.com/hotelops/api/internal/auth"
	"github.com/hotelops/api/internal/model"
	"github.com/hotelops/api/internal/service"
)

// StaffAuthenticator defines the staff lookups needed by auth handlers.
// Satisfied by *service.StaffService.
type StaffAuthenticator interface {
	Authenticate(ctx context.Context, hotelID, username, password string) (model.Staff, error)
	Get(ctx context.Context, hotelID, staffID string) (model.Staff, error)
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	staff     StaffAuthenticator
	jwtSecret string
}

func NewAuthHandler(staff StaffAuthenticator, jwtSecret string) *AuthHandler {
	return &AuthHandler{staff: staff, jwtSecret: jwtSecret}
}

// RegisterRoutes registers auth endpoints. limit wraps the credential
// check; pass nil for none.
func (h *AuthHandler) RegisterRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		if limit != nil {
			r.Use(limit)
		}
		r.Post("/auth/login", h.Login)
	})
	r.Post("/auth/refresh", h.Refresh)
}

// --- Request / Response types ---

type loginRequest struct {
	HotelID  string `json:"hotelId"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenResponse struct {
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	Staff        staffResponse `json:"staff"`
}

// --- Handlers ---

// Login handles hotelId + username + password authentication.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "login", err)
		return
	}

	if req.HotelID == "" || req.Username == "" || req.Password == "" {
		writeFail(w, r, http.StatusBadRequest, "hotelId, username and password are required")
		return
	}

	staff, err := h.staff.Authenticate(r.Context(), req.HotelID, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeFail(w, r, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, r, "login", err)
		return
	}

	h.respondWithTokens(w, r, req.HotelID, staff)
}

// Refresh exchanges a valid refresh token for a new access + refresh token pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "refresh", err)
		return
	}

	if req.RefreshToken == "" {
		writeFail(w, r, http.StatusBadRequest, "refreshToken is required")
		return
	}

	claims, err := auth.ValidateRefreshToken(h.jwtSecret, req.RefreshToken)
	if err != nil {
		writeFail(w, r, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	staff, err := h.staff.Get(r.Context(), claims.HotelID, claims.Subject)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeFail(w, r, http.StatusUnauthorized, "staff not found")
			return
		}
		writeError(w, r, "refresh", err)
		return
	}
	if !staff.IsActive {
		writeFail(w, r, http.StatusUnauthorized, "staff account disabled")
		return
	}

	h.respondWithTokens(w, r, claims.HotelID, staff)
}

// --- Helpers ---

func (h *AuthHandler) respondWithTokens(w http.ResponseWriter, r *http.Request, hotelID string, staff model.Staff) {
	accessToken, err := auth.GenerateToken(h.jwtSecret, staff.StaffID, hotelID, staff.Username, staff.Role)
	if err != nil {
		writeError(w, r, "sign access token", err)
		return
	}

	refreshToken, err := auth.GenerateRefreshToken(h.jwtSecret, staff.StaffID, hotelID)
	if err != nil {
		writeError(w, r, "sign refresh token", err)
		return
	}

	writeOK(w, http.StatusOK, "Login successful", tokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Staff:        toStaffResponse(staff),
	})
}
