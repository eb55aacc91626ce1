package service

import (
	"context"
	"errors"
	"strings"

	"github.com/hotelops/api/internal/apperr"
	"github.com/hotelops/api/internal/enum"
	"github.com/hotelops/api/internal/model"
	"github.com/hotelops/api/internal/store"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// ErrInvalidCredentials is returned by Authenticate for any login failure.
var ErrInvalidCredentials = errors.New("invalid username or password")

type StaffService struct {
	base
	cost int
}

func NewStaffService(backend store.Backend) *StaffService {
	return &StaffService{base: newBase(backend, nil), cost: bcrypt.DefaultCost}
}

// SetHashCost lowers the bcrypt cost. Used by tests and the seeder.
func (s *StaffService) SetHashCost(cost int) { s.cost = cost }

func (s *StaffService) List(ctx context.Context, hotelID string) ([]model.Staff, error) {
	doc, err := store.Ensure[model.Staff](ctx, s.backend, hotelID, store.Staff)
	if err != nil {
		return nil, err
	}
	return doc.Items, nil
}

func (s *StaffService) Get(ctx context.Context, hotelID, staffID string) (model.Staff, error) {
	staff, err := s.List(ctx, hotelID)
	if err != nil {
		return model.Staff{}, err
	}
	i := store.IndexOf(staff, func(m model.Staff) bool { return m.StaffID == staffID })
	if i < 0 {
		return model.Staff{}, apperr.NotFound("staff %s not found", staffID)
	}
	return staff[i], nil
}

type CreateStaffRequest struct {
	Username string
	FullName string
	Role     string
	Password string
}

func (s *StaffService) Create(ctx context.Context, hotelID string, req CreateStaffRequest) (model.Staff, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return model.Staff{}, apperr.Validation("username is required")
	}
	if !enum.IsStaffRole(req.Role) {
		return model.Staff{}, apperr.Validation("invalid role %q", req.Role)
	}
	if len(req.Password) < minPasswordLength {
		return model.Staff{}, apperr.Validation("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return model.Staff{}, err
	}

	var created model.Staff
	_, err = store.Update(ctx, s.backend, hotelID, store.Staff, func(doc *store.Document[model.Staff]) error {
		if findStaffByUsername(doc.Items, req.Username) >= 0 {
			return apperr.Conflict("username %q is taken", req.Username)
		}
		id, err := newElementID("STAFF_", func(id string) bool {
			return store.IndexOf(doc.Items, func(m model.Staff) bool { return m.StaffID == id }) >= 0
		})
		if err != nil {
			return err
		}
		created = model.Staff{
			StaffID:      id,
			Username:     req.Username,
			FullName:     strings.TrimSpace(req.FullName),
			Role:         req.Role,
			PasswordHash: string(hash),
			IsActive:     true,
			CreatedAt:    s.now(),
		}
		doc.Items = append(doc.Items, created)
		return nil
	})
	if err != nil {
		return model.Staff{}, storeErr(err)
	}
	return created, nil
}

// Authenticate checks a username/password pair within one hotel.
func (s *StaffService) Authenticate(ctx context.Context, hotelID, username, password string) (model.Staff, error) {
	if hotelID == "" || username == "" || password == "" {
		return model.Staff{}, ErrInvalidCredentials
	}
	staff, err := s.List(ctx, hotelID)
	if err != nil {
		return model.Staff{}, err
	}
	i := findStaffByUsername(staff, strings.TrimSpace(username))
	if i < 0 || !staff[i].IsActive {
		return model.Staff{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(staff[i].PasswordHash), []byte(password)); err != nil {
		return model.Staff{}, ErrInvalidCredentials
	}
	return staff[i], nil
}

func findStaffByUsername(items []model.Staff, username string) int {
	return store.IndexOf(items, func(m model.Staff) bool { return strings.EqualFold(m.Username, username) })
}
