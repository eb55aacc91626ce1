package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hotelops/api/internal/config"
	"github.com/hotelops/api/internal/enum"
	"github.com/hotelops/api/internal/handler"
	mw "github.com/hotelops/api/internal/middleware"
	"github.com/hotelops/api/internal/ws"
)

// StaffService is what the auth and staff handlers need from the staff service.
type StaffService interface {
	handler.StaffAuthenticator
	handler.StaffServicer
}

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Orders       handler.OrderServicer
	Bills        handler.BillServicer
	Tables       handler.TableServicer
	Reservations handler.ReservationServicer
	Menu         handler.MenuServicer
	Staff        StaffService
	Settings     handler.SettingsServicer
	Reports      handler.ReportServicer

	Hub         *ws.Hub
	Idempotency mw.IdempotencyStore
	// DB is pinged by /health; nil skips the check.
	DB handler.Pinger
}

// New creates a Chi router with all application routes wired up.
// Every authenticated route is scoped to the hotel in the token.
func New(cfg *config.Config, deps Deps) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(echoRequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(handler.ExposeInternalErrors(cfg.ExposeInternalErrors))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "Idempotent-Replayed", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", handler.Health(deps.DB))

	loginLimiter := mw.NewRateLimiter(cfg.LoginRatePerMinute, cfg.LoginBurst)
	authHandler := handler.NewAuthHandler(deps.Staff, cfg.JWTSecret)
	authHandler.RegisterRoutes(r, loginLimiter.Limit)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/hotels/{hid}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(deps.Hub, cfg.JWTSecret, w, r)
	})

	frontDesk := mw.RequireRole(enum.StaffRoleAdmin, enum.StaffRoleReceptionist)
	adminOnly := mw.RequireRole(enum.StaffRoleAdmin)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))
		r.Use(mw.Idempotency(deps.Idempotency, cfg.IdempotencyTTL))

		// Orders
		orderHandler := handler.NewOrderHandler(deps.Orders)
		r.Route("/orders", func(r chi.Router) {
			orderHandler.RegisterReadRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(frontDesk)
				orderHandler.RegisterWriteRoutes(r)
			})
		})
		r.Get("/kitchen/queue", orderHandler.KitchenQueue)

		// Bills
		billHandler := handler.NewBillHandler(deps.Bills)
		r.With(frontDesk).Route("/bills", billHandler.RegisterRoutes)

		// Tables & reservations
		tableHandler := handler.NewTableHandler(deps.Tables, deps.Reservations)
		r.Route("/tables", func(r chi.Router) {
			tableHandler.RegisterTableReadRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				tableHandler.RegisterTableAdminRoutes(r)
			})
		})
		r.With(frontDesk).Route("/reservations", tableHandler.RegisterReservationRoutes)

		// Menu
		menuHandler := handler.NewMenuHandler(deps.Menu)
		r.Route("/menu", func(r chi.Router) {
			menuHandler.RegisterReadRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				menuHandler.RegisterWriteRoutes(r)
			})
		})

		// Settings
		settingsHandler := handler.NewSettingsHandler(deps.Settings)
		r.Route("/settings", func(r chi.Router) {
			settingsHandler.RegisterReadRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				settingsHandler.RegisterWriteRoutes(r)
			})
		})

		// Admin-only
		r.Group(func(r chi.Router) {
			r.Use(adminOnly)

			staffHandler := handler.NewStaffHandler(deps.Staff)
			r.Route("/staff", staffHandler.RegisterRoutes)

			reportsHandler := handler.NewReportsHandler(deps.Reports)
			r.Route("/reports", reportsHandler.RegisterRoutes)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}

// echoRequestID returns the correlation id to the caller.
func echoRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			w.Header().Set("X-Request-Id", id)
		}
		next.ServeHTTP(w, r)
	})
}
