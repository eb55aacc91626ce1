package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hotelops/api/internal/apperr"
	"github.com/hotelops/api/internal/config"
	"github.com/hotelops/api/internal/enum"
	"github.com/hotelops/api/internal/events"
	"github.com/hotelops/api/internal/service"
	"github.com/hotelops/api/internal/store"
	"github.com/hotelops/api/internal/store/mongodb"
	"github.com/hotelops/api/internal/store/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func main() {
	// CLI flags
	hotelID := flag.String("hotel", "", "Hotel ID to seed")
	hotelName := flag.String("hotel-name", "", "Hotel display name")
	username := flag.String("username", "", "Admin username")
	password := flag.String("password", "", "Admin password")
	name := flag.String("name", "", "Admin full name")
	flag.Parse()

	// Fall back to environment variables
	if *hotelID == "" {
		*hotelID = os.Getenv("SEED_HOTEL_ID")
	}
	if *username == "" {
		*username = os.Getenv("SEED_USERNAME")
	}
	if *password == "" {
		*password = os.Getenv("SEED_PASSWORD")
	}

	// Fall back to defaults
	if *hotelID == "" {
		*hotelID = "demo-hotel"
	}
	if *hotelName == "" {
		*hotelName = "Demo Hotel"
	}
	if *username == "" {
		*username = "admin"
	}
	if *password == "" {
		*password = "password123"
		log.Println("WARNING: Using default password 'password123'. Change immediately in production!")
	}
	if *name == "" {
		*name = "Hotel Admin"
	}

	cfg := config.Load()
	ctx := context.Background()

	backend, closeFn, err := connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Unable to connect to %s store: %v", cfg.StoreDriver, err)
	}
	defer closeFn()

	pub := events.Nop{}
	settings := service.NewSettingsService(backend, pub)
	tables := service.NewTableService(backend, pub)
	menu := service.NewMenuService(backend, pub)
	staff := service.NewStaffService(backend)

	if _, err := settings.Update(ctx, *hotelID, service.UpdateSettingsRequest{
		Name:                    hotelName,
		TaxPercentage:           ptr(decimal.NewFromInt(5)),
		ServiceChargePercentage: ptr(decimal.Zero),
	}); err != nil {
		log.Fatalf("Failed to seed settings: %v", err)
	}
	log.Printf("Settings for hotel '%s' saved", *hotelID)

	admin, err := staff.Create(ctx, *hotelID, service.CreateStaffRequest{
		Username: *username,
		FullName: *name,
		Role:     enum.StaffRoleAdmin,
		Password: *password,
	})
	switch {
	case errors.Is(err, apperr.ErrConflict):
		log.Printf("Staff '%s' already exists, skipping", *username)
	case err != nil:
		log.Fatalf("Failed to seed admin: %v", err)
	default:
		log.Printf("Created admin '%s' (ID: %s)", admin.Username, admin.StaffID)
	}

	for i := 1; i <= 6; i++ {
		id := fmt.Sprintf("T%d", i)
		capacity := int32(2)
		if i > 3 {
			capacity = 4
		}
		if _, err := tables.Create(ctx, *hotelID, service.CreateTableRequest{TableID: id, Capacity: capacity}); err != nil {
			if !errors.Is(err, apperr.ErrConflict) {
				log.Fatalf("Failed to seed table %s: %v", id, err)
			}
			log.Printf("Table '%s' already exists, skipping", id)
		}
	}

	for _, item := range []service.CreateMenuItemRequest{
		{Name: "Masala Chai", Category: "Beverages", Price: decimal.NewFromInt(40)},
		{Name: "Paneer Tikka", Category: "Starters", Price: decimal.NewFromInt(220)},
		{Name: "Chicken Curry", Category: "Mains", Price: decimal.NewFromInt(320)},
		{Name: "Butter Naan", Category: "Breads", Price: decimal.NewFromInt(50)},
	} {
		if _, err := menu.Create(ctx, *hotelID, item); err != nil {
			if !errors.Is(err, apperr.ErrConflict) {
				log.Fatalf("Failed to seed menu item %s: %v", item.Name, err)
			}
			log.Printf("Menu item '%s' already exists, skipping", item.Name)
		}
	}

	log.Println("Seed completed successfully")
	log.Printf("Hotel ID: %s", *hotelID)
}

// connect opens the persistent store the server is configured for.
func connect(ctx context.Context, cfg *config.Config) (store.Backend, func(), error) {
	switch cfg.StoreDriver {
	case "postgres":
		if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
			return nil, nil, err
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		log.Println("Connected to postgres")
		return postgres.New(pool), pool.Close, nil
	case "mongo":
		client, err := mongodb.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		backend := mongodb.New(client.Database(cfg.MongoDatabase))
		if err := backend.EnsureIndexes(ctx); err != nil {
			client.Disconnect(ctx)
			return nil, nil, err
		}
		log.Println("Connected to mongodb")
		return backend, func() { client.Disconnect(context.Background()) }, nil
	}
	return nil, nil, fmt.Errorf("seeding needs a persistent store, got STORE_DRIVER=%q", cfg.StoreDriver)
}

func ptr[T any](v T) *T { return &v }
