package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hotelops/api/internal/config"
	"github.com/hotelops/api/internal/events"
	"github.com/hotelops/api/internal/handler"
	mw "github.com/hotelops/api/internal/middleware"
	"github.com/hotelops/api/internal/router"
	"github.com/hotelops/api/internal/service"
	"github.com/hotelops/api/internal/store"
	"github.com/hotelops/api/internal/store/memory"
	"github.com/hotelops/api/internal/store/mongodb"
	"github.com/hotelops/api/internal/store/postgres"
	"github.com/hotelops/api/internal/ws"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, pinger, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("Unable to open %s store: %v", cfg.StoreDriver, err)
	}
	defer closeBackend()

	hub := ws.NewHub()
	go hub.Run()

	// Without Redis the hub is published to directly; with Redis every
	// instance's hub is fed by the relay so events reach all of them once.
	var publishers events.Multi
	var idem mw.IdempotencyStore = mw.NewMemoryIdempotencyStore()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("Unable to ping redis: %v", err)
		}

		redisPub := events.NewRedisPublisher(rdb, events.DefaultChannel)
		publishers = append(publishers, redisPub)
		go func() {
			if err := redisPub.Relay(ctx, hub); err != nil {
				log.Printf("ERROR: redis relay stopped: %v", err)
			}
		}()
		idem = mw.NewRedisIdempotencyStore(rdb)
		log.Println("Connected to redis")
	} else {
		publishers = append(publishers, hub)
	}

	if cfg.AMQPURL != "" {
		conn, ch, err := events.DialAMQP(cfg.AMQPURL)
		if err != nil {
			log.Fatalf("Unable to connect to amqp: %v", err)
		}
		defer conn.Close()
		amqpPub, err := events.NewAMQPPublisher(ch, events.DefaultExchange)
		if err != nil {
			log.Fatalf("Unable to set up amqp publisher: %v", err)
		}
		publishers = append(publishers, amqpPub)
		log.Println("Connected to amqp")
	}

	settings := service.NewSettingsService(backend, publishers)
	tables := service.NewTableService(backend, publishers)
	bills := service.NewBillService(backend, cfg.Billing, settings, publishers)

	r := router.New(cfg, router.Deps{
		Orders:       service.NewOrderService(backend, cfg.Billing, bills, tables, settings, publishers),
		Bills:        bills,
		Tables:       tables,
		Reservations: service.NewReservationService(backend, cfg.Billing, tables, publishers),
		Menu:         service.NewMenuService(backend, publishers),
		Staff:        service.NewStaffService(backend),
		Settings:     settings,
		Reports:      service.NewReportService(backend, bills),
		Hub:          hub,
		Idempotency:  idem,
		DB:           pinger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s (store=%s, env=%s)", cfg.Port, cfg.StoreDriver, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: shutdown: %v", err)
	}
}

// openBackend connects the configured document store.
func openBackend(ctx context.Context, cfg *config.Config) (store.Backend, handler.Pinger, func(), error) {
	switch cfg.StoreDriver {
	case "postgres":
		if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
			return nil, nil, nil, err
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		log.Println("Connected to postgres")
		return postgres.New(pool), pool, pool.Close, nil

	case "mongo":
		client, err := mongodb.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, nil, err
		}
		backend := mongodb.New(client.Database(cfg.MongoDatabase))
		if err := backend.EnsureIndexes(ctx); err != nil {
			client.Disconnect(context.Background())
			return nil, nil, nil, err
		}
		log.Println("Connected to mongodb")
		ping := handler.PingFunc(func(ctx context.Context) error { return client.Ping(ctx, nil) })
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Printf("ERROR: disconnect mongodb: %v", err)
			}
		}
		return backend, ping, closeFn, nil

	case "memory":
		log.Println("WARNING: using in-memory store; data is lost on restart")
		return memory.New(), nil, func() {}, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}
