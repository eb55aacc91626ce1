// Package postgres stores hotel documents as JSONB rows keyed by (hotel_id, collection).
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/hotelops/api/internal/store"
	"github.com/jackc/pgx/v5"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB is the subset of *pgxpool.Pool the backend needs.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Backend struct {
	db DB
}

func New(db DB) *Backend {
	return &Backend{db: db}
}

const loadDocument = `
SELECT items, version, created_at, updated_at
FROM hotel_documents
WHERE hotel_id = $1 AND collection = $2`

const createDocument = `
INSERT INTO hotel_documents (hotel_id, collection, items, version, created_at, updated_at)
VALUES ($1, $2, $3::jsonb, 1, now(), now())
ON CONFLICT (hotel_id, collection) DO NOTHING
RETURNING items, version, created_at, updated_at`

// saveDocument only matches when nobody saved since we loaded.
const saveDocument = `
UPDATE hotel_documents
SET items = $3::jsonb, version = version + 1, updated_at = now()
WHERE hotel_id = $1 AND collection = $2 AND version = $4
RETURNING items, version, created_at, updated_at`

func (b *Backend) Load(ctx context.Context, hotelID string, coll store.Collection) (store.Raw, error) {
	raw, err := scanRaw(b.db.QueryRow(ctx, loadDocument, hotelID, string(coll)))
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Raw{}, store.ErrNotFound
	}
	if err != nil {
		return store.Raw{}, fmt.Errorf("load %s/%s: %w", hotelID, coll, err)
	}
	return raw, nil
}

func (b *Backend) Create(ctx context.Context, hotelID string, coll store.Collection, items []byte) (store.Raw, error) {
	raw, err := scanRaw(b.db.QueryRow(ctx, createDocument, hotelID, string(coll), string(items)))
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Raw{}, store.ErrExists
	}
	if err != nil {
		return store.Raw{}, fmt.Errorf("create %s/%s: %w", hotelID, coll, err)
	}
	return raw, nil
}

func (b *Backend) Save(ctx context.Context, hotelID string, coll store.Collection, items []byte, expected int64) (store.Raw, error) {
	raw, err := scanRaw(b.db.QueryRow(ctx, saveDocument, hotelID, string(coll), string(items), expected))
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Raw{}, store.ErrVersionConflict
	}
	if err != nil {
		return store.Raw{}, fmt.Errorf("save %s/%s: %w", hotelID, coll, err)
	}
	return raw, nil
}

func scanRaw(row pgx.Row) (store.Raw, error) {
	var raw store.Raw
	err := row.Scan(&raw.Items, &raw.Version, &raw.CreatedAt, &raw.UpdatedAt)
	return raw, err
}

// Migrate applies the embedded schema migrations.
func Migrate(databaseURL string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("open db for migrations: %w", err)
	}
	defer db.Close()

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
