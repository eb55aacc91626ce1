// Package memory is an in-process hotel document backend for tests and local runs.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hotelops/api/internal/store"
)

type key struct {
	hotelID string
	coll    store.Collection
}

type Backend struct {
	mu   sync.Mutex
	docs map[key]store.Raw
	now  func() time.Time
}

func New() *Backend {
	return &Backend{
		docs: make(map[key]store.Raw),
		now:  time.Now,
	}
}

func (b *Backend) Load(ctx context.Context, hotelID string, coll store.Collection) (store.Raw, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	raw, ok := b.docs[key{hotelID, coll}]
	if !ok {
		return store.Raw{}, store.ErrNotFound
	}
	return clone(raw), nil
}

func (b *Backend) Create(ctx context.Context, hotelID string, coll store.Collection, items []byte) (store.Raw, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	k := key{hotelID, coll}
	if _, ok := b.docs[k]; ok {
		return store.Raw{}, store.ErrExists
	}
	now := b.now()
	raw := store.Raw{Items: copyBytes(items), Version: 1, CreatedAt: now, UpdatedAt: now}
	b.docs[k] = raw
	return clone(raw), nil
}

func (b *Backend) Save(ctx context.Context, hotelID string, coll store.Collection, items []byte, expected int64) (store.Raw, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	k := key{hotelID, coll}
	raw, ok := b.docs[k]
	if !ok {
		return store.Raw{}, store.ErrNotFound
	}
	if raw.Version != expected {
		return store.Raw{}, store.ErrVersionConflict
	}
	raw.Items = copyBytes(items)
	raw.Version++
	raw.UpdatedAt = b.now()
	b.docs[k] = raw
	return clone(raw), nil
}

func clone(raw store.Raw) store.Raw {
	raw.Items = copyBytes(raw.Items)
	return raw
}

func copyBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
