package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hotelops/api/internal/reqlog"
	"github.com/redis/go-redis/v9"
)

const maxIdempotentBody = 1 << 20

// IdempotencyRecord is what a key remembers: the request it was first used
// with and, once the handler finished, the response to replay.
type IdempotencyRecord struct {
	RequestHash string          `json:"requestHash"`
	Done        bool            `json:"done"`
	Status      int             `json:"status,omitempty"`
	Body        json.RawMessage `json:"body,omitempty"`
}

// IdempotencyStore persists records. Reserve stores rec only if key is
// unused and otherwise returns the existing record.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key string, rec IdempotencyRecord, ttl time.Duration) (*IdempotencyRecord, error)
	Complete(ctx context.Context, key string, rec IdempotencyRecord, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// Idempotency replays the stored response when a mutating request is
// retried with the same Idempotency-Key. Keys are scoped per hotel and
// staff member; reusing a key with a different body is a 409.
func Idempotency(store IdempotencyStore, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("Idempotency-Key")
			if key == "" || r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotentBody+1))
			if err != nil {
				writeError(w, r, http.StatusBadRequest, "failed to read request body")
				return
			}
			if len(body) > maxIdempotentBody {
				writeError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			scope := ""
			if claims := ClaimsFromContext(r.Context()); claims != nil {
				scope = claims.HotelID + ":" + claims.StaffID
			}
			storeKey := "idem:" + scope + ":" + key
			rec := IdempotencyRecord{RequestHash: requestHash(r, body)}

			ctx := r.Context()
			existing, err := store.Reserve(ctx, storeKey, rec, ttl)
			if err != nil {
				reqlog.Printf(ctx, "ERROR: idempotency reserve %s: %v", key, err)
				writeError(w, r, http.StatusInternalServerError, "idempotency lookup failed")
				return
			}

			if existing != nil {
				switch {
				case existing.RequestHash != rec.RequestHash:
					writeError(w, r, http.StatusConflict, "Idempotency-Key was used with a different request")
				case !existing.Done:
					writeError(w, r, http.StatusConflict, "a request with this Idempotency-Key is still in progress")
				default:
					w.Header().Set("Content-Type", "application/json")
					w.Header().Set("Idempotent-Replayed", "true")
					w.WriteHeader(existing.Status)
					w.Write(existing.Body)
				}
				return
			}

			release := func() {
				if err := store.Release(context.WithoutCancel(ctx), storeKey); err != nil {
					reqlog.Printf(ctx, "ERROR: idempotency release %s: %v", key, err)
				}
			}

			crw := newCaptureResponseWriter(w)
			finished := false
			defer func() {
				// A panicking handler must not leave the key in progress.
				if !finished {
					release()
				}
			}()
			next.ServeHTTP(crw, r)
			finished = true

			// Server errors are not remembered so the client can retry.
			if crw.status >= http.StatusInternalServerError {
				release()
				return
			}
			rec.Done = true
			rec.Status = crw.status
			rec.Body = crw.buf.Bytes()
			if err := store.Complete(context.WithoutCancel(ctx), storeKey, rec, ttl); err != nil {
				reqlog.Printf(ctx, "ERROR: idempotency complete %s: %v", key, err)
			}
		})
	}
}

func requestHash(r *http.Request, body []byte) string {
	h := sha256.New()
	h.Write([]byte(r.Method + ":" + r.URL.Path + ":"))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// captureResponseWriter tees the response so it can be stored.
type captureResponseWriter struct {
	http.ResponseWriter
	status      int
	buf         bytes.Buffer
	wroteHeader bool
}

func newCaptureResponseWriter(w http.ResponseWriter) *captureResponseWriter {
	return &captureResponseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (c *captureResponseWriter) WriteHeader(status int) {
	if !c.wroteHeader {
		c.status = status
		c.wroteHeader = true
		c.ResponseWriter.WriteHeader(status)
	}
}

func (c *captureResponseWriter) Write(b []byte) (int, error) {
	c.buf.Write(b)
	return c.ResponseWriter.Write(b)
}

// RedisCmds is the subset of redis.Cmdable the idempotency store uses.
type RedisCmds interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisIdempotencyStore shares keys across API instances.
type RedisIdempotencyStore struct {
	client RedisCmds
}

func NewRedisIdempotencyStore(client RedisCmds) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key string, rec IdempotencyRecord, ttl time.Duration) (*IdempotencyRecord, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	ok, err := s.client.SetNX(ctx, key, data, ttl).Result()
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, nil
	}

	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; treat as in flight rather than racing.
		return &IdempotencyRecord{RequestHash: rec.RequestHash}, nil
	}
	if err != nil {
		return nil, err
	}
	var existing IdempotencyRecord
	if err := json.Unmarshal(raw, &existing); err != nil {
		return nil, err
	}
	return &existing, nil
}

func (s *RedisIdempotencyStore) Complete(ctx context.Context, key string, rec IdempotencyRecord, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// MemoryIdempotencyStore is the single-instance fallback when no Redis is
// configured.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	records map[string]memoryRecord
	now     func() time.Time
}

type memoryRecord struct {
	rec     IdempotencyRecord
	expires time.Time
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{records: map[string]memoryRecord{}, now: time.Now}
}

func (s *MemoryIdempotencyStore) Reserve(_ context.Context, key string, rec IdempotencyRecord, ttl time.Duration) (*IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if cur, ok := s.records[key]; ok && now.Before(cur.expires) {
		existing := cur.rec
		return &existing, nil
	}
	for k, r := range s.records {
		if !now.Before(r.expires) {
			delete(s.records, k)
		}
	}
	s.records[key] = memoryRecord{rec: rec, expires: now.Add(ttl)}
	return nil, nil
}

func (s *MemoryIdempotencyStore) Complete(_ context.Context, key string, rec IdempotencyRecord, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = memoryRecord{rec: rec, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}
