// Package cache implements the two-tier summary cache: a process-local LRU in
// front of a durable key-value store. Neither tier failing turns into a
// request failure; durable errors degrade to a miss or a logged no-op.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/pario-ai/recap/pkg/models"
)

// Store is the durable tier. Get returns the value and its expiry, reporting
// ok=false for missing or expired keys; a non-nil error means the backend
// itself failed.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, expiresAt time.Time, ok bool, err error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type localEntry struct {
	resp    models.CachedResponse
	expires time.Time
}

// Tiered is a read-through, write-through cache of summary responses.
type Tiered struct {
	store    Store
	local    *expirable.LRU[string, localEntry]
	localTTL time.Duration
	logger   *slog.Logger
	now      func() time.Time

	localHits   atomic.Int64
	durableHits atomic.Int64
	misses      atomic.Int64
}

// Option customizes a Tiered cache.
type Option func(*Tiered)

// WithLocal enables the process-local tier with the given capacity. ttl bounds
// how long an entry may live locally regardless of its durable TTL; a
// non-positive size or ttl leaves the local tier disabled.
func WithLocal(size int, ttl time.Duration) Option {
	return func(t *Tiered) {
		if size > 0 && ttl > 0 {
			t.local = expirable.NewLRU[string, localEntry](size, nil, ttl)
			t.localTTL = ttl
		}
	}
}

// WithLogger sets the logger used for degraded backend operations.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tiered) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New creates a Tiered cache over store. A nil store disables the durable tier.
func New(store Store, opts ...Option) *Tiered {
	t := &Tiered{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Get returns the cached response for key. Backend failures and undecodable
// values are reported as a miss.
func (t *Tiered) Get(ctx context.Context, key string) (*models.CachedResponse, bool) {
	if t.local != nil {
		if e, ok := t.local.Get(key); ok {
			if t.now().Before(e.expires) {
				t.localHits.Add(1)
				resp := e.resp
				return &resp, true
			}
			t.local.Remove(key)
		}
	}

	if t.store == nil {
		t.misses.Add(1)
		return nil, false
	}

	data, expiresAt, ok, err := t.store.Get(ctx, key)
	if err != nil {
		t.logger.Warn("cache read failed, treating as miss", "key", key, "error", err)
		t.misses.Add(1)
		return nil, false
	}
	if !ok {
		t.misses.Add(1)
		return nil, false
	}

	var resp models.CachedResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.logger.Warn("cache entry undecodable, treating as miss", "key", key, "error", err)
		t.misses.Add(1)
		return nil, false
	}

	t.durableHits.Add(1)
	if t.local != nil {
		// A refill never outlives the durable entry.
		expires := t.now().Add(t.localTTL)
		if !expiresAt.IsZero() && expiresAt.Before(expires) {
			expires = expiresAt
		}
		t.local.Add(key, localEntry{resp: resp, expires: expires})
	}
	return &resp, true
}

// Put writes resp to the durable tier and then to the local tier. Durable
// failures are logged and otherwise ignored.
func (t *Tiered) Put(ctx context.Context, key string, resp models.CachedResponse, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	resp.Cached = false

	if t.store != nil {
		data, err := json.Marshal(resp)
		if err != nil {
			t.logger.Warn("cache encode failed", "key", key, "error", err)
			return
		}
		if err := t.store.Put(ctx, key, data, ttl); err != nil {
			t.logger.Warn("cache write failed", "key", key, "error", err)
		}
	}

	if t.local != nil {
		t.local.Add(key, localEntry{resp: resp, expires: t.now().Add(ttl)})
	}
}

// Stats reports how lookups were served.
func (t *Tiered) Stats() models.TierStats {
	return models.TierStats{
		LocalHits:   t.localHits.Load(),
		DurableHits: t.durableHits.Load(),
		Misses:      t.misses.Load(),
	}
}
