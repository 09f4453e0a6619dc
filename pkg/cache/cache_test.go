package cache

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/pario-ai/recap/pkg/cache/sqlite"
	"github.com/pario-ai/recap/pkg/logging"
	"github.com/pario-ai/recap/pkg/models"
)

type memStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	expiry map[string]time.Time
	getErr error
	putErr error
	gets   int
	puts   int
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte), expiry: make(map[string]time.Time)}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, time.Time{}, false, m.getErr
	}
	v, ok := m.data[key]
	return v, m.expiry[key], ok, nil
}

func (m *memStore) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.data[key] = value
	m.expiry[key] = time.Now().Add(ttl)
	return nil
}

func sampleResponse() models.CachedResponse {
	title := "Never Gonna Give You Up"
	ms := int64(42)
	return models.CachedResponse{
		Success:        true,
		SubjectID:      "dQw4w9WgXcQ",
		Title:          &title,
		Summary:        "hi",
		Chapters:       []models.Chapter{{Time: "00:00", Title: "intro"}},
		Model:          "m1",
		ProcessedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		ResponseTimeMs: &ms,
	}
}

func TestPutThenGetDurable(t *testing.T) {
	store, err := sqlite.New(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	c := New(store, WithLogger(logging.Discard()))
	ctx := context.Background()
	want := sampleResponse()

	c.Put(ctx, "k", want, time.Hour)

	got, ok := c.Get(ctx, "k")
	if !ok {
		t.Fatal("expected hit")
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", *got, want)
	}
	if s := c.Stats(); s.DurableHits != 1 {
		t.Errorf("expected 1 durable hit, got %+v", s)
	}
}

func TestLocalTierServesWithoutStore(t *testing.T) {
	store := newMemStore()
	c := New(store, WithLocal(16, time.Minute), WithLogger(logging.Discard()))
	ctx := context.Background()

	c.Put(ctx, "k", sampleResponse(), time.Hour)
	got, ok := c.Get(ctx, "k")
	if !ok || got.Summary != "hi" {
		t.Fatalf("expected local hit, got %v %v", got, ok)
	}
	if store.gets != 0 {
		t.Errorf("local hit should not touch the durable tier, got %d gets", store.gets)
	}
	if s := c.Stats(); s.LocalHits != 1 {
		t.Errorf("expected 1 local hit, got %+v", s)
	}
}

func TestDurableHitRefillsLocal(t *testing.T) {
	store := newMemStore()
	writer := New(store, WithLogger(logging.Discard()))
	ctx := context.Background()
	writer.Put(ctx, "k", sampleResponse(), time.Hour)

	reader := New(store, WithLocal(16, time.Minute), WithLogger(logging.Discard()))
	if _, ok := reader.Get(ctx, "k"); !ok {
		t.Fatal("expected durable hit")
	}
	if _, ok := reader.Get(ctx, "k"); !ok {
		t.Fatal("expected local hit")
	}
	if store.gets != 1 {
		t.Errorf("second read should be local, durable gets = %d", store.gets)
	}
}

func TestExpiryIsColdMiss(t *testing.T) {
	store, err := sqlite.New(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	c := New(store, WithLocal(16, time.Minute), WithLogger(logging.Discard()))
	ctx := context.Background()
	c.Put(ctx, "k", sampleResponse(), 5*time.Millisecond)

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expected miss after ttl")
	}
	if _, ok := c.Get(ctx, "never"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestDurableRefillKeepsDurableExpiry(t *testing.T) {
	store, err := sqlite.New(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	writer := New(store, WithLogger(logging.Discard()))
	writer.Put(ctx, "k", sampleResponse(), 50*time.Millisecond)

	reader := New(store, WithLocal(16, time.Hour), WithLogger(logging.Discard()))
	if _, ok := reader.Get(ctx, "k"); !ok {
		t.Fatal("expected durable hit before ttl")
	}

	time.Sleep(120 * time.Millisecond)

	if _, ok := reader.Get(ctx, "k"); ok {
		t.Errorf("local refill outlived the durable entry, stats %+v", reader.Stats())
	}
}

func TestRefillUsesEarlierOfLocalAndDurableExpiry(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	New(store, WithLogger(logging.Discard())).Put(ctx, "k", sampleResponse(), time.Minute)

	reader := New(store, WithLocal(16, time.Hour), WithLogger(logging.Discard()))
	now := time.Now()
	reader.now = func() time.Time { return now }
	if _, ok := reader.Get(ctx, "k"); !ok {
		t.Fatal("expected durable hit")
	}

	e, ok := reader.local.Peek("k")
	if !ok {
		t.Fatal("expected local refill")
	}
	if want := store.expiry["k"]; !e.expires.Equal(want) {
		t.Errorf("local expiry = %v, want durable expiry %v", e.expires, want)
	}
}

func TestStoreFailuresDegrade(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("connection refused")
	store.putErr = errors.New("connection refused")
	c := New(store, WithLogger(logging.Discard()))
	ctx := context.Background()

	c.Put(ctx, "k", sampleResponse(), time.Hour) // must not panic
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("backend failure should read as a miss")
	}
	if s := c.Stats(); s.Misses != 1 {
		t.Errorf("expected 1 miss, got %+v", s)
	}
}

func TestUndecodableEntryIsMiss(t *testing.T) {
	store := newMemStore()
	store.data["k"] = []byte("not json")
	c := New(store, WithLogger(logging.Discard()))

	if _, ok := c.Get(context.Background(), "k"); ok {
		t.Error("undecodable value should read as a miss")
	}
}

func TestNilStoreDisablesDurableTier(t *testing.T) {
	c := New(nil)
	ctx := context.Background()
	c.Put(ctx, "k", sampleResponse(), time.Hour)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("cache with no tiers should always miss")
	}
}

func TestPutClearsCachedFlag(t *testing.T) {
	store := newMemStore()
	c := New(store, WithLogger(logging.Discard()))
	ctx := context.Background()

	resp := sampleResponse()
	resp.Cached = true
	c.Put(ctx, "k", resp, time.Hour)

	got, ok := c.Get(ctx, "k")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Cached {
		t.Error("stored value should not carry cached=true")
	}
}
