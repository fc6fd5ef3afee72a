package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AzielCF/az-gym/core/config"
	domainCache "github.com/AzielCF/az-gym/domains/cache"
	domainSession "github.com/AzielCF/az-gym/domains/session"
	"github.com/AzielCF/az-gym/infrastructure/kvstore"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var errStoreDown = errors.New("store unavailable")

// failingStore fails every operation.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) { return "", false, errStoreDown }
func (failingStore) Set(context.Context, string, string) error         { return errStoreDown }
func (failingStore) Remove(context.Context, string) error              { return errStoreDown }
func (failingStore) ListKeys(context.Context) ([]string, error)        { return nil, errStoreDown }
func (failingStore) RemoveMany(context.Context, []string) error        { return errStoreDown }

// countingStore records how many writes reach the underlying store.
type countingStore struct {
	*kvstore.MemoryStore
	sets atomic.Int64
}

func (s *countingStore) Set(ctx context.Context, key, value string) error {
	s.sets.Add(1)
	return s.MemoryStore.Set(ctx, key, value)
}

func testCacheConfig() config.CacheConfig {
	return config.CacheConfig{
		KeyPrefix:     "cache:",
		FetchTimeout:  100 * time.Millisecond,
		DefaultMaxAge: domainCache.MaxAgeMedium,
	}
}

func newTestCache(t *testing.T, opts ...CacheOption) (*cacheService, *kvstore.MemoryStore) {
	t.Helper()

	store := kvstore.NewMemoryStore()
	opts = append([]CacheOption{WithIdentity(domainSession.StaticIdentity{TenantSlug: "acme", UserID: "u1"})}, opts...)
	svc := NewCacheService(store, testCacheConfig(), opts...).(*cacheService)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = svc.Drain(ctx)
	})
	return svc, store
}

func newMemoryStoreForTest() *kvstore.MemoryStore {
	return kvstore.NewMemoryStore()
}

// config0 is a cache config with every field left at its zero value.
func config0() config.CacheConfig {
	return config.CacheConfig{}
}
