package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Max-age policy. Callers pick one per data volatility instead of hardcoding durations.
const (
	MaxAgeShort    = 5 * time.Minute
	MaxAgeMedium   = 1 * time.Hour
	MaxAgeLong     = 4 * time.Hour
	MaxAgeVeryLong = 24 * time.Hour
)

// DefaultFetchTimeout bounds how long FetchWithCacheFallback waits for a live
// producer before answering from cache.
const DefaultFetchTimeout = 4 * time.Second

// CacheEntry is the persisted form of every cached value.
type CacheEntry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"` // epoch milliseconds at write time
	Version   *int            `json:"version,omitempty"`
}

// EntryInfo is a stored entry with its age measured on the cache's clock.
type EntryInfo struct {
	CacheEntry
	Age     time.Duration
	IsStale bool
}

// StaleRead is the raw result of a stale-tolerant read.
type StaleRead struct {
	Data    json.RawMessage
	Found   bool
	IsStale bool
	Age     time.Duration
}

// StaleResult is the typed result of a stale-tolerant read. Age is only
// meaningful when Found is true.
type StaleResult[T any] struct {
	Data    T
	Found   bool
	IsStale bool
	Age     time.Duration
}

// FetchResult is returned by FetchWithCacheFallback.
type FetchResult[T any] struct {
	Data      T
	FromCache bool
}

// FetchOptions tune a single FetchWithCacheFallback call.
type FetchOptions struct {
	Timeout time.Duration
	MaxAge  time.Duration
}

// ICacheUsecase is the best-effort TTL cache. No method returns an error:
// store failures are logged and degrade to a miss (reads) or a no-op (writes).
// Keys passed in are logical keys; the service applies its own prefix.
type ICacheUsecase interface {
	// Get returns the payload only while it is fresh. Expired or undecodable
	// entries are deleted and reported as a miss.
	Get(ctx context.Context, key string, maxAge time.Duration) (json.RawMessage, bool)
	// GetWithStale returns whatever is stored plus its staleness. It never deletes.
	GetWithStale(ctx context.Context, key string, maxAge time.Duration) StaleRead
	// Save wraps data with the current timestamp and writes it.
	Save(ctx context.Context, key string, data json.RawMessage)
	// Entry returns the stored entry as-is with its age against maxAge. It
	// never deletes.
	Entry(ctx context.Context, key string, maxAge time.Duration) (*EntryInfo, bool)
	Remove(ctx context.Context, key string)
	// ClearAll removes every key under the cache prefix.
	ClearAll(ctx context.Context)
	// ClearUser removes every cached key except the tenant-scoped app config.
	ClearUser(ctx context.Context)
	// ClearLeaderboard removes every leaderboard variant.
	ClearLeaderboard(ctx context.Context)
	// Keys lists logical keys currently cached.
	Keys(ctx context.Context) []string
	// KeyFor scopes base by the current tenant and user. KeyAppConfig is
	// scoped by tenant only.
	KeyFor(ctx context.Context, base string) string
	// FetchDefaults returns the configured timeout and max age for FetchWithCacheFallback.
	FetchDefaults() FetchOptions

	// RunBackground runs fn detached from the caller and tracks it until Drain.
	// Work submitted while a Drain is in progress is dropped and reported false.
	RunBackground(name string, fn func(ctx context.Context)) bool
	// Drain waits for background work to finish or ctx to end.
	Drain(ctx context.Context) error
}

// EntryRequest addresses a single entry from the inspector API.
type EntryRequest struct {
	Key    string        `json:"key"`
	MaxAge time.Duration `json:"max_age"`
}

// EntryResponse describes a cached entry for the inspector API.
type EntryResponse struct {
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
	Age       string          `json:"age"`
	IsStale   bool            `json:"is_stale"`
	Version   *int            `json:"version,omitempty"`
}
