package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AzielCF/az-gym/core/config"
	domainCache "github.com/AzielCF/az-gym/domains/cache"
	domainKV "github.com/AzielCF/az-gym/domains/kvstore"
	domainSession "github.com/AzielCF/az-gym/domains/session"
	pkgError "github.com/AzielCF/az-gym/pkg/error"
	"github.com/AzielCF/az-gym/pkg/keyspace"
	"github.com/AzielCF/az-gym/pkg/timeutils"
)

type cacheService struct {
	store    domainKV.IKeyValueStore
	prefix   string
	version  int
	defaults domainCache.FetchOptions
	identity domainSession.IIdentityProvider
	now      func() time.Time

	bgCtx    context.Context
	bgCancel context.CancelFunc
	bg       sync.WaitGroup
	bgMu     sync.Mutex
	draining int
}

// CacheOption customises a cache service at construction.
type CacheOption func(*cacheService)

// WithClock replaces time.Now, letting tests age entries without sleeping.
func WithClock(now func() time.Time) CacheOption {
	return func(s *cacheService) {
		s.now = now
	}
}

// WithIdentity sets the provider used by KeyFor.
func WithIdentity(p domainSession.IIdentityProvider) CacheOption {
	return func(s *cacheService) {
		s.identity = p
	}
}

// NewCacheService builds the TTL cache over store. Background work started
// through RunBackground is detached from request contexts and awaited by Drain.
func NewCacheService(store domainKV.IKeyValueStore, cfg config.CacheConfig, opts ...CacheOption) domainCache.ICacheUsecase {
	s := &cacheService{
		store:   store,
		prefix:  cfg.KeyPrefix,
		version: cfg.SchemaVersion,
		defaults: domainCache.FetchOptions{
			Timeout: cfg.FetchTimeout,
			MaxAge:  cfg.DefaultMaxAge,
		},
		identity: domainSession.StaticIdentity{},
		now:      time.Now,
	}
	if s.prefix == "" {
		s.prefix = "cache:"
	}
	if s.defaults.Timeout <= 0 {
		s.defaults.Timeout = domainCache.DefaultFetchTimeout
	}
	if s.defaults.MaxAge <= 0 {
		s.defaults.MaxAge = domainCache.MaxAgeMedium
	}
	for _, opt := range opts {
		opt(s)
	}
	s.bgCtx, s.bgCancel = context.WithCancel(context.Background())
	return s
}

func (s *cacheService) storeKey(key string) string {
	return s.prefix + key
}

// readEntry is the internal, error-returning read. A nil entry with a nil
// error means the key is absent.
func (s *cacheService) readEntry(ctx context.Context, key string) (*domainCache.CacheEntry, error) {
	raw, ok, err := s.store.Get(ctx, s.storeKey(key))
	if err != nil {
		return nil, pkgError.NewCacheError("read", key, pkgError.CacheErrorStoreIO, err)
	}
	if !ok {
		return nil, nil
	}

	var entry domainCache.CacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, pkgError.NewCacheError("read", key, pkgError.CacheErrorDecode, err)
	}
	if len(entry.Data) == 0 {
		return nil, pkgError.NewCacheError("read", key, pkgError.CacheErrorDecode, errors.New("entry has no data"))
	}
	return &entry, nil
}

func (s *cacheService) writeEntry(ctx context.Context, key string, entry domainCache.CacheEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return pkgError.NewCacheError("write", key, pkgError.CacheErrorEncode, err)
	}
	if err := s.store.Set(ctx, s.storeKey(key), string(raw)); err != nil {
		return pkgError.NewCacheError("write", key, pkgError.CacheErrorStoreIO, err)
	}
	return nil
}

func (s *cacheService) deleteKey(ctx context.Context, key string) error {
	if err := s.store.Remove(ctx, s.storeKey(key)); err != nil {
		return pkgError.NewCacheError("remove", key, pkgError.CacheErrorStoreIO, err)
	}
	return nil
}

// removeStoreKeys batch-removes the raw store keys under the prefix that
// pick selects. pick receives every prefixed key.
func (s *cacheService) removeStoreKeys(ctx context.Context, op string, pick func(storeKeys []string) []string) error {
	keys, err := s.store.ListKeys(ctx)
	if err != nil {
		return pkgError.NewCacheError(op, s.prefix+"*", pkgError.CacheErrorStoreIO, err)
	}

	targets := pick(keyspace.FilterByPrefix(keys, s.prefix))
	if len(targets) == 0 {
		return nil
	}
	if err := s.store.RemoveMany(ctx, targets); err != nil {
		return pkgError.NewCacheError(op, s.prefix+"*", pkgError.CacheErrorStoreIO, err)
	}
	logrus.Debugf("[CACHE] %s removed %d keys", op, len(targets))
	return nil
}

// collapse is the public boundary of the cache: an internal failure is logged
// and turned into a miss.
func collapse[T any](v T, err error) (T, bool) {
	if err != nil {
		logCacheError(err)
		var zero T
		return zero, false
	}
	return v, true
}

func logCacheError(err error) {
	entry := logrus.WithError(err)
	var cacheErr *pkgError.CacheError
	if errors.As(err, &cacheErr) {
		entry = entry.WithFields(logrus.Fields{"op": cacheErr.Op, "key": cacheErr.Key, "kind": cacheErr.Kind})
	}
	entry.Warn("[CACHE] Cache operation failed, continuing without cache")
}

func isCacheErrorKind(err error, kind pkgError.CacheErrorKind) bool {
	var cacheErr *pkgError.CacheError
	return errors.As(err, &cacheErr) && cacheErr.Kind == kind
}

func (s *cacheService) age(entry *domainCache.CacheEntry) time.Duration {
	return timeutils.AgeSince(entry.Timestamp, s.now())
}

func (s *cacheService) evict(ctx context.Context, key, reason string) {
	if _, ok := collapse(struct{}{}, s.deleteKey(ctx, key)); ok {
		logrus.Debugf("[CACHE] Evicted %s entry %s", reason, key)
	}
}

func (s *cacheService) Get(ctx context.Context, key string, maxAge time.Duration) (json.RawMessage, bool) {
	entry, err := s.readEntry(ctx, key)
	if isCacheErrorKind(err, pkgError.CacheErrorDecode) {
		s.evict(ctx, key, "corrupt")
	}
	entry, ok := collapse(entry, err)
	if !ok || entry == nil {
		return nil, false
	}

	if s.age(entry) > maxAge {
		s.evict(ctx, key, "expired")
		return nil, false
	}
	return entry.Data, true
}

func (s *cacheService) GetWithStale(ctx context.Context, key string, maxAge time.Duration) domainCache.StaleRead {
	entry, ok := collapse(s.readEntry(ctx, key))
	if !ok || entry == nil {
		return domainCache.StaleRead{}
	}

	age := s.age(entry)
	return domainCache.StaleRead{
		Data:    entry.Data,
		Found:   true,
		IsStale: age > maxAge,
		Age:     age,
	}
}

func (s *cacheService) Save(ctx context.Context, key string, data json.RawMessage) {
	entry := domainCache.CacheEntry{
		Data:      data,
		Timestamp: timeutils.UnixMillis(s.now()),
	}
	if s.version > 0 {
		v := s.version
		entry.Version = &v
	}
	collapse(struct{}{}, s.writeEntry(ctx, key, entry))
}

func (s *cacheService) Entry(ctx context.Context, key string, maxAge time.Duration) (*domainCache.EntryInfo, bool) {
	entry, ok := collapse(s.readEntry(ctx, key))
	if !ok || entry == nil {
		return nil, false
	}
	age := s.age(entry)
	return &domainCache.EntryInfo{
		CacheEntry: *entry,
		Age:        age,
		IsStale:    age > maxAge,
	}, true
}

func (s *cacheService) Remove(ctx context.Context, key string) {
	collapse(struct{}{}, s.deleteKey(ctx, key))
}

func (s *cacheService) ClearAll(ctx context.Context) {
	collapse(struct{}{}, s.removeStoreKeys(ctx, "clear_all", func(keys []string) []string { return keys }))
}

func (s *cacheService) ClearUser(ctx context.Context) {
	appConfig := s.storeKey(domainCache.KeyAppConfig)
	collapse(struct{}{}, s.removeStoreKeys(ctx, "clear_user", func(keys []string) []string {
		return keyspace.Exclude(keys, func(k string) bool {
			return keyspace.IsVariantOf(k, appConfig)
		})
	}))
}

func (s *cacheService) ClearLeaderboard(ctx context.Context) {
	leaderboard := s.storeKey(domainCache.KeyLeaderboard)
	collapse(struct{}{}, s.removeStoreKeys(ctx, "clear_leaderboard", func(keys []string) []string {
		return keyspace.Exclude(keys, func(k string) bool {
			return !keyspace.IsVariantOf(k, leaderboard)
		})
	}))
}

func (s *cacheService) Keys(ctx context.Context) []string {
	keys, err := s.store.ListKeys(ctx)
	if err != nil {
		collapse(struct{}{}, pkgError.NewCacheError("list", s.prefix+"*", pkgError.CacheErrorStoreIO, err))
		return []string{}
	}

	out := make([]string, 0, len(keys))
	for _, k := range keyspace.FilterByPrefix(keys, s.prefix) {
		out = append(out, strings.TrimPrefix(k, s.prefix))
	}
	return out
}

func (s *cacheService) KeyFor(ctx context.Context, base string) string {
	id := s.identity.Current(ctx)
	if base == domainCache.KeyAppConfig {
		return keyspace.ScopedKey(base, id.TenantSlug)
	}
	return keyspace.ScopedKey(base, keyspace.Scope(id.TenantSlug, id.UserID))
}

func (s *cacheService) FetchDefaults() domainCache.FetchOptions {
	return s.defaults
}

func (s *cacheService) RunBackground(name string, fn func(ctx context.Context)) bool {
	s.bgMu.Lock()
	if s.draining > 0 {
		s.bgMu.Unlock()
		logrus.Warnf("[CACHE] Dropping background task %s, cache is draining", name)
		return false
	}
	s.bg.Add(1)
	s.bgMu.Unlock()

	go func() {
		defer s.bg.Done()
		defer func() {
			if r := recover(); r != nil {
				logrus.Errorf("[CACHE] Background task %s panic: %v", name, r)
			}
		}()
		fn(s.bgCtx)
	}()
	return true
}

// Drain waits for background refreshes. When ctx ends first, the remaining
// tasks are told to stop through their context and ctx.Err() is returned.
// RunBackground refuses new work until every pending wait has returned.
func (s *cacheService) Drain(ctx context.Context) error {
	s.bgMu.Lock()
	s.draining++
	s.bgMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.bg.Wait()
		s.bgMu.Lock()
		s.draining--
		s.bgMu.Unlock()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.bgCancel()
		return ctx.Err()
	}
}
