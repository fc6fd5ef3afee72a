package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/AzielCF/az-gym/core/config"
	domainImage "github.com/AzielCF/az-gym/domains/imagecache"
	domainKV "github.com/AzielCF/az-gym/domains/kvstore"
	pkgError "github.com/AzielCF/az-gym/pkg/error"
	"github.com/AzielCF/az-gym/pkg/keyspace"
	"github.com/AzielCF/az-gym/pkg/scheduler"
	"github.com/AzielCF/az-gym/pkg/timeutils"
)

const (
	defaultImageKeyLength   = 100
	minImageCleanupInterval = 5 * time.Minute
)

// ImageKey derives the cache id for url. The legacy scheme keeps only ASCII
// letters and digits and truncates to maxLen, so distinct URLs can collide.
// With hash set the id is the hex SHA-256 of the URL instead.
func ImageKey(url string, maxLen int, hash bool) string {
	if hash {
		sum := sha256.Sum256([]byte(url))
		return hex.EncodeToString(sum[:])
	}
	if maxLen <= 0 {
		maxLen = defaultImageKeyLength
	}

	key := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, url)
	if len(key) > maxLen {
		key = key[:maxLen]
	}
	return key
}

type imageCacheService struct {
	store   domainKV.IKeyValueStore
	files   domainImage.IFileStore
	fetcher domainImage.IFetcher
	cfg     config.ImagesConfig
	now     func() time.Time

	downloads       *singleflight.Group
	minCleanupEvery time.Duration

	mu    sync.Mutex
	sched *scheduler.Scheduler
}

// ImageCacheOption customises the image cache at construction.
type ImageCacheOption func(*imageCacheService)

func WithImageClock(now func() time.Time) ImageCacheOption {
	return func(s *imageCacheService) {
		s.now = now
	}
}

func NewImageCacheService(store domainKV.IKeyValueStore, files domainImage.IFileStore, fetcher domainImage.IFetcher, cfg config.ImagesConfig, opts ...ImageCacheOption) domainImage.IImageCacheUsecase {
	if cfg.TTL <= 0 {
		cfg.TTL = domainImage.DefaultTTL
	}
	s := &imageCacheService{
		store:           store,
		files:           files,
		fetcher:         fetcher,
		cfg:             cfg,
		now:             time.Now,
		minCleanupEvery: minImageCleanupInterval,
	}
	if cfg.CoalesceDownloads {
		s.downloads = &singleflight.Group{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *imageCacheService) id(url string) string {
	return ImageKey(url, s.cfg.KeyLength, s.cfg.HashKeys)
}

func metadataKey(id string) string {
	return domainImage.MetadataKeyPrefix + id
}

func (s *imageCacheService) readMetadata(ctx context.Context, key string) (domainImage.ImageCacheMetadata, bool) {
	var meta domainImage.ImageCacheMetadata
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("[IMAGE_CACHE] Failed to read metadata")
		return meta, false
	}
	if !ok {
		return meta, false
	}
	if err := json.Unmarshal([]byte(raw), &meta); err != nil || meta.LocalURI == "" {
		logrus.WithField("key", key).Debug("[IMAGE_CACHE] Ignoring unreadable metadata")
		return meta, false
	}
	return meta, true
}

// fileValid reports whether meta is unexpired and its file still exists.
func (s *imageCacheService) fileValid(meta domainImage.ImageCacheMetadata) bool {
	if timeutils.UnixMillis(s.now()) >= meta.ExpiresAt {
		return false
	}
	exists, err := s.files.Exists(meta.LocalURI)
	if err != nil {
		logrus.WithError(err).WithField("file", meta.LocalURI).Warn("[IMAGE_CACHE] Failed to stat cached file")
		return false
	}
	if !exists {
		logrus.WithField("file", meta.LocalURI).Debug("[IMAGE_CACHE] Cached file is gone, treating as miss")
	}
	return exists
}

func (s *imageCacheService) GetCachedImage(ctx context.Context, url string) (string, bool) {
	id := s.id(url)
	if id == "" {
		return "", false
	}
	key := metadataKey(id)
	meta, ok := s.readMetadata(ctx, key)
	if !ok {
		return "", false
	}
	if !s.fileValid(meta) {
		s.evict(ctx, key, meta, true)
		return "", false
	}
	return meta.LocalURI, true
}

func (s *imageCacheService) CacheImage(ctx context.Context, url string) (string, error) {
	id := s.id(url)
	if id == "" {
		return "", pkgError.ValidationError("image url must contain letters or digits")
	}
	if handle, ok := s.GetCachedImage(ctx, url); ok {
		return handle, nil
	}

	if s.downloads == nil {
		return s.download(ctx, url, id)
	}

	ch := s.downloads.DoChan(id, func() (any, error) {
		return s.download(context.WithoutCancel(ctx), url, id)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			logrus.Debugf("[IMAGE_CACHE] Shared in-flight download for %s", url)
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *imageCacheService) download(ctx context.Context, url, id string) (string, error) {
	if s.cfg.DownloadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.DownloadTimeout)
		defer cancel()
	}

	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", err
	}

	handle := s.files.Handle(id)
	if err := s.files.Write(handle, body); err != nil {
		return "", fmt.Errorf("failed to store image %s: %w", url, err)
	}

	now := s.now()
	meta := domainImage.ImageCacheMetadata{
		URL:       url,
		LocalURI:  handle,
		CachedAt:  timeutils.UnixMillis(now),
		ExpiresAt: timeutils.UnixMillis(now.Add(s.cfg.TTL)),
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to encode image metadata: %w", err)
	}
	if err := s.store.Set(ctx, metadataKey(id), string(raw)); err != nil {
		return "", fmt.Errorf("failed to save image metadata for %s: %w", url, err)
	}

	logrus.Debugf("[IMAGE_CACHE] Cached %s (%s)", url, humanize.Bytes(uint64(len(body))))
	return handle, nil
}

func (s *imageCacheService) metadataKeys(ctx context.Context) ([]string, error) {
	keys, err := s.store.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list image metadata: %w", err)
	}
	return keyspace.FilterByPrefix(keys, domainImage.MetadataKeyPrefix), nil
}

// evict deletes the file (if meta is known) and then the record. Failures are
// logged so a sweep can continue.
func (s *imageCacheService) evict(ctx context.Context, key string, meta domainImage.ImageCacheMetadata, hasMeta bool) bool {
	if hasMeta {
		if err := s.files.Delete(meta.LocalURI); err != nil {
			logrus.WithError(err).WithField("file", meta.LocalURI).Warn("[IMAGE_CACHE] Failed to delete cached file")
		}
	}
	if err := s.store.Remove(ctx, key); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("[IMAGE_CACHE] Failed to remove metadata")
		return false
	}
	return true
}

func (s *imageCacheService) ClearImageCache(ctx context.Context) (int, error) {
	keys, err := s.metadataKeys(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, key := range keys {
		meta, ok := s.readMetadata(ctx, key)
		if s.evict(ctx, key, meta, ok) {
			removed++
		}
	}
	logrus.Infof("[IMAGE_CACHE] Cleared %d cached images", removed)
	return removed, nil
}

func (s *imageCacheService) ClearExpiredCache(ctx context.Context) (int, error) {
	keys, err := s.metadataKeys(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, key := range keys {
		meta, ok := s.readMetadata(ctx, key)
		if ok && s.fileValid(meta) {
			continue
		}
		if s.evict(ctx, key, meta, ok) {
			removed++
		}
	}
	if removed > 0 {
		logrus.Infof("[IMAGE_CACHE] Removed %d expired images", removed)
	}
	return removed, nil
}

func (s *imageCacheService) GetStats(ctx context.Context) (domainImage.Stats, error) {
	keys, err := s.metadataKeys(ctx)
	if err != nil {
		return domainImage.Stats{}, err
	}

	stats := domainImage.Stats{Entries: len(keys)}
	for _, key := range keys {
		meta, ok := s.readMetadata(ctx, key)
		if !ok {
			continue
		}
		if size, err := s.files.Size(meta.LocalURI); err == nil {
			stats.TotalSize += size
		}
	}
	stats.HumanSize = humanize.Bytes(uint64(stats.TotalSize))
	return stats, nil
}

// StartBackgroundCleanup sweeps expired images once and then on every
// cleanup interval until Stop or ctx ends.
func (s *imageCacheService) StartBackgroundCleanup(ctx context.Context) error {
	if !s.cfg.CleanupEnabled {
		logrus.Info("[IMAGE_CACHE] Background cleanup disabled")
		return nil
	}

	interval := s.cfg.CleanupInterval
	if interval < s.minCleanupEvery {
		interval = s.minCleanupEvery
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sched != nil {
		return nil
	}

	sweep := func(ctx context.Context) {
		if _, err := s.ClearExpiredCache(ctx); err != nil {
			logrus.WithError(err).Warn("[IMAGE_CACHE] Scheduled cleanup failed")
		}
	}
	sweep(ctx)

	sched := scheduler.New(ctx)
	if _, err := sched.Every("image-cache-cleanup", interval, sweep); err != nil {
		return fmt.Errorf("failed to schedule image cleanup: %w", err)
	}
	s.sched = sched
	logrus.Infof("[IMAGE_CACHE] Background cleanup every %s", interval)
	return nil
}

func (s *imageCacheService) Stop() {
	s.mu.Lock()
	sched := s.sched
	s.sched = nil
	s.mu.Unlock()

	if sched != nil {
		sched.Stop()
	}
}
