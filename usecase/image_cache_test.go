package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AzielCF/az-gym/core/config"
	domainImage "github.com/AzielCF/az-gym/domains/imagecache"
	"github.com/AzielCF/az-gym/infrastructure/filestore"
	"github.com/AzielCF/az-gym/infrastructure/kvstore"
	pkgError "github.com/AzielCF/az-gym/pkg/error"
)

type fakeFetcher struct {
	calls atomic.Int32
	delay time.Duration
	mu    sync.Mutex
	body  map[string][]byte
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{body: make(map[string][]byte)}
}

func (f *fakeFetcher) set(url, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.body[url] = []byte(body)
}

func (f *fakeFetcher) unset(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.body, url)
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.body[url]
	if !ok {
		return nil, &pkgError.DownloadError{URL: url, Status: 404, Err: errors.New("status 404")}
	}
	return body, nil
}

type imageFixture struct {
	svc     *imageCacheService
	store   *kvstore.MemoryStore
	files   *filestore.BillyStore
	fetcher *fakeFetcher
	clock   *fakeClock
}

func newImageFixture(t *testing.T, mutate func(*config.ImagesConfig)) *imageFixture {
	t.Helper()

	cfg := config.ImagesConfig{
		TTL:             domainImage.DefaultTTL,
		KeyLength:       100,
		CleanupEnabled:  true,
		CleanupInterval: time.Hour,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	f := &imageFixture{
		store:   kvstore.NewMemoryStore(),
		files:   filestore.NewMemory(),
		fetcher: newFakeFetcher(),
		clock:   newFakeClock(),
	}
	f.svc = NewImageCacheService(f.store, f.files, f.fetcher, cfg, WithImageClock(f.clock.Now)).(*imageCacheService)
	t.Cleanup(f.svc.Stop)
	return f
}

const avatarURL = "https://cdn.gym.test/members/42/avatar.png?v=3"

func TestImageKey(t *testing.T) {
	assert.Equal(t, "httpscdngymtestmembers42avatarpngv3", ImageKey(avatarURL, 100, false))
	assert.Equal(t, "httpscdn", ImageKey(avatarURL, 8, false))
	assert.Equal(t, ImageKey("https://a.b/c", 100, false), ImageKey("https://ab/c", 100, false), "legacy keys collide on stripped characters")

	long := "https://cdn.gym.test/" + strings.Repeat("x", 200)
	assert.Len(t, ImageKey(long, 0, false), 100)

	hashed := ImageKey(avatarURL, 100, true)
	assert.Len(t, hashed, 64)
	assert.NotEqual(t, ImageKey("https://a.b/c", 100, true), ImageKey("https://ab/c", 100, true))
}

func TestImageCache_DownloadsOnceThenServesLocal(t *testing.T) {
	f := newImageFixture(t, nil)
	f.fetcher.set(avatarURL, "PNG")
	ctx := context.Background()

	handle, err := f.svc.CacheImage(ctx, avatarURL)
	require.NoError(t, err)
	assert.Equal(t, f.files.Handle(ImageKey(avatarURL, 100, false)), handle)

	again, err := f.svc.CacheImage(ctx, avatarURL)
	require.NoError(t, err)
	assert.Equal(t, handle, again)
	assert.Equal(t, int32(1), f.fetcher.calls.Load())

	got, ok := f.svc.GetCachedImage(ctx, avatarURL)
	require.True(t, ok)
	assert.Equal(t, handle, got)

	size, err := f.files.Size(handle)
	require.NoError(t, err)
	assert.Equal(t, int64(3), size)
}

func TestImageCache_MetadataRecord(t *testing.T) {
	f := newImageFixture(t, nil)
	f.fetcher.set(avatarURL, "PNG")
	ctx := context.Background()

	handle, err := f.svc.CacheImage(ctx, avatarURL)
	require.NoError(t, err)

	meta, ok := f.svc.readMetadata(ctx, metadataKey(ImageKey(avatarURL, 100, false)))
	require.True(t, ok)
	assert.Equal(t, avatarURL, meta.URL)
	assert.Equal(t, handle, meta.LocalURI)
	assert.Equal(t, f.clock.Now().UnixMilli(), meta.CachedAt)
	assert.Equal(t, f.clock.Now().Add(7*24*time.Hour).UnixMilli(), meta.ExpiresAt)
}

func TestImageCache_ExpiredImageIsRedownloaded(t *testing.T) {
	f := newImageFixture(t, nil)
	f.fetcher.set(avatarURL, "v1")
	ctx := context.Background()

	_, err := f.svc.CacheImage(ctx, avatarURL)
	require.NoError(t, err)

	f.clock.Advance(domainImage.DefaultTTL)
	_, ok := f.svc.GetCachedImage(ctx, avatarURL)
	assert.False(t, ok, "entry expires exactly at ExpiresAt")

	f.fetcher.set(avatarURL, "version2")
	handle, err := f.svc.CacheImage(ctx, avatarURL)
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.fetcher.calls.Load())

	size, err := f.files.Size(handle)
	require.NoError(t, err)
	assert.Equal(t, int64(len("version2")), size)
}

func TestImageCache_MissingFileSelfHeals(t *testing.T) {
	f := newImageFixture(t, nil)
	f.fetcher.set(avatarURL, "PNG")
	ctx := context.Background()

	handle, err := f.svc.CacheImage(ctx, avatarURL)
	require.NoError(t, err)
	require.NoError(t, f.files.Unwrap().Remove(strings.TrimPrefix(handle, "/")))

	got, ok := f.svc.GetCachedImage(ctx, avatarURL)
	assert.False(t, ok)
	assert.Empty(t, got)

	_, err = f.svc.CacheImage(ctx, avatarURL)
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.fetcher.calls.Load())

	exists, err := f.files.Exists(handle)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestImageCache_MissingFileDropsRecord(t *testing.T) {
	f := newImageFixture(t, nil)
	f.fetcher.set(avatarURL, "PNG")
	ctx := context.Background()

	handle, err := f.svc.CacheImage(ctx, avatarURL)
	require.NoError(t, err)
	require.NoError(t, f.files.Unwrap().Remove(strings.TrimPrefix(handle, "/")))

	_, ok := f.svc.GetCachedImage(ctx, avatarURL)
	require.False(t, ok)

	keys, err := f.store.ListKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestImageCache_ExpiredImageDropsFileAndRecord(t *testing.T) {
	f := newImageFixture(t, nil)
	f.fetcher.set(avatarURL, "PNG")
	ctx := context.Background()

	handle, err := f.svc.CacheImage(ctx, avatarURL)
	require.NoError(t, err)

	f.clock.Advance(domainImage.DefaultTTL + time.Minute)
	f.fetcher.unset(avatarURL)

	_, err = f.svc.CacheImage(ctx, avatarURL)
	require.Error(t, err, "re-download fails")

	keys, err := f.store.ListKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	exists, err := f.files.Exists(handle)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestImageCache_DownloadFailurePropagates(t *testing.T) {
	f := newImageFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.CacheImage(ctx, "https://cdn.gym.test/missing.png")
	var dlErr *pkgError.DownloadError
	require.ErrorAs(t, err, &dlErr)
	assert.Equal(t, 404, dlErr.Status)

	keys, _ := f.store.ListKeys(ctx)
	assert.Empty(t, keys, "failed download must not leave metadata")
}

func TestImageCache_StoreFailurePropagates(t *testing.T) {
	files := filestore.NewMemory()
	fetcher := newFakeFetcher()
	fetcher.set(avatarURL, "PNG")
	svc := NewImageCacheService(failingStore{}, files, fetcher, config.ImagesConfig{})

	_, err := svc.CacheImage(context.Background(), avatarURL)
	assert.ErrorIs(t, err, errStoreDown)

	_, ok := svc.GetCachedImage(context.Background(), avatarURL)
	assert.False(t, ok)
}

func TestImageCache_EmptyURL(t *testing.T) {
	f := newImageFixture(t, nil)

	_, err := f.svc.CacheImage(context.Background(), "://")
	var vErr pkgError.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Zero(t, f.fetcher.calls.Load())
}

func TestImageCache_GetCachedImageNeverDownloads(t *testing.T) {
	f := newImageFixture(t, nil)
	f.fetcher.set(avatarURL, "PNG")

	_, ok := f.svc.GetCachedImage(context.Background(), avatarURL)
	assert.False(t, ok)
	assert.Zero(t, f.fetcher.calls.Load())
}

func TestImageCache_CorruptMetadataIsMiss(t *testing.T) {
	f := newImageFixture(t, nil)
	f.fetcher.set(avatarURL, "PNG")
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, metadataKey(ImageKey(avatarURL, 100, false)), "{broken"))

	_, ok := f.svc.GetCachedImage(ctx, avatarURL)
	assert.False(t, ok)

	_, err := f.svc.CacheImage(ctx, avatarURL)
	require.NoError(t, err)
	_, ok = f.svc.GetCachedImage(ctx, avatarURL)
	assert.True(t, ok)
}

func TestImageCache_ClearImageCache(t *testing.T) {
	f := newImageFixture(t, nil)
	ctx := context.Background()
	urls := []string{"https://cdn.gym.test/a.png", "https://cdn.gym.test/b.png", "https://cdn.gym.test/c.png"}
	for _, u := range urls {
		f.fetcher.set(u, u)
		_, err := f.svc.CacheImage(ctx, u)
		require.NoError(t, err)
	}
	require.NoError(t, f.store.Set(ctx, "cache:profile", `{"data":1,"timestamp":1}`))

	// One file already gone must not stop the sweep.
	require.NoError(t, f.files.Delete(f.files.Handle(ImageKey(urls[1], 100, false))))

	n, err := f.svc.ClearImageCache(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, u := range urls {
		exists, err := f.files.Exists(f.files.Handle(ImageKey(u, 100, false)))
		require.NoError(t, err)
		assert.False(t, exists)
	}
	keys, _ := f.store.ListKeys(ctx)
	assert.Equal(t, []string{"cache:profile"}, keys)
}

func TestImageCache_ClearExpiredCache(t *testing.T) {
	f := newImageFixture(t, nil)
	ctx := context.Background()

	f.fetcher.set("https://cdn.gym.test/old.png", "old")
	_, err := f.svc.CacheImage(ctx, "https://cdn.gym.test/old.png")
	require.NoError(t, err)

	f.clock.Advance(6 * 24 * time.Hour)
	f.fetcher.set("https://cdn.gym.test/new.png", "new")
	_, err = f.svc.CacheImage(ctx, "https://cdn.gym.test/new.png")
	require.NoError(t, err)

	f.clock.Advance(2 * 24 * time.Hour)
	require.NoError(t, f.store.Set(ctx, domainImage.MetadataKeyPrefix+"junk", "not json"))

	n, err := f.svc.ClearExpiredCache(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, ok := f.svc.GetCachedImage(ctx, "https://cdn.gym.test/new.png")
	assert.True(t, ok)
	exists, _ := f.files.Exists(f.files.Handle(ImageKey("https://cdn.gym.test/old.png", 100, false)))
	assert.False(t, exists)
}

func TestImageCache_ClearFailsWhenKeysUnavailable(t *testing.T) {
	svc := NewImageCacheService(failingStore{}, filestore.NewMemory(), newFakeFetcher(), config.ImagesConfig{})

	_, err := svc.ClearImageCache(context.Background())
	assert.Error(t, err)
	_, err = svc.ClearExpiredCache(context.Background())
	assert.Error(t, err)
	_, err = svc.GetStats(context.Background())
	assert.Error(t, err)
}

func TestImageCache_GetStats(t *testing.T) {
	f := newImageFixture(t, nil)
	ctx := context.Background()
	f.fetcher.set("https://cdn.gym.test/a.png", strings.Repeat("a", 1000))
	f.fetcher.set("https://cdn.gym.test/b.png", strings.Repeat("b", 500))
	for _, u := range []string{"https://cdn.gym.test/a.png", "https://cdn.gym.test/b.png"} {
		_, err := f.svc.CacheImage(ctx, u)
		require.NoError(t, err)
	}

	stats, err := f.svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, int64(1500), stats.TotalSize)
	assert.Equal(t, "1.5 kB", stats.HumanSize)
}

func TestImageCache_CoalescedDownloads(t *testing.T) {
	f := newImageFixture(t, func(c *config.ImagesConfig) { c.CoalesceDownloads = true })
	f.fetcher.delay = 50 * time.Millisecond
	f.fetcher.set(avatarURL, "PNG")

	var wg sync.WaitGroup
	handles := make([]string, 5)
	for i := range handles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := f.svc.CacheImage(context.Background(), avatarURL)
			assert.NoError(t, err)
			handles[i] = h
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), f.fetcher.calls.Load())
	for _, h := range handles {
		assert.Equal(t, handles[0], h)
	}
}

func TestImageCache_BackgroundCleanup(t *testing.T) {
	f := newImageFixture(t, func(c *config.ImagesConfig) { c.CleanupInterval = 10 * time.Millisecond })
	f.svc.minCleanupEvery = time.Millisecond
	ctx := context.Background()

	f.fetcher.set(avatarURL, "PNG")
	_, err := f.svc.CacheImage(ctx, avatarURL)
	require.NoError(t, err)

	require.NoError(t, f.svc.StartBackgroundCleanup(ctx))
	require.NoError(t, f.svc.StartBackgroundCleanup(ctx), "second start is a no-op")

	f.clock.Advance(8 * 24 * time.Hour)
	assert.Eventually(t, func() bool {
		keys, _ := f.store.ListKeys(ctx)
		return len(keys) == 0
	}, time.Second, 10*time.Millisecond)

	f.svc.Stop()
	f.svc.Stop()
}

func TestImageCache_BackgroundCleanupDisabled(t *testing.T) {
	f := newImageFixture(t, func(c *config.ImagesConfig) { c.CleanupEnabled = false })

	require.NoError(t, f.svc.StartBackgroundCleanup(context.Background()))
	assert.Nil(t, f.svc.sched)
}
