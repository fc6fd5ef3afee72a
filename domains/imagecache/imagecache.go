package imagecache

import (
	"context"
	"time"
)

// DefaultTTL is how long a downloaded image stays valid.
const DefaultTTL = 7 * 24 * time.Hour

// MetadataKeyPrefix namespaces image metadata records in the key-value store.
const MetadataKeyPrefix = "image_cache:"

// ImageCacheMetadata is the authority on whether a cached image is usable.
// Timestamps are epoch milliseconds.
type ImageCacheMetadata struct {
	URL       string `json:"url"`
	LocalURI  string `json:"localUri"`
	CachedAt  int64  `json:"cachedAt"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Stats summarises the on-disk image cache.
type Stats struct {
	Entries   int    `json:"entries"`
	TotalSize int64  `json:"total_size"`
	HumanSize string `json:"human_size"`
}

// IFileStore stores binary content addressed by opaque handles.
type IFileStore interface {
	// Handle derives the local handle for a cache id.
	Handle(id string) string
	Exists(handle string) (bool, error)
	// Write replaces whatever exists at handle with data.
	Write(handle string, data []byte) error
	// Delete removes handle. A missing file is not an error.
	Delete(handle string) error
	Size(handle string) (int64, error)
}

// IFetcher downloads a remote resource in full.
type IFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type IImageCacheUsecase interface {
	// CacheImage returns a local handle for url, downloading it when no valid copy exists.
	CacheImage(ctx context.Context, url string) (string, error)
	// GetCachedImage never downloads.
	GetCachedImage(ctx context.Context, url string) (string, bool)
	// ClearImageCache removes every cached image and returns how many records were removed.
	ClearImageCache(ctx context.Context) (int, error)
	// ClearExpiredCache removes only invalid entries.
	ClearExpiredCache(ctx context.Context) (int, error)
	GetStats(ctx context.Context) (Stats, error)
	StartBackgroundCleanup(ctx context.Context) error
	Stop()
}

type CacheImageRequest struct {
	URL string `json:"url" form:"url"`
}

type CacheImageResponse struct {
	URL      string `json:"url"`
	LocalURI string `json:"local_uri"`
}
