package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	domainCache "github.com/AzielCF/az-gym/domains/cache"
	pkgError "github.com/AzielCF/az-gym/pkg/error"
)

// GetFromCache returns the fresh value stored under key decoded as T. A
// payload that does not decode into T is reported as a miss and left in place.
func GetFromCache[T any](ctx context.Context, c domainCache.ICacheUsecase, key string, maxAge time.Duration) (T, bool) {
	var out T
	raw, ok := c.Get(ctx, key, maxAge)
	if !ok {
		return out, false
	}
	if err := decodePayload(key, raw, &out); err != nil {
		logCacheError(err)
		return out, false
	}
	return out, true
}

// GetFromCacheWithStale is the stale-tolerant typed read used for fallbacks.
func GetFromCacheWithStale[T any](ctx context.Context, c domainCache.ICacheUsecase, key string, maxAge time.Duration) domainCache.StaleResult[T] {
	read := c.GetWithStale(ctx, key, maxAge)
	if !read.Found {
		return domainCache.StaleResult[T]{}
	}

	var out T
	if err := decodePayload(key, read.Data, &out); err != nil {
		logCacheError(err)
		return domainCache.StaleResult[T]{}
	}
	return domainCache.StaleResult[T]{
		Data:    out,
		Found:   true,
		IsStale: read.IsStale,
		Age:     read.Age,
	}
}

// SaveToCache encodes data and stores it under key. Values that cannot be
// encoded are logged and skipped.
func SaveToCache[T any](ctx context.Context, c domainCache.ICacheUsecase, key string, data T) {
	raw, err := json.Marshal(data)
	if err != nil {
		logCacheError(pkgError.NewCacheError("write", key, pkgError.CacheErrorEncode, err))
		return
	}
	c.Save(ctx, key, raw)
}

func decodePayload(key string, raw json.RawMessage, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		logrus.Debugf("[CACHE] Payload for %s does not match %T", key, out)
		return pkgError.NewCacheError("read", key, pkgError.CacheErrorDecode, err)
	}
	return nil
}
