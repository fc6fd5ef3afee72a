package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	domainCache "github.com/AzielCF/az-gym/domains/cache"
)

// FetchOption tunes a single FetchWithCacheFallback call.
type FetchOption func(*domainCache.FetchOptions)

// WithTimeout sets how long to wait for the live producer before falling back to cache.
func WithTimeout(d time.Duration) FetchOption {
	return func(o *domainCache.FetchOptions) {
		o.Timeout = d
	}
}

// WithMaxAge sets the freshness window used to classify the cached fallback.
func WithMaxAge(d time.Duration) FetchOption {
	return func(o *domainCache.FetchOptions) {
		o.MaxAge = d
	}
}

type liveOutcome[T any] struct {
	data T
	err  error
}

// FetchWithCacheFallback races produce against a deadline. A live result that
// arrives in time is cached and returned. After the deadline any cached value,
// stale or not, is returned at once while produce keeps running in the
// background to refresh the cache. With nothing cached it waits for produce.
//
// A producer error is returned only when no cached value was served. Cancelling
// ctx abandons the wait; the producer still completes and persists in the
// background.
func FetchWithCacheFallback[T any](ctx context.Context, c domainCache.ICacheUsecase, key string, produce func(ctx context.Context) (T, error), opts ...FetchOption) (domainCache.FetchResult[T], error) {
	o := c.FetchDefaults()
	for _, opt := range opts {
		opt(&o)
	}

	live := make(chan liveOutcome[T], 1)
	go func() {
		var out liveOutcome[T]
		defer func() {
			if r := recover(); r != nil {
				out.err = errors.New("producer panicked")
				logrus.Errorf("[FETCH] Producer for %s panic: %v", key, r)
			}
			live <- out
		}()
		out.data, out.err = produce(context.WithoutCancel(ctx))
	}()

	timer := time.NewTimer(o.Timeout)
	defer timer.Stop()

	select {
	case res := <-live:
		return settleLive(ctx, c, key, res)
	case <-ctx.Done():
		persistInBackground(c, key, live)
		var zero domainCache.FetchResult[T]
		return zero, ctx.Err()
	case <-timer.C:
	}

	// A producer that finished together with the deadline still wins.
	select {
	case res := <-live:
		return settleLive(ctx, c, key, res)
	default:
	}

	cached := GetFromCacheWithStale[T](ctx, c, key, o.MaxAge)
	if cached.Found {
		logrus.Debugf("[FETCH] %s timed out after %s, serving cached value (stale=%v, age=%s)", key, o.Timeout, cached.IsStale, cached.Age)
		persistInBackground(c, key, live)
		return domainCache.FetchResult[T]{Data: cached.Data, FromCache: true}, nil
	}

	logrus.Debugf("[FETCH] %s timed out after %s with nothing cached, waiting for live data", key, o.Timeout)
	select {
	case res := <-live:
		return settleLive(ctx, c, key, res)
	case <-ctx.Done():
		persistInBackground(c, key, live)
		var zero domainCache.FetchResult[T]
		return zero, ctx.Err()
	}
}

func settleLive[T any](ctx context.Context, c domainCache.ICacheUsecase, key string, res liveOutcome[T]) (domainCache.FetchResult[T], error) {
	if res.err != nil {
		var zero domainCache.FetchResult[T]
		return zero, res.err
	}
	SaveToCache(context.WithoutCancel(ctx), c, key, res.data)
	return domainCache.FetchResult[T]{Data: res.data, FromCache: false}, nil
}

// persistInBackground hands the pending producer to the cache's background
// runner so a late success still refreshes the entry.
func persistInBackground[T any](c domainCache.ICacheUsecase, key string, live <-chan liveOutcome[T]) {
	accepted := c.RunBackground("refresh "+key, func(bgCtx context.Context) {
		select {
		case res := <-live:
			if res.err != nil {
				logrus.WithError(res.err).Warnf("[FETCH] Background refresh of %s failed", key)
				return
			}
			SaveToCache(bgCtx, c, key, res.data)
			logrus.Debugf("[FETCH] Background refresh of %s stored", key)
		case <-bgCtx.Done():
			logrus.Warnf("[FETCH] Background refresh of %s abandoned", key)
		}
	})
	if !accepted {
		logrus.Debugf("[FETCH] Live result for %s will not be persisted", key)
	}
}
