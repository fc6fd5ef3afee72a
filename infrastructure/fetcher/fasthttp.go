// Package fetcher downloads remote binaries for the image cache.
package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	pkgError "github.com/AzielCF/az-gym/pkg/error"
)

const maxRedirects = 5

// Config tunes the fetcher.
type Config struct {
	Timeout     time.Duration
	MaxBodySize int
	UserAgent   string
	// Dial overrides the network dialer, mainly for in-memory listeners in tests.
	Dial fasthttp.DialFunc
}

// FastHTTPFetcher implements imagecache.IFetcher on a shared fasthttp client.
type FastHTTPFetcher struct {
	client  *fasthttp.Client
	timeout time.Duration
}

func New(cfg Config) *FastHTTPFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "az-gym/1.0"
	}
	return &FastHTTPFetcher{
		client: &fasthttp.Client{
			Name:                cfg.UserAgent,
			MaxResponseBodySize: cfg.MaxBodySize,
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
			Dial:                cfg.Dial,
		},
		timeout: cfg.Timeout,
	}
}

// Fetch GETs url and returns the body. Any non-2xx status is a *DownloadError.
func (f *FastHTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &pkgError.DownloadError{URL: url, Err: err}
	}

	timeout := f.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetTimeout(timeout)

	start := time.Now()
	if err := f.client.DoRedirects(req, resp, maxRedirects); err != nil {
		return nil, &pkgError.DownloadError{URL: url, Err: err}
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		return nil, &pkgError.DownloadError{URL: url, Status: status, Err: fmt.Errorf("status %d", status)}
	}

	body := append([]byte(nil), resp.Body()...)
	logrus.Debugf("[FETCHER] GET %s -> %d (%d bytes in %s)", url, status, len(body), time.Since(start))
	return body, nil
}
