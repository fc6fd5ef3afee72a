package validations

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	domainCache "github.com/AzielCF/az-gym/domains/cache"
	domainImage "github.com/AzielCF/az-gym/domains/imagecache"
	domainSession "github.com/AzielCF/az-gym/domains/session"
	pkgError "github.com/AzielCF/az-gym/pkg/error"
)

func TestValidateEntryRequest(t *testing.T) {
	tests := []struct {
		name    string
		request domainCache.EntryRequest
		wantErr bool
	}{
		{name: "valid", request: domainCache.EntryRequest{Key: "dashboard:acme.u1", MaxAge: time.Minute}},
		{name: "zero max age", request: domainCache.EntryRequest{Key: "k"}},
		{name: "empty key", request: domainCache.EntryRequest{}, wantErr: true},
		{name: "whitespace", request: domainCache.EntryRequest{Key: "a b"}, wantErr: true},
		{name: "too long", request: domainCache.EntryRequest{Key: strings.Repeat("k", 513)}, wantErr: true},
		{name: "negative max age", request: domainCache.EntryRequest{Key: "k", MaxAge: -time.Second}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntryRequest(context.Background(), tt.request)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var vErr pkgError.ValidationError
			assert.ErrorAs(t, err, &vErr)
		})
	}
}

func TestValidateCacheImage(t *testing.T) {
	assert.NoError(t, ValidateCacheImage(context.Background(), domainImage.CacheImageRequest{URL: "https://cdn.gym.test/a.png"}))
	assert.Error(t, ValidateCacheImage(context.Background(), domainImage.CacheImageRequest{}))
	assert.Error(t, ValidateCacheImage(context.Background(), domainImage.CacheImageRequest{URL: "not a url"}))
}

func TestValidateClearAuth(t *testing.T) {
	assert.NoError(t, ValidateClearAuth(context.Background(), domainSession.ClearAuthRequest{Scope: "evolve"}))
	assert.Error(t, ValidateClearAuth(context.Background(), domainSession.ClearAuthRequest{}))
	assert.Error(t, ValidateClearAuth(context.Background(), domainSession.ClearAuthRequest{Scope: "ev olve"}))
}
