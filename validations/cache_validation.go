package validations

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	domainCache "github.com/AzielCF/az-gym/domains/cache"
	domainImage "github.com/AzielCF/az-gym/domains/imagecache"
	domainSession "github.com/AzielCF/az-gym/domains/session"
	pkgError "github.com/AzielCF/az-gym/pkg/error"
)

const maxKeyLength = 512

var noWhitespace = validation.NewStringRule(func(s string) bool {
	return !strings.ContainsAny(s, " \t\r\n")
}, "must not contain whitespace")

func ValidateEntryRequest(ctx context.Context, request domainCache.EntryRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Key, validation.Required, validation.Length(1, maxKeyLength), noWhitespace),
		validation.Field(&request.MaxAge, validation.Min(time.Duration(0))),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateCacheImage(ctx context.Context, request domainImage.CacheImageRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.URL, validation.Required, is.URL),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateClearAuth(ctx context.Context, request domainSession.ClearAuthRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Scope, validation.Required, validation.Length(1, maxKeyLength), noWhitespace),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
