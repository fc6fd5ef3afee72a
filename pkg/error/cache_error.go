package error

import (
	"fmt"
	"net/http"
)

// CacheErrorKind classifies why a cache operation failed.
type CacheErrorKind string

const (
	CacheErrorStoreIO CacheErrorKind = "STORE_IO"
	CacheErrorDecode  CacheErrorKind = "DECODE"
	CacheErrorEncode  CacheErrorKind = "ENCODE"
)

// CacheError is returned by the internal cache API. Public cache methods never
// surface it; they log it and degrade to a miss or a no-op.
type CacheError struct {
	Op   string
	Key  string
	Kind CacheErrorKind
	Err  error
}

func NewCacheError(op, key string, kind CacheErrorKind, err error) *CacheError {
	return &CacheError{Op: op, Key: key, Kind: kind, Err: err}
}

func (err *CacheError) Error() string {
	return fmt.Sprintf("cache %s %q (%s): %v", err.Op, err.Key, err.Kind, err.Err)
}

func (err *CacheError) Unwrap() error {
	return err.Err
}

func (err *CacheError) ErrCode() string {
	return "CACHE_" + string(err.Kind)
}

func (err *CacheError) StatusCode() int {
	return http.StatusInternalServerError
}
