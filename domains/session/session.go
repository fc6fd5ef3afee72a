package session

import (
	"context"
	"encoding/json"
)

// Identity is the signed-in tenant and user. The cache layer uses it only to
// namespace keys; authentication itself lives elsewhere.
type Identity struct {
	TenantSlug string `json:"tenant_slug"`
	UserID     string `json:"user_id"`
}

// IIdentityProvider reports the identity currently in effect.
type IIdentityProvider interface {
	Current(ctx context.Context) Identity
}

// StaticIdentity always reports the same identity.
type StaticIdentity Identity

func (s StaticIdentity) Current(context.Context) Identity {
	return Identity(s)
}

// AuthData is the set of credential artifacts persisted per scope.
type AuthData struct {
	Token        string          `json:"token"`
	RefreshToken string          `json:"refresh_token"`
	User         json.RawMessage `json:"user,omitempty"`
}

// Auth artifact base keys.
const (
	KeyAuthToken    = "auth_token"
	KeyRefreshToken = "refresh_token"
	KeyAuthUser     = "auth_user"
)

type IAuthStorage interface {
	SaveAuthData(ctx context.Context, scope string, data AuthData) error
	GetAuthData(ctx context.Context, scope string) (AuthData, bool, error)
	// ClearAllAuthData removes every key carrying exactly the given scope.
	ClearAllAuthData(ctx context.Context, scope string) (int, error)
}

type ClearAuthRequest struct {
	Scope string `json:"scope"`
}
