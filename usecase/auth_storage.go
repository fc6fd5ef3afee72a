package usecase

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	domainKV "github.com/AzielCF/az-gym/domains/kvstore"
	domainSession "github.com/AzielCF/az-gym/domains/session"
	"github.com/AzielCF/az-gym/pkg/crypto"
	"github.com/AzielCF/az-gym/pkg/keyspace"
)

type authStorage struct {
	store  domainKV.IKeyValueStore
	cipher *crypto.Cipher
}

// NewAuthStorage persists credential artifacts under tenant/user scoped keys.
// Unlike the cache, failures are returned to the caller. Values are sealed
// with cipher; a nil cipher stores them as given.
func NewAuthStorage(store domainKV.IKeyValueStore, cipher *crypto.Cipher) domainSession.IAuthStorage {
	return &authStorage{store: store, cipher: cipher}
}

func (a *authStorage) read(ctx context.Context, base, scope string) (string, bool, error) {
	raw, ok, err := a.store.Get(ctx, keyspace.ScopedKey(base, scope))
	if err != nil || !ok {
		return "", ok, err
	}
	value, err := a.cipher.Open(raw)
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (a *authStorage) SaveAuthData(ctx context.Context, scope string, data domainSession.AuthData) error {
	values := map[string]string{
		domainSession.KeyAuthToken: data.Token,
	}
	var omitted []string
	if data.RefreshToken != "" {
		values[domainSession.KeyRefreshToken] = data.RefreshToken
	} else {
		omitted = append(omitted, keyspace.ScopedKey(domainSession.KeyRefreshToken, scope))
	}
	if len(data.User) > 0 {
		values[domainSession.KeyAuthUser] = string(data.User)
	} else {
		omitted = append(omitted, keyspace.ScopedKey(domainSession.KeyAuthUser, scope))
	}

	for base, value := range values {
		sealed, err := a.cipher.Seal(value)
		if err != nil {
			return fmt.Errorf("failed to seal %s: %w", base, err)
		}
		if err := a.store.Set(ctx, keyspace.ScopedKey(base, scope), sealed); err != nil {
			return fmt.Errorf("failed to save %s: %w", base, err)
		}
	}

	// A previous session's artifacts must not outlive a save that omits them.
	if len(omitted) > 0 {
		if err := a.store.RemoveMany(ctx, omitted); err != nil {
			return fmt.Errorf("failed to remove stale auth data: %w", err)
		}
	}
	return nil
}

func (a *authStorage) GetAuthData(ctx context.Context, scope string) (domainSession.AuthData, bool, error) {
	var data domainSession.AuthData

	token, ok, err := a.read(ctx, domainSession.KeyAuthToken, scope)
	if err != nil {
		return data, false, fmt.Errorf("failed to read auth token: %w", err)
	}
	if !ok {
		return data, false, nil
	}
	data.Token = token

	refresh, _, err := a.read(ctx, domainSession.KeyRefreshToken, scope)
	if err != nil {
		return data, false, fmt.Errorf("failed to read refresh token: %w", err)
	}
	data.RefreshToken = refresh

	user, ok, err := a.read(ctx, domainSession.KeyAuthUser, scope)
	if err != nil {
		return data, false, fmt.Errorf("failed to read auth user: %w", err)
	}
	if ok {
		data.User = []byte(user)
	}
	return data, true, nil
}

func (a *authStorage) ClearAllAuthData(ctx context.Context, scope string) (int, error) {
	keys, err := a.store.ListKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list keys: %w", err)
	}

	targets := keyspace.FilterByScope(keys, scope)
	if len(targets) == 0 {
		return 0, nil
	}
	if err := a.store.RemoveMany(ctx, targets); err != nil {
		return 0, fmt.Errorf("failed to clear scope %s: %w", scope, err)
	}
	logrus.Infof("[AUTH] Cleared %d keys for scope %s", len(targets), scope)
	return len(targets), nil
}
