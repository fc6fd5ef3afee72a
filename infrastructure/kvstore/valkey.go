package kvstore

import (
	"context"
	"fmt"
	"strings"

	valkeylib "github.com/valkey-io/valkey-go"

	"github.com/AzielCF/az-gym/infrastructure/valkey"
)

// ValkeyStore implements IKeyValueStore on Valkey. Keys live under
// "<client prefix>kv:" and are returned without that namespace.
type ValkeyStore struct {
	client *valkey.Client
	prefix string
}

// NewValkeyStore creates a new ValkeyStore instance.
func NewValkeyStore(client *valkey.Client) *ValkeyStore {
	return &ValkeyStore{
		client: client,
		prefix: client.Key("kv") + ":",
	}
}

// Ping checks the Valkey connection.
func (s *ValkeyStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *ValkeyStore) fullKey(key string) string {
	return s.prefix + key
}

func (s *ValkeyStore) inner() valkeylib.Client {
	return s.client.Inner()
}

func (s *ValkeyStore) Get(ctx context.Context, key string) (string, bool, error) {
	cmd := s.inner().B().Get().Key(s.fullKey(key)).Build()

	val, err := s.inner().Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsNil(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get kv entry: %w", err)
	}
	return val, true, nil
}

func (s *ValkeyStore) Set(ctx context.Context, key string, value string) error {
	cmd := s.inner().B().Set().Key(s.fullKey(key)).Value(value).Build()
	if err := s.inner().Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to set kv entry: %w", err)
	}
	return nil
}

func (s *ValkeyStore) Remove(ctx context.Context, key string) error {
	cmd := s.inner().B().Del().Key(s.fullKey(key)).Build()
	if err := s.inner().Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to remove kv entry: %w", err)
	}
	return nil
}

// ListKeys walks the namespace with SCAN, so it never blocks the server the way KEYS would.
func (s *ValkeyStore) ListKeys(ctx context.Context) ([]string, error) {
	var keys []string
	var cursor uint64
	seen := make(map[string]struct{})

	for {
		cmd := s.inner().B().Scan().Cursor(cursor).Match(s.prefix + "*").Count(100).Build()
		result, err := s.inner().Do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, fmt.Errorf("failed to scan kv keys: %w", err)
		}

		// SCAN may return a key more than once while the keyspace is rehashing.
		for _, k := range result.Elements {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, strings.TrimPrefix(k, s.prefix))
		}
		cursor = result.Cursor
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

func (s *ValkeyStore) RemoveMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.fullKey(k)
	}
	cmd := s.inner().B().Del().Key(full...).Build()
	if err := s.inner().Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to remove kv entries: %w", err)
	}
	return nil
}
