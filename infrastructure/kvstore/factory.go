package kvstore

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/AzielCF/az-gym/core/config"
	"github.com/AzielCF/az-gym/core/database"
	domainKV "github.com/AzielCF/az-gym/domains/kvstore"
	"github.com/AzielCF/az-gym/infrastructure/valkey"
)

// NewStore builds the store selected by cfg.Store.Driver. The returned close
// function releases the underlying connection and is never nil.
func NewStore(ctx context.Context, cfg *config.Config) (domainKV.IKeyValueStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store.Driver {
	case domainKV.DriverMemory:
		logrus.Warn("[KVSTORE] Using in-memory store; cached data will not survive a restart")
		return NewMemoryStore(), noop, nil

	case domainKV.DriverValkey:
		client, err := valkey.NewClient(valkey.Config{
			Address:   cfg.Store.ValkeyAddress,
			Password:  cfg.Store.ValkeyPassword,
			DB:        cfg.Store.ValkeyDB,
			KeyPrefix: cfg.Store.ValkeyKeyPrefix,
		})
		if err != nil {
			return nil, noop, err
		}
		logrus.Infof("[KVSTORE] Using valkey store at %s (prefix %q)", cfg.Store.ValkeyAddress, client.KeyPrefix())
		return NewValkeyStore(client), func() error { client.Close(); return nil }, nil

	case domainKV.DriverSQLite, domainKV.DriverPostgres:
		db, err := database.NewDatabase(cfg)
		if err != nil {
			return nil, noop, err
		}
		store := NewGormStore(db)
		if err := store.InitSchema(ctx); err != nil {
			_ = database.Close(db)
			return nil, noop, fmt.Errorf("failed to init kv schema: %w", err)
		}
		logrus.Infof("[KVSTORE] Using %s store", cfg.Store.Driver)
		return store, func() error { return database.Close(db) }, nil
	}

	return nil, noop, fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
}
