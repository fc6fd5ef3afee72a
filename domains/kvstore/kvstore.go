package kvstore

import "context"

// IKeyValueStore is the durable string-keyed store the cache layer is built on.
// Implementations must survive process restarts; every method may fail and
// callers are expected to recover from failures.
type IKeyValueStore interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set overwrites the value stored under key.
	Set(ctx context.Context, key string, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	// ListKeys returns every key currently stored.
	ListKeys(ctx context.Context) ([]string, error)
	// RemoveMany deletes all given keys in one batch.
	RemoveMany(ctx context.Context, keys []string) error
}

// IPinger is implemented by stores that hold a connection worth probing.
type IPinger interface {
	Ping(ctx context.Context) error
}

// Driver names accepted by configuration.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverValkey   = "valkey"
	DriverMemory   = "memory"
)
