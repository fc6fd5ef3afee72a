package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	domainCache "github.com/AzielCF/az-gym/domains/cache"
	domainImage "github.com/AzielCF/az-gym/domains/imagecache"
	domainKV "github.com/AzielCF/az-gym/domains/kvstore"
)

// Config holds all application configuration in a structured way.
// It is built once by LoadConfig and passed explicitly to whoever needs it.
type Config struct {
	App      AppConfig
	Paths    PathsConfig
	Database DatabaseConfig
	Store    StoreConfig
	Cache    CacheConfig
	Images   ImagesConfig
	Identity IdentityConfig
	Auth     AuthConfig
}

type AppConfig struct {
	Version            string
	Port               string
	Debug              bool
	Environment        string
	BasePath           string
	BasicAuth          []string
	CorsAllowedOrigins []string
}

type PathsConfig struct {
	Storages string
	Images   string
}

// DatabaseConfig is used when the store driver is sqlite or postgres.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string // File path for SQLite, DB Name for Postgres
}

type StoreConfig struct {
	Driver          string
	ValkeyAddress   string
	ValkeyPassword  string
	ValkeyDB        int
	ValkeyKeyPrefix string
}

type CacheConfig struct {
	KeyPrefix     string
	FetchTimeout  time.Duration
	DefaultMaxAge time.Duration
	// SchemaVersion is stamped on every entry when non-zero.
	SchemaVersion int
}

type ImagesConfig struct {
	TTL               time.Duration
	KeyLength         int
	HashKeys          bool
	CoalesceDownloads bool
	CleanupEnabled    bool
	CleanupInterval   time.Duration
	DownloadTimeout   time.Duration
	MaxDownloadSize   int
}

// IdentityConfig seeds the identity used to namespace keys when running the CLI.
type IdentityConfig struct {
	TenantSlug string
	UserID     string
}

// AuthConfig protects persisted credentials. An empty EncryptionKey stores them in plain text.
type AuthConfig struct {
	EncryptionKey string
}

// LoadConfig loads configuration from a .env file (when present), environment variables, or defaults.
func LoadConfig() (*Config, error) {
	if fileExists(".env") {
		if err := godotenv.Load(".env"); err != nil {
			logrus.WithError(err).Warn("[CONFIG] Failed to load .env file")
		}
	}

	storages := getEnv("APP_BASE_DIR", "storages")

	var basicAuth []string
	if v := getEnv("APP_BASIC_AUTH", ""); v != "" {
		basicAuth = strings.Split(v, ",")
	}

	cfg := &Config{
		App: AppConfig{
			Version:            "v1.0.0",
			Port:               getEnv("APP_PORT", "3000"),
			Debug:              getEnvBool("APP_DEBUG", false),
			Environment:        getEnv("APP_ENV", "development"),
			BasePath:           getEnv("APP_BASE_PATH", ""),
			BasicAuth:          basicAuth,
			CorsAllowedOrigins: strings.Split(getEnv("APP_CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ","),
		},
		Paths: PathsConfig{
			Storages: storages,
			Images:   getEnv("PATH_IMAGES", filepath.Join(storages, "images")),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", filepath.Join(storages, "cache.db")),
		},
		Store: StoreConfig{
			Driver:          getEnv("STORE_DRIVER", domainKV.DriverSQLite),
			ValkeyAddress:   getEnv("VALKEY_ADDRESS", "localhost:6379"),
			ValkeyPassword:  getEnv("VALKEY_PASSWORD", ""),
			ValkeyDB:        getEnvInt("VALKEY_DB", 0),
			ValkeyKeyPrefix: getEnv("VALKEY_KEY_PREFIX", "azgym:"),
		},
		Cache: CacheConfig{
			KeyPrefix:     getEnv("CACHE_KEY_PREFIX", "cache:"),
			FetchTimeout:  getEnvDuration("CACHE_FETCH_TIMEOUT", domainCache.DefaultFetchTimeout),
			DefaultMaxAge: getEnvDuration("CACHE_DEFAULT_MAX_AGE", domainCache.MaxAgeMedium),
			SchemaVersion: getEnvInt("CACHE_SCHEMA_VERSION", 0),
		},
		Images: ImagesConfig{
			TTL:               getEnvDuration("IMAGES_TTL", domainImage.DefaultTTL),
			KeyLength:         getEnvInt("IMAGES_KEY_LENGTH", 100),
			HashKeys:          getEnvBool("IMAGES_HASH_KEYS", false),
			CoalesceDownloads: getEnvBool("IMAGES_COALESCE_DOWNLOADS", false),
			CleanupEnabled:    getEnvBool("IMAGES_CLEANUP_ENABLED", true),
			CleanupInterval:   getEnvDuration("IMAGES_CLEANUP_INTERVAL", time.Hour),
			DownloadTimeout:   getEnvDuration("IMAGES_DOWNLOAD_TIMEOUT", 30*time.Second),
			MaxDownloadSize:   getEnvInt("IMAGES_MAX_DOWNLOAD_SIZE", 20*1024*1024),
		},
		Identity: IdentityConfig{
			TenantSlug: getEnv("TENANT_SLUG", ""),
			UserID:     getEnv("USER_ID", ""),
		},
		Auth: AuthConfig{
			EncryptionKey: getEnv("AUTH_ENCRYPTION_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
