package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GetAllSettings returns the non-secret settings in effect, for diagnostics.
func (c *Config) GetAllSettings() map[string]any {
	return map[string]any{
		"app_version":               c.App.Version,
		"app_debug":                 c.App.Debug,
		"store_driver":              c.Store.Driver,
		"cache_key_prefix":          c.Cache.KeyPrefix,
		"cache_fetch_timeout":       c.Cache.FetchTimeout.String(),
		"cache_default_max_age":     c.Cache.DefaultMaxAge.String(),
		"images_ttl":                c.Images.TTL.String(),
		"images_hash_keys":          c.Images.HashKeys,
		"images_coalesce_downloads": c.Images.CoalesceDownloads,
		"images_cleanup_interval":   c.Images.CleanupInterval.String(),
		"images_max_download_size":  c.Images.MaxDownloadSize,
		"paths_images":              c.Paths.Images,
		"identity_tenant":           c.Identity.TenantSlug,
	}
}

// Helpers
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		vLower := strings.ToLower(v)
		return vLower == "1" || vLower == "true" || vLower == "yes" || vLower == "on"
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90s", "4h") or a bare number of milliseconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(n) * time.Millisecond
	}
	return fallback
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
