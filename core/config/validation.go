package config

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	domainKV "github.com/AzielCF/az-gym/domains/kvstore"
)

// Validate checks the configuration for values the cache layer cannot run with.
func (c *Config) Validate() error {
	return validation.Errors{
		"store":  c.Store.validate(),
		"cache":  c.Cache.validate(),
		"images": c.Images.validate(),
	}.Filter()
}

func (s StoreConfig) validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Driver, validation.Required,
			validation.In(domainKV.DriverSQLite, domainKV.DriverPostgres, domainKV.DriverValkey, domainKV.DriverMemory)),
		validation.Field(&s.ValkeyAddress, validation.When(s.Driver == domainKV.DriverValkey, validation.Required)),
	)
}

func (c CacheConfig) validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.KeyPrefix, validation.Required),
		validation.Field(&c.FetchTimeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.DefaultMaxAge, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.SchemaVersion, validation.Min(0)),
	)
}

func (i ImagesConfig) validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.TTL, validation.Required, validation.Min(time.Minute)),
		validation.Field(&i.KeyLength, validation.Required, validation.Min(16)),
		validation.Field(&i.CleanupInterval, validation.When(i.CleanupEnabled, validation.Required, validation.Min(time.Minute))),
		validation.Field(&i.DownloadTimeout, validation.Required),
		validation.Field(&i.MaxDownloadSize, validation.Min(0)),
	)
}
