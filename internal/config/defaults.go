package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

func setDefaults(v *viper.Viper) {
	// API
	v.SetDefault("api.url", "http://localhost:8000/api/v1")
	v.SetDefault("api.timeout", "30s")

	// Token storage
	v.SetDefault("tokens.backend", "sqlite")
	v.SetDefault("tokens.path", defaultTokenPath())
	v.SetDefault("tokens.profile", "default")

	// Redis
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Catalog cache
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", "2m")
	v.SetDefault("cache.size", 256)

	// Logging
	v.SetDefault("log.level", "info")
	v.SetDefault("log.color", true)

	// Metrics are off unless an address is set
	v.SetDefault("metrics.addr", "")
	v.SetDefault("metrics.path", "/metrics")
}

func defaultTokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "storefront.db"
	}
	return filepath.Join(dir, "storefront", "storefront.db")
}
