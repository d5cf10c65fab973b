package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	API     APIConfig
	Tokens  TokensConfig
	Redis   RedisConfig
	Cache   CacheConfig
	Log     LogConfig
	Metrics MetricsConfig
}

type APIConfig struct {
	URL     string
	Timeout time.Duration
}

type TokensConfig struct {
	Backend string // sqlite, redis or memory
	Path    string
	Profile string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CacheConfig struct {
	Backend string // memory, redis or none
	TTL     time.Duration
	Size    int
}

type LogConfig struct {
	Level string
	Color bool
}

type MetricsConfig struct {
	Addr string
	Path string
}

// Load reads configuration from defaults, an optional storefront.yaml,
// an optional .env file and STOREFRONT_* environment variables, in
// increasing order of precedence.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("storefront")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(home + "/storefront")
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		API: APIConfig{
			URL:     strings.TrimRight(v.GetString("api.url"), "/"),
			Timeout: v.GetDuration("api.timeout"),
		},
		Tokens: TokensConfig{
			Backend: strings.ToLower(v.GetString("tokens.backend")),
			Path:    v.GetString("tokens.path"),
			Profile: v.GetString("tokens.profile"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Cache: CacheConfig{
			Backend: strings.ToLower(v.GetString("cache.backend")),
			TTL:     v.GetDuration("cache.ttl"),
			Size:    v.GetInt("cache.size"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
			Color: v.GetBool("log.color"),
		},
		Metrics: MetricsConfig{
			Addr: v.GetString("metrics.addr"),
			Path: v.GetString("metrics.path"),
		},
	}
}
