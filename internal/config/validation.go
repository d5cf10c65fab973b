package config

import (
	"errors"
	"fmt"
	"net/url"
)

func (c *Config) Validate() error {
	u, err := url.Parse(c.API.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid api.url %q", c.API.URL)
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}

	switch c.Tokens.Backend {
	case "sqlite":
		if c.Tokens.Path == "" {
			return errors.New("tokens.path must be set for the sqlite backend")
		}
	case "redis":
		if c.Redis.Addr == "" {
			return errors.New("redis.addr must be set for the redis token backend")
		}
	case "memory":
	default:
		return fmt.Errorf("invalid tokens.backend: %s. Must be 'sqlite', 'redis' or 'memory'", c.Tokens.Backend)
	}
	if c.Tokens.Profile == "" {
		return errors.New("tokens.profile must not be empty")
	}

	switch c.Cache.Backend {
	case "memory":
		if c.Cache.Size < 1 {
			return errors.New("cache.size must be positive")
		}
	case "redis":
		if c.Redis.Addr == "" {
			return errors.New("redis.addr must be set for the redis cache backend")
		}
	case "none":
	default:
		return fmt.Errorf("invalid cache.backend: %s. Must be 'memory', 'redis' or 'none'", c.Cache.Backend)
	}
	if c.Cache.Backend != "none" && c.Cache.TTL <= 0 {
		return errors.New("cache.ttl must be positive")
	}

	return nil
}
