package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api/v1", cfg.API.URL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, "sqlite", cfg.Tokens.Backend)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, "", cfg.Metrics.Addr)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	file := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
api:
  url: https://shop.example.com/api/v1/
  timeout: 5s
tokens:
  backend: memory
cache:
  backend: none
`), 0o600))
	t.Setenv("STOREFRONT_API_TIMEOUT", "12s")

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/api/v1", cfg.API.URL)
	assert.Equal(t, 12*time.Second, cfg.API.Timeout)
	assert.Equal(t, "memory", cfg.Tokens.Backend)
	assert.Equal(t, "none", cfg.Cache.Backend)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("STOREFRONT_API_URL=http://api.test:9000/api/v1\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("STOREFRONT_API_URL") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://api.test:9000/api/v1", cfg.API.URL)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load("nope.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			API:    APIConfig{URL: "http://localhost:8000/api/v1", Timeout: time.Second},
			Tokens: TokensConfig{Backend: "memory", Profile: "default"},
			Cache:  CacheConfig{Backend: "memory", TTL: time.Minute, Size: 10},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad url", func(c *Config) { c.API.URL = "localhost" }},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }},
		{"unknown token backend", func(c *Config) { c.Tokens.Backend = "cookie" }},
		{"sqlite without path", func(c *Config) { c.Tokens.Backend = "sqlite" }},
		{"redis without addr", func(c *Config) { c.Tokens.Backend = "redis" }},
		{"empty profile", func(c *Config) { c.Tokens.Profile = "" }},
		{"unknown cache backend", func(c *Config) { c.Cache.Backend = "disk" }},
		{"zero cache size", func(c *Config) { c.Cache.Size = 0 }},
		{"zero ttl", func(c *Config) { c.Cache.TTL = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
