package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("AUTH_JWT_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	memoryEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "focus-leaderboard", cfg.App.Name)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 50, cfg.Leaderboard.DefaultLimit)
	assert.Equal(t, 500, cfg.Leaderboard.MaxLimit)
	assert.Equal(t, 5*time.Second, cfg.Leaderboard.QueryTimeout)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	memoryEnv(t)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("HTTP_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LEADERBOARD_MAX_LIMIT", "100")
	t.Setenv("LEADERBOARD_QUERY_TIMEOUT", "750ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 100, cfg.Leaderboard.MaxLimit)
	assert.Equal(t, 750*time.Millisecond, cfg.Leaderboard.QueryTimeout)
}

func TestLoad_ConfigFile(t *testing.T) {
	memoryEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_port: 7070\nleaderboard_default_limit: 25\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.HTTP.Port)
	assert.Equal(t, 25, cfg.Leaderboard.DefaultLimit)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	memoryEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestFromViper_CollectsErrors(t *testing.T) {
	v := viper.New()
	v.Set("STORE_DRIVER", "postgres")
	v.Set("HTTP_PORT", "eighty")
	v.Set("LEADERBOARD_QUERY_TIMEOUT", "soon")
	v.Set("AUTH_SESSION_LOOKUP", true)

	_, err := FromViper(v)
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "DATABASE_URL is required")
	assert.Contains(t, msg, `HTTP_PORT: "eighty" is not an integer`)
	assert.Contains(t, msg, "LEADERBOARD_QUERY_TIMEOUT")
	assert.Contains(t, msg, "AUTH_SESSION_LOOKUP requires REDIS_ENABLED")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			App:         AppConfig{Environment: EnvProduction},
			HTTP:        HTTPConfig{Port: 8080},
			Database:    DatabaseConfig{URL: "postgres://localhost/db"},
			Auth:        AuthConfig{JWTSecret: "s"},
			Leaderboard: LeaderboardConfig{DefaultLimit: 50, MaxLimit: 500},
			Store:       StoreConfig{Driver: StorePostgres},
		}
	}

	require.NoError(t, base().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"memory in production", func(c *Config) { c.Store.Driver = StoreMemory }, "not allowed in production"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "sqlite" }, "STORE_DRIVER must be"},
		{"no auth", func(c *Config) { c.Auth.JWTSecret = "" }, "no authentication configured"},
		{"max below default", func(c *Config) { c.Leaderboard.MaxLimit = 10 }, "LEADERBOARD_MAX_LIMIT"},
		{"bad port", func(c *Config) { c.HTTP.Port = 70000 }, "HTTP_PORT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
