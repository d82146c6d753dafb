package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DATABASE_URL", "STORE_DRIVER", "REDIS_URL", "REDIS_PASSWORD",
		"ASYNC_MODE", "JWT_SECRET", "CUSTOMER_SERVICE_URL", "CUSTOMER_CACHE_TTL",
		"CUSTOMER_TIMEOUT", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "localhost:6379", cfg.RedisURL)
	assert.False(t, cfg.AsyncMode)
	assert.Empty(t, cfg.JWTSecret)
	assert.Equal(t, "http://localhost:8081", cfg.CustomerServiceURL)
	assert.Equal(t, 5*time.Minute, cfg.CustomerCacheTTL)
	assert.Equal(t, 5*time.Second, cfg.CustomerTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.UsesRedis())
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("ASYNC_MODE", "true")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CUSTOMER_SERVICE_URL", "http://customers.internal:8000")
	t.Setenv("CUSTOMER_CACHE_TTL", "0s")
	t.Setenv("CUSTOMER_TIMEOUT", "250ms")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.True(t, cfg.AsyncMode)
	assert.Equal(t, "secret", cfg.JWTSecret)
	assert.Equal(t, "http://customers.internal:8000", cfg.CustomerServiceURL)
	assert.Zero(t, cfg.CustomerCacheTTL)
	assert.Equal(t, 250*time.Millisecond, cfg.CustomerTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.UsesRedis())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "unknown driver", key: "STORE_DRIVER", val: "sqlite"},
		{name: "non numeric port", key: "PORT", val: "http"},
		{name: "bad customer url", key: "CUSTOMER_SERVICE_URL", val: "not a url"},
		{name: "negative cache ttl", key: "CUSTOMER_CACHE_TTL", val: "-1m"},
		{name: "unknown log level", key: "LOG_LEVEL", val: "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestUsesRedis(t *testing.T) {
	cfg := Config{}
	assert.False(t, cfg.UsesRedis())

	cfg.AsyncMode = true
	assert.True(t, cfg.UsesRedis())

	cfg = Config{CustomerCacheTTL: time.Minute}
	assert.True(t, cfg.UsesRedis())
}
