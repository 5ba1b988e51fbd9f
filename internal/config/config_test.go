package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 実行環境の値に左右されないよう空にしておく
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "GO_ENV", "LOG_LEVEL", "STORAGE_BACKEND", "DATABASE_URL",
		"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB", "POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_SSLMODE",
		"CURRENCY", "TAX_RATE", "SHIPPING_FEE", "FREE_SHIPPING_THRESHOLD", "TX_MAX_RETRIES",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "RATE_LIMIT_CAPACITY", "RATE_LIMIT_IDLE_TTL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, StorageBackendPostgres, cfg.StorageBackend)
	assert.Equal(t, "JPY", cfg.Currency)
	assert.True(t, cfg.TaxRate.Equal(decimal.RequireFromString("0.10")))
	assert.Equal(t, 2, cfg.TxMaxRetries)
	assert.Equal(t, 10*time.Minute, cfg.RateLimitIdleTTL)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=app sslmode=disable", cfg.DSN())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("PORT", ":9000")
	t.Setenv("STORAGE_BACKEND", "Memory")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/x")
	t.Setenv("CURRENCY", "usd")
	t.Setenv("TAX_RATE", "0.0875")
	t.Setenv("RATE_LIMIT_IDLE_TTL", "30s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, StorageBackendMemory, cfg.StorageBackend)
	assert.Equal(t, "postgres://u:p@db/x", cfg.DSN())
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, "0.0875", cfg.TaxRate.String())
	assert.Equal(t, 30*time.Second, cfg.RateLimitIdleTTL)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret":  {"JWT_SECRET": ""},
		"backend":         {"STORAGE_BACKEND": "sqlite"},
		"currency":        {"CURRENCY": "YEN!"},
		"tax rate":        {"TAX_RATE": "1.5"},
		"tax not decimal": {"TAX_RATE": "ten"},
		"port":            {"POSTGRES_PORT": "abc"},
		"retries":         {"TX_MAX_RETRIES": "-1"},
		"rps":             {"RATE_LIMIT_RPS": "0"},
		"ttl":             {"RATE_LIMIT_IDLE_TTL": "soon"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("JWT_SECRET", "s")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
