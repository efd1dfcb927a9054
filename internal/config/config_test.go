package config_test

import (
	"log/slog"
	"testing"
	"time"

	"storefront/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "GO_ENV", "STORE_DRIVER", "DATABASE_URL", "POSTGRES_PORT", "DB_LOCK_TIMEOUT",
		"DB_STATEMENT_TIMEOUT", "KAFKA_BROKERS", "KAFKA_ORDER_TOPIC", "NOTIFY_BUFFER", "LOG_LEVEL",
		"POSTGRES_DB", "SEED",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := config.FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, config.StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 5*time.Second, cfg.DBLockTimeout)
	assert.Equal(t, 10*time.Second, cfg.DBStatementTimeout)
	assert.Equal(t, "orders.placed", cfg.KafkaOrderTopic)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 256, cfg.NotifyBuffer)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Contains(t, cfg.DSN(), "dbname=storefront")
}

func TestFromEnv_JWTSecretRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := config.FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/shop")
	t.Setenv("DB_LOCK_TIMEOUT", "750ms")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SEED", "true")

	cfg, err := config.FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@db:5432/shop", cfg.DSN())
	assert.Equal(t, 750*time.Millisecond, cfg.DBLockTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, config.StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.Seed)
}

func TestFromEnv_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"DB_LOCK_TIMEOUT": "five",
		"POSTGRES_PORT":   "abc",
		"NOTIFY_BUFFER":   "0",
		"STORE_DRIVER":    "mysql",
		"GO_ENV":          "staging",
	}

	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("JWT_SECRET", "secret")
			t.Setenv(key, val)

			_, err := config.FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}
