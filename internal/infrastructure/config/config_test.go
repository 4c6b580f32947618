package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"SILVASYNC_APP_NAME",
	"SILVASYNC_APP_ENV",
	"SILVASYNC_DATABASE_HOST",
	"SILVASYNC_DATABASE_PORT",
	"SILVASYNC_DATABASE_PASSWORD",
	"SILVASYNC_DATABASE_SSLMODE",
	"SILVASYNC_DATABASE_MAX_OPEN_CONNS",
	"SILVASYNC_DATABASE_MAX_IDLE_CONNS",
	"SILVASYNC_REDIS_ENABLED",
	"SILVASYNC_SILVASOFT_API_URL",
	"SILVASYNC_SILVASOFT_API_KEY",
	"SILVASYNC_SILVASOFT_API_USER",
	"SILVASYNC_SILVASOFT_REQUESTS_PER_SECOND",
	"SILVASYNC_SILVASOFT_RETRY_DELAY",
	"SILVASYNC_SYNC_ORDER_LOOKBACK",
	"SILVASYNC_SCHEDULER_ENABLED",
	"SILVASYNC_SCHEDULER_ORDER_INTERVAL",
	"SILVASYNC_STORAGE_ENABLED",
	"SILVASYNC_STORAGE_BUCKET",
	"SILVASYNC_TELEMETRY_SAMPLING_RATIO",
	"SILVASYNC_TELEMETRY_DB_LOG_FULL_SQL",
}

// clearConfigEnv unsets every key for the duration of the test
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		if v, ok := os.LookupEnv(k); ok {
			require.NoError(t, os.Unsetenv(k))
			t.Cleanup(func() { os.Setenv(k, v) })
		}
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearConfigEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "silvasync", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "shopware", cfg.Database.DBName)
		assert.Equal(t, 10, cfg.Database.MaxOpenConns)
		assert.Equal(t, 2, cfg.Database.MaxIdleConns)
		assert.False(t, cfg.Redis.Enabled)

		assert.Equal(t, "https://rest-api.silvasoft.nl", cfg.Silvasoft.APIURL)
		assert.InDelta(t, 1/1.4, cfg.Silvasoft.RequestsPerSecond, 1e-9)
		assert.Equal(t, 1, cfg.Silvasoft.Burst)
		assert.Equal(t, 5, cfg.Silvasoft.RetryAttempts)
		assert.Equal(t, 5*time.Second, cfg.Silvasoft.RetryDelay)
		assert.Equal(t, 100, cfg.Silvasoft.PageSize)

		assert.Equal(t, "2020-01-01", cfg.Sync.CustomerSince)
		assert.Equal(t, "2025-01-01", cfg.Sync.OrderSince)
		assert.Equal(t, 7*24*time.Hour, cfg.Sync.OrderLookback)
		assert.Equal(t, 21.0, cfg.Sync.DefaultTaxRate)

		assert.True(t, cfg.Scheduler.Enabled)
		assert.Equal(t, 15*time.Minute, cfg.Scheduler.OrderInterval)
		assert.Equal(t, 15*time.Minute, cfg.Scheduler.StockInterval)
		assert.Equal(t, 10, cfg.Scheduler.OrderBatchSize)

		assert.Equal(t, "var/log", cfg.Log.Dir)
		assert.Equal(t, "silvasync", cfg.Telemetry.ServiceName)
		assert.True(t, cfg.Telemetry.DBTraceEnabled)
	})

	t.Run("loads values from environment variables with SILVASYNC prefix", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("SILVASYNC_DATABASE_HOST", "shopdb.local")
		t.Setenv("SILVASYNC_DATABASE_PORT", "5433")
		t.Setenv("SILVASYNC_REDIS_ENABLED", "true")
		t.Setenv("SILVASYNC_SILVASOFT_API_KEY", "key")
		t.Setenv("SILVASYNC_SILVASOFT_API_USER", "user@example.com")
		t.Setenv("SILVASYNC_SILVASOFT_REQUESTS_PER_SECOND", "2.5")
		t.Setenv("SILVASYNC_SILVASOFT_RETRY_DELAY", "1s")
		t.Setenv("SILVASYNC_SYNC_ORDER_LOOKBACK", "48h")
		t.Setenv("SILVASYNC_SCHEDULER_ENABLED", "false")
		t.Setenv("SILVASYNC_SCHEDULER_ORDER_INTERVAL", "5m")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "shopdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, "key", cfg.Silvasoft.APIKey)
		assert.Equal(t, "user@example.com", cfg.Silvasoft.APIUser)
		assert.Equal(t, 2.5, cfg.Silvasoft.RequestsPerSecond)
		assert.Equal(t, time.Second, cfg.Silvasoft.RetryDelay)
		assert.Equal(t, 48*time.Hour, cfg.Sync.OrderLookback)
		assert.False(t, cfg.Scheduler.Enabled)
		assert.Equal(t, 5*time.Minute, cfg.Scheduler.OrderInterval)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("SILVASYNC_DATABASE_MAX_OPEN_CONNS", "4")
		t.Setenv("SILVASYNC_DATABASE_MAX_IDLE_CONNS", "8")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("SILVASYNC_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})

	t.Run("rejects a negative request rate", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("SILVASYNC_SILVASOFT_REQUESTS_PER_SECOND", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requests_per_second")
	})

	t.Run("storage requires a bucket", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("SILVASYNC_STORAGE_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.bucket")
	})

	t.Run("rejects sampling ratio above one", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("SILVASYNC_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "sslmode disable rejected",
			env:     map[string]string{"SILVASYNC_DATABASE_SSLMODE": "disable"},
			wantErr: "sslmode",
		},
		{
			name: "full SQL logging rejected",
			env: map[string]string{
				"SILVASYNC_DATABASE_SSLMODE":          "require",
				"SILVASYNC_TELEMETRY_DB_LOG_FULL_SQL": "true",
			},
			wantErr: "db_log_full_sql",
		},
		{
			name:    "valid production config",
			env:     map[string]string{"SILVASYNC_DATABASE_SSLMODE": "require"},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv("SILVASYNC_APP_ENV", "production")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "production", cfg.App.Env)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_RequireSilvasoft(t *testing.T) {
	cfg := &Config{Silvasoft: SilvasoftConfig{APIURL: "https://rest-api.silvasoft.nl"}}
	assert.ErrorIs(t, cfg.RequireSilvasoft(), ErrSilvasoftNotConfigured)

	cfg.Silvasoft.APIKey = "key"
	cfg.Silvasoft.APIUser = " "
	assert.ErrorIs(t, cfg.RequireSilvasoft(), ErrSilvasoftNotConfigured)

	cfg.Silvasoft.APIUser = "user"
	assert.NoError(t, cfg.RequireSilvasoft())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "shop",
		Password: "p@ss:word",
		DBName:   "shopware",
		SSLMode:  "disable",
	}
	assert.Equal(t, "postgres://shop:p%40ss%3Aword@db:5432/shopware?sslmode=disable", d.DSN())
}

func TestRedisConfig_Addr(t *testing.T) {
	r := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", r.Addr())
}
