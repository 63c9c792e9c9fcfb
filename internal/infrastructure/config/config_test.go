package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"PROV_APP_NAME":               os.Getenv("PROV_APP_NAME"),
		"PROV_APP_ENV":                os.Getenv("PROV_APP_ENV"),
		"PROV_LOG_LEVEL":              os.Getenv("PROV_LOG_LEVEL"),
		"PROV_ERP_BASE_URL":           os.Getenv("PROV_ERP_BASE_URL"),
		"PROV_ERP_TOKEN_URL":          os.Getenv("PROV_ERP_TOKEN_URL"),
		"PROV_ERP_USERNAME":           os.Getenv("PROV_ERP_USERNAME"),
		"PROV_ERP_PASSWORD":           os.Getenv("PROV_ERP_PASSWORD"),
		"PROV_EGNYTE_API_BASE_URL":    os.Getenv("PROV_EGNYTE_API_BASE_URL"),
		"PROV_EGNYTE_TOKEN_URL":       os.Getenv("PROV_EGNYTE_TOKEN_URL"),
		"PROV_EGNYTE_CLIENT_ID":       os.Getenv("PROV_EGNYTE_CLIENT_ID"),
		"PROV_EGNYTE_USERNAME":        os.Getenv("PROV_EGNYTE_USERNAME"),
		"PROV_EGNYTE_PASSWORD":        os.Getenv("PROV_EGNYTE_PASSWORD"),
		"PROV_EGNYTE_SHARED_ROOT":     os.Getenv("PROV_EGNYTE_SHARED_ROOT"),
		"PROV_PROVISION_WORKERS":      os.Getenv("PROV_PROVISION_WORKERS"),
		"PROV_PROVISION_DRY_RUN":      os.Getenv("PROV_PROVISION_DRY_RUN"),
		"PROV_TOKEN_CACHE_BACKEND":    os.Getenv("PROV_TOKEN_CACHE_BACKEND"),
		"PROV_LEDGER_DRIVER":          os.Getenv("PROV_LEDGER_DRIVER"),
		"PROV_TELEMETRY_SAMPLING_RATIO": os.Getenv("PROV_TELEMETRY_SAMPLING_RATIO"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "egnyte-provisioner", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "Projects", cfg.Egnyte.SharedRoot)
		assert.Equal(t, "Templates", cfg.Egnyte.TemplateRoot)
		assert.Equal(t, 30*time.Second, cfg.Egnyte.CopyTimeout)
		assert.Equal(t, "file", cfg.TokenCache.Backend)
		assert.Equal(t, "sqlite", cfg.Ledger.Driver)
		assert.Equal(t, 4, cfg.Provision.Workers)
		assert.Equal(t, 64, cfg.Provision.QueueSize)
		assert.Equal(t, 5*time.Minute, cfg.Provision.JobTimeout)
		assert.False(t, cfg.Provision.DryRun)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
		assert.Equal(t, "egnyte-provisioner", cfg.Telemetry.ServiceName)
	})

	t.Run("loads values from environment variables with PROV prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("PROV_APP_NAME", "provisioner-test")
		os.Setenv("PROV_LOG_LEVEL", "debug")
		os.Setenv("PROV_EGNYTE_SHARED_ROOT", "ClientWork")
		os.Setenv("PROV_PROVISION_WORKERS", "8")
		os.Setenv("PROV_PROVISION_DRY_RUN", "true")
		os.Setenv("PROV_TOKEN_CACHE_BACKEND", "memory")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "provisioner-test", cfg.App.Name)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "ClientWork", cfg.Egnyte.SharedRoot)
		assert.Equal(t, 8, cfg.Provision.Workers)
		assert.True(t, cfg.Provision.DryRun)
		assert.Equal(t, "memory", cfg.TokenCache.Backend)
	})

	t.Run("rejects unknown token cache backend", func(t *testing.T) {
		clearEnv()
		os.Setenv("PROV_TOKEN_CACHE_BACKEND", "etcd")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("rejects unknown ledger driver", func(t *testing.T) {
		clearEnv()
		os.Setenv("PROV_LEDGER_DRIVER", "mysql")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("rejects out of range sampling ratio", func(t *testing.T) {
		clearEnv()
		os.Setenv("PROV_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("requires credentials in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("PROV_APP_ENV", "production")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("production passes with full credentials", func(t *testing.T) {
		clearEnv()
		os.Setenv("PROV_APP_ENV", "production")
		os.Setenv("PROV_ERP_BASE_URL", "https://erp.example.com/api")
		os.Setenv("PROV_ERP_TOKEN_URL", "https://erp.example.com/identity/connect/token")
		os.Setenv("PROV_ERP_USERNAME", "svc-provisioner")
		os.Setenv("PROV_ERP_PASSWORD", "secret")
		os.Setenv("PROV_EGNYTE_API_BASE_URL", "https://acme.egnyte.com/pubapi/v1")
		os.Setenv("PROV_EGNYTE_TOKEN_URL", "https://acme.egnyte.com/puboauth/token")
		os.Setenv("PROV_EGNYTE_CLIENT_ID", "client-id")
		os.Setenv("PROV_EGNYTE_USERNAME", "svc-egnyte")
		os.Setenv("PROV_EGNYTE_PASSWORD", "secret")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestApplyDefaults_PostgresLedgerKeepsDSNEmpty(t *testing.T) {
	cfg := &Config{}
	cfg.Ledger.Driver = "postgres"
	applyDefaults(cfg)

	// The sqlite fallback path must not leak into postgres configs
	assert.Empty(t, cfg.Ledger.DSN)
}
