package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Environment)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.RequestTimeout)
	assert.False(t, cfg.Database.Enabled())
	assert.Equal(t, int32(10), cfg.Database.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, "customer-audit", cfg.Kafka.AuditTopic)
	assert.Empty(t, cfg.Kafka.BrokerList())
	assert.Equal(t, time.Second, cfg.Audit.RelayInterval)
	assert.Equal(t, 100, cfg.Audit.RelayBatchSize)
	assert.Empty(t, cfg.AdminToken)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/customers")
	t.Setenv("KAFKA_BROKERS", " broker-1:9092, ,broker-2:9092 ")
	t.Setenv("CUSTOMER_CACHE_TTL", "30s")
	t.Setenv("ADMIN_API_TOKEN", "secret")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.False(t, cfg.IsDev())
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.BrokerList())
	assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)
	assert.Equal(t, "secret", cfg.AdminToken)
}

func TestFromEnvValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"unknown environment", map[string]string{"ENVIRONMENT": "qa"}, "invalid ENVIRONMENT"},
		{"unknown log level", map[string]string{"LOG_LEVEL": "trace"}, "invalid LOG_LEVEL"},
		{"port out of range", map[string]string{"PORT": "70000"}, "PORT must be between 1 and 65535"},
		{"idle above open", map[string]string{"DB_MAX_OPEN_CONNS": "2", "DB_MAX_IDLE_CONNS": "5"}, "cannot be greater than"},
		{"cache ttl with redis", map[string]string{"REDIS_URL": "redis://localhost:6379", "CUSTOMER_CACHE_TTL": "0s"}, "CUSTOMER_CACHE_TTL"},
		{"empty relay batch", map[string]string{"AUDIT_RELAY_BATCH_SIZE": "0"}, "AUDIT_RELAY_BATCH_SIZE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Config{Environment: "nope", LogLevel: "loud"}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"ENVIRONMENT", "LOG_LEVEL", "PORT", "REQUEST_TIMEOUT", "AUDIT_RELAY_INTERVAL"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=7070\nLOG_LEVEL=debug\n"), 0o600))
	// registered so the values godotenv sets are removed after the test
	t.Setenv("PORT", "")
	t.Setenv("LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("PORT"))
	require.NoError(t, os.Unsetenv("LOG_LEVEL"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadPrefersProcessEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=7070\n"), 0o600))
	t.Setenv("PORT", "6060")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Server.Port)
}

func TestLoadIgnoresMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
