package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATABASE_DRIVER", "BROADCAST_DRIVER", "WS_ALLOWED_ORIGINS", "SHUTDOWN_TIMEOUT"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMemory, cfg.DatabaseDriver)
	assert.Equal(t, BroadcastMemory, cfg.BroadcastDriver)
	assert.Empty(t, cfg.WSAllowedOrigins)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file:posts.db")
	t.Setenv("WS_ALLOWED_ORIGINS", "example.com, *.example.org ,")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, []string{"example.com", "*.example.org"}, cfg.WSAllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg := &Config{DatabaseDriver: DriverPostgres, BroadcastDriver: BroadcastRabbitMQ}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "RABBITMQ_URL")

	cfg = &Config{DatabaseDriver: "mysql", BroadcastDriver: "kafka"}
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_DRIVER")
	assert.Contains(t, err.Error(), "BROADCAST_DRIVER")
}
