package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	BroadcastMemory   = "memory"
	BroadcastRabbitMQ = "rabbitmq"
	BroadcastNoop     = "noop"
)

type Config struct {
	Port             string
	DatabaseDriver   string
	DatabaseURL      string
	BroadcastDriver  string
	RabbitMQURL      string
	JWTSecret        string
	LogFormat        string
	LogLevel         string
	WSAllowedOrigins []string
	ShutdownTimeout  time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Default().Warn("loading .env failed", "error", err)
	}

	return &Config{
		Port:             getEnv("PORT", "8080"),
		DatabaseDriver:   getEnv("DATABASE_DRIVER", DriverMemory),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		BroadcastDriver:  getEnv("BROADCAST_DRIVER", BroadcastMemory),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		WSAllowedOrigins: splitList(getEnv("WS_ALLOWED_ORIGINS", "")),
		ShutdownTimeout:  getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// Validate reports every inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.DatabaseDriver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for driver %q", c.DatabaseDriver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver))
	}
	switch c.BroadcastDriver {
	case BroadcastMemory, BroadcastNoop:
	case BroadcastRabbitMQ:
		if c.RabbitMQURL == "" {
			errs = append(errs, errors.New("RABBITMQ_URL is required for broadcast driver rabbitmq"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown BROADCAST_DRIVER %q", c.BroadcastDriver))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Default().Warn("invalid duration, using default", "key", key, "value", value, "default", fallback)
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
