package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds process-level settings, read once at startup from the
// environment and treated as immutable afterwards.
type Config struct {
	// Postgres DSN, e.g. "host=localhost user=user password=... dbname=chatterbox port=5432 sslmode=disable"
	DatabaseDSN string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// HTTP
	ListenAddr string

	// Secret used to verify identity-provider JWTs.
	JWTSecret string
}

// Load reads the configuration from environment variables.
// DATABASE_DSN and JWT_SECRET are required; everything else has a
// local-development default.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseDSN:   os.Getenv("DATABASE_DSN"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("REDIS_DB must be an integer: %w", err)
		}
		cfg.RedisDB = db
	}

	if cfg.DatabaseDSN == "" {
		return nil, fmt.Errorf("DATABASE_DSN is not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
