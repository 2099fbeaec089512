package config_test

import (
	"testing"

	"chatterbox/backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDatabaseAndSecret(t *testing.T) {
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()
	assert.Error(t, err)

	t.Setenv("DATABASE_DSN", "host=localhost dbname=chatterbox")
	_, err = config.Load()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "host=localhost dbname=chatterbox", cfg.DatabaseDSN)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_DSN", "dsn")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("REDIS_DB", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 0, cfg.RedisDB)
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("DATABASE_DSN", "dsn")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("REDIS_DB", "not-a-number")

	_, err := config.Load()
	assert.Error(t, err)
}
