package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/courtside/internal/config"
)

func TestPoolConfig(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:           "db.internal",
		Port:           5433,
		Name:           "courtside",
		User:           "scanner",
		Password:       "pw",
		SSLMode:        "require",
		MaxConnections: 12,
		MinConnections: 3,
	}

	poolConfig, err := PoolConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", poolConfig.ConnConfig.Host)
	assert.Equal(t, uint16(5433), poolConfig.ConnConfig.Port)
	assert.Equal(t, "courtside", poolConfig.ConnConfig.Database)
	assert.Equal(t, int32(12), poolConfig.MaxConns)
	assert.Equal(t, int32(3), poolConfig.MinConns)
	assert.Equal(t, 5*time.Minute, poolConfig.MaxConnLifetime)
}

func TestPoolConfigInvalidSSLMode(t *testing.T) {
	_, err := PoolConfig(&config.DatabaseConfig{Host: "localhost", Port: 5432, SSLMode: "sometimes"})
	assert.Error(t, err)
}

func TestSchemaIsIdempotent(t *testing.T) {
	for _, stmt := range Schema {
		assert.Contains(t, stmt, "IF NOT EXISTS")
	}
}
