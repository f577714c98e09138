package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/sqlbridge/query"
)

func TestLoadConfigDefaults(t *testing.T) {
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.AutoLimit)
	assert.Equal(t, uint64(1000), cfg.AutoLimitRows)
	assert.Equal(t, 256, cfg.CacheSize)
	assert.Empty(t, cfg.DefaultConnection)
}

func TestConnectionLookup(t *testing.T) {
	cfg := &Config{
		DefaultConnection: "main",
		Connections: map[string]Connection{
			"main":      {Type: "postgres", URL: "postgres://localhost/app", Database: "app"},
			"analytics": {Type: "mysql", URL: "root@tcp(localhost)/stats", Database: "stats"},
		},
	}

	conn, ok := cfg.Connection("analytics")
	require.True(t, ok)
	assert.Equal(t, "stats", conn.Database)

	// Empty name falls back to the default connection.
	conn, ok = cfg.Connection("")
	require.True(t, ok)
	assert.Equal(t, "app", conn.Database)

	_, ok = cfg.Connection("missing")
	assert.False(t, ok)
}

func TestConnectionDatabaseType(t *testing.T) {
	dbType, err := Connection{Type: "postgres"}.DatabaseType()
	require.NoError(t, err)
	assert.Equal(t, query.PostgreSQL, dbType)

	_, err = Connection{Type: "oracle"}.DatabaseType()
	assert.Error(t, err)
}
