package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.HTTP.Addr)
	assert.Equal(t, "file", c.Store.Driver)
	assert.Equal(t, "participants", c.Roster.DefaultKey)
	assert.Equal(t, 5*time.Second, c.Store.Timeout)
	assert.True(t, c.Development())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BALANCER_STORE_DRIVER", "sqlite")
	t.Setenv("BALANCER_STORE_SQLITE_PATH", "/tmp/x.db")
	t.Setenv("BALANCER_STORE_TIMEOUT", "250ms")
	t.Setenv("BALANCER_APP_ENV", "production")

	c, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", c.Store.Driver)
	assert.Equal(t, "/tmp/x.db", c.Store.SQLitePath)
	assert.Equal(t, 250*time.Millisecond, c.Store.Timeout)
	assert.False(t, c.Development())
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BALANCER_HTTP_ADDR=:9999\nBALANCER_ROSTER_DEFAULT_KEY=friday\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("BALANCER_HTTP_ADDR")
		os.Unsetenv("BALANCER_ROSTER_DEFAULT_KEY")
	})

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", c.HTTP.Addr)
	assert.Equal(t, "friday", c.Roster.DefaultKey)
}

func TestLoad_RejectsBadDriver(t *testing.T) {
	t.Setenv("BALANCER_STORE_DRIVER", "mongo")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestLoad_PostgresNeedsDSN(t *testing.T) {
	t.Setenv("BALANCER_STORE_DRIVER", "postgres")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}
