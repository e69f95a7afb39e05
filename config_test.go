package registrar

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, DialectSQLite, config.Driver)
	assert.Equal(t, ":memory:", config.Database)
	assert.Equal(t, 25, config.MaxOpenConns)
	assert.Equal(t, 5, config.MaxIdleConns)
	assert.Equal(t, 5*time.Minute, config.ConnMaxLifetime)
	assert.Equal(t, "warn", config.LogLevel)
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.yaml")
	raw := `
driver: postgres
host: db.internal
port: 5433
database: school
username: registrar
password: secret
max_open_conns: 50
log_queries: true
ssl:
  enabled: true
  mode: verify-full
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, DialectPostgres, config.Driver)
	assert.Equal(t, "db.internal", config.Host)
	assert.Equal(t, 5433, config.Port)
	assert.Equal(t, "school", config.Database)
	assert.Equal(t, 50, config.MaxOpenConns)
	assert.True(t, config.LogQueries)
	assert.True(t, config.SSL.Enabled)
	assert.Equal(t, "verify-full", config.SSL.Mode)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.yaml")
	require.NoError(t, os.WriteFile(path, []byte("driver: postgres\nhost: from-file\n"), 0o600))

	t.Setenv("DB_HOST", "from-env")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/school")
	t.Setenv("DB_PORT", "6543")

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", config.Host)
	assert.Equal(t, "postgres://u:p@db:5432/school", config.ConnectionURL)
	assert.Equal(t, 6543, config.Port)
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DialectSQLite, config.Driver)
}

func TestIsDialectSupported(t *testing.T) {
	assert.True(t, IsDialectSupported(DialectSQLite))
	assert.True(t, IsDialectSupported(DialectPostgres))
	assert.True(t, IsDialectSupported(DialectMySQL))
	assert.True(t, IsDialectSupported(DialectSQLServer))
	assert.False(t, IsDialectSupported("mongodb"))
}
