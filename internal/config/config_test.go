package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendeploy/versioning/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))

	return dir
}

func TestLoadConfig(t *testing.T) {
	t.Run("loads file values over defaults", func(t *testing.T) {
		dir := writeConfig(t, `
database:
  host: db.example.com
  name: versioning
  user: svc
artifactory:
  defaultBaseUri: https://artifactory.example.com
http:
  address: ":9090"
`)

		cfg, err := config.LoadConfig(dir)
		require.NoError(t, err)

		assert.Equal(t, "db.example.com", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, ":9090", cfg.HTTP.Address)
		assert.Equal(t, 5*time.Second, cfg.HTTP.ShutdownTimeout)
		assert.Equal(t, "https://artifactory.example.com", cfg.Artifactory.DefaultBaseURI)
		assert.Equal(t, "info", cfg.Logging.Level)
	})

	t.Run("missing default base URI fails validation", func(t *testing.T) {
		dir := writeConfig(t, `
database:
  host: db.example.com
  name: versioning
`)

		_, err := config.LoadConfig(dir)
		assert.Error(t, err)
	})

	t.Run("unknown log level fails validation", func(t *testing.T) {
		dir := writeConfig(t, `
database:
  host: db.example.com
  name: versioning
artifactory:
  defaultBaseUri: https://artifactory.example.com
logging:
  level: loud
`)

		_, err := config.LoadConfig(dir)
		assert.Error(t, err)
	})
}

func TestDatabaseDSN(t *testing.T) {
	db := config.Database{
		Host:     "db.example.com",
		Port:     5432,
		Name:     "versioning",
		User:     "svc",
		Password: "secret",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.example.com port=5432 user=svc password=secret dbname=versioning sslmode=require",
		db.DSN())
}
