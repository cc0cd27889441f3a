package configloader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Database struct {
		URL     string        `koanf:"url"`
		Timeout time.Duration `koanf:"timeout"`
	} `koanf:"database"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func (c *testConfig) Validate() error {
	if c.Database.URL == "" {
		return errors.New("database url is required")
	}
	return nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadWithOptions(t *testing.T) {
	dir := t.TempDir()
	yamlFile := writeFile(t, dir, "config.yaml", `
database:
  url: postgres://yaml@localhost:5432/products
  timeout: 5s
log:
  level: info
`)
	envFile := writeFile(t, dir, ".env", "CATALOG_LOG_LEVEL=debug\nOTHER_LOG_LEVEL=error\n")

	t.Run("yaml and .env are merged", func(t *testing.T) {
		// when
		cfg, err := LoadWithOptions[*testConfig]("catalog", Options{ConfigFile: yamlFile, EnvFile: envFile})

		// then
		require.NoError(t, err)
		assert.Equal(t, "postgres://yaml@localhost:5432/products", cfg.Database.URL)
		assert.Equal(t, 5*time.Second, cfg.Database.Timeout)
		assert.Equal(t, "debug", cfg.Log.Level, ".env overrides yaml")
	})

	t.Run("system env has the highest priority", func(t *testing.T) {
		// given
		t.Setenv("CATALOG_DATABASE_URL", "postgres://env@db:5432/products")
		t.Setenv("CATALOG_LOG_LEVEL", "warn")

		// when
		cfg, err := LoadWithOptions[*testConfig]("catalog", Options{ConfigFile: yamlFile, EnvFile: envFile})

		// then
		require.NoError(t, err)
		assert.Equal(t, "postgres://env@db:5432/products", cfg.Database.URL)
		assert.Equal(t, "warn", cfg.Log.Level)
	})

	t.Run("validation error is returned", func(t *testing.T) {
		// given
		emptyYaml := writeFile(t, dir, "empty.yaml", "log:\n  level: info\n")

		// when
		_, err := LoadWithOptions[*testConfig]("catalog", Options{ConfigFile: emptyYaml, EnvFile: filepath.Join(dir, "missing.env")})

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config validation failed")
	})
}
