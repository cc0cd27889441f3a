package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abgdnv/productcatalog/pkg/config/configloader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
server:
  port: 8080
  timeout:
    read: 5s
    write: 5s
    idle: 30s
    readHeader: 2s
database:
  url: postgres://catalog:secret@db:5432/products
  timeout: 3s
nats:
  url: nats://nats:4222
  timeout: 2s
rpc:
  queuegroup: product-catalog
  workers: 16
  handlertimeout: 4s
shutdown:
  timeout: 10s
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func Test_Config_Load(t *testing.T) {
	// given
	path := writeConfig(t, validYAML)
	t.Setenv("PRODUCT_PAGINATION_MAXLIMIT", "50")
	t.Setenv("PRODUCT_EVENTS_ENABLED", "true")

	// when
	cfg, err := configloader.LoadWithOptions[*Config]("product", configloader.Options{ConfigFile: path, EnvFile: filepath.Join(t.TempDir(), ".env")})

	// then
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.RPC.Workers)
	assert.Equal(t, 4*time.Second, cfg.RPC.HandlerTimeout)
	assert.Equal(t, int32(1), cfg.Pagination.DefaultPage)
	assert.Equal(t, int32(10), cfg.Pagination.DefaultLimit)
	assert.Equal(t, int32(50), cfg.Pagination.MaxLimit)
	assert.True(t, cfg.Events.Enabled)
	assert.NotContains(t, cfg.String(), "secret")
	assert.Contains(t, cfg.String(), "postgres://****@db:5432/products")
}

func Test_Config_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "missing queue group", mutate: func(c *Config) { c.RPC.QueueGroup = "" }, wantErr: "queue group"},
		{name: "missing nats url", mutate: func(c *Config) { c.NATS.Url = "" }, wantErr: "NATS URL"},
		{name: "bad database scheme", mutate: func(c *Config) { c.Database.URL = "mysql://db" }, wantErr: "postgres://"},
		{name: "default limit above max", mutate: func(c *Config) { c.Pagination.DefaultLimit = 20; c.Pagination.MaxLimit = 5 }, wantErr: "exceeds"},
		{name: "missing shutdown timeout", mutate: func(c *Config) { c.Shutdown.Timeout = 0 }, wantErr: "shutdown timeout"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			cfg, err := configloader.LoadWithOptions[*Config]("product", configloader.Options{ConfigFile: writeConfig(t, validYAML), EnvFile: filepath.Join(t.TempDir(), ".env")})
			require.NoError(t, err)
			tc.mutate(cfg)

			// when
			err = cfg.Validate()

			// then
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
