// Package config holds the product catalog service configuration.
package config

import (
	"strings"

	"github.com/abgdnv/productcatalog/pkg/config"
	"github.com/abgdnv/productcatalog/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	Database   config.DatabaseConfig   `koanf:"database"`
	NATS       config.NATSConfig       `koanf:"nats"`
	RPC        config.RPCServerConfig  `koanf:"rpc"`
	Pagination config.PaginationConfig `koanf:"pagination"`
	Events     EventsConfig            `koanf:"events"`
	Log        config.LogConfig        `koanf:"log"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
}

// EventsConfig switches publishing of product events to JetStream.
type EventsConfig struct {
	Enabled bool `koanf:"enabled"`
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.Database.String())
	b.WriteString(c.NATS.String())
	b.WriteString(c.RPC.String())
	b.WriteString(c.Pagination.String())
	b.WriteString("\n--- Events ---\n")
	if c.Events.Enabled {
		b.WriteString("  enabled: true\n")
	} else {
		b.WriteString("  enabled: false\n")
	}
	b.WriteString(c.Log.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	validators := []configloader.Validator{
		&c.HTTPServer,
		&c.Database,
		&c.NATS,
		&c.RPC,
		&c.Pagination,
		&c.Log,
		&c.Telemetry,
		&c.PProf,
		&c.Shutdown,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
