package config

import (
	"fmt"
	"strings"
)

const (
	defaultPage     = 1
	defaultLimit    = 10
	defaultMaxLimit = 100
)

// PaginationConfig supplies the defaults and bounds applied to list requests.
type PaginationConfig struct {
	DefaultPage  int32 `koanf:"defaultpage"`
	DefaultLimit int32 `koanf:"defaultlimit"`
	MaxLimit     int32 `koanf:"maxlimit"`
}

// String returns a string representation of the PaginationConfig.
func (c *PaginationConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Pagination ---\n")
	b.WriteString(fmt.Sprintf("  defaultpage: %d\n", c.DefaultPage))
	b.WriteString(fmt.Sprintf("  defaultlimit: %d\n", c.DefaultLimit))
	b.WriteString(fmt.Sprintf("  maxlimit: %d\n", c.MaxLimit))
	return b.String()
}

// Validate fills unset values with defaults and rejects inconsistent bounds.
func (c *PaginationConfig) Validate() error {
	if c.DefaultPage == 0 {
		c.DefaultPage = defaultPage
	}
	if c.DefaultLimit == 0 {
		c.DefaultLimit = defaultLimit
	}
	if c.MaxLimit == 0 {
		c.MaxLimit = defaultMaxLimit
	}
	if c.DefaultPage < 1 {
		return fmt.Errorf("pagination.defaultpage must be at least 1")
	}
	if c.DefaultLimit < 1 {
		return fmt.Errorf("pagination.defaultlimit must be at least 1")
	}
	if c.DefaultLimit > c.MaxLimit {
		return fmt.Errorf("pagination.defaultlimit %d exceeds pagination.maxlimit %d", c.DefaultLimit, c.MaxLimit)
	}
	return nil
}

// DefaultPagination returns the built-in pagination settings.
func DefaultPagination() PaginationConfig {
	return PaginationConfig{DefaultPage: defaultPage, DefaultLimit: defaultLimit, MaxLimit: defaultMaxLimit}
}
