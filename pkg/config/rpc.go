package config

import (
	"fmt"
	"strings"
	"time"
)

// RPCServerConfig configures the message-pattern router.
type RPCServerConfig struct {
	// QueueGroup load-balances commands across service replicas.
	QueueGroup string `koanf:"queuegroup"`
	// Workers caps the number of commands handled concurrently.
	Workers int `koanf:"workers"`
	// HandlerTimeout bounds the store work done for a single command.
	HandlerTimeout time.Duration `koanf:"handlertimeout"`
}

// RPCClientConfig configures callers of the message-pattern API.
type RPCClientConfig struct {
	Timeout        time.Duration        `koanf:"timeout"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuitbreaker"`
}

func (c *RPCServerConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- RPC Server ---\n")
	b.WriteString(fmt.Sprintf("  queuegroup: %s\n", c.QueueGroup))
	b.WriteString(fmt.Sprintf("  workers: %d\n", c.Workers))
	b.WriteString(fmt.Sprintf("  handlertimeout: %s\n", c.HandlerTimeout))
	return b.String()
}

func (c *RPCServerConfig) Validate() error {
	if c.QueueGroup == "" {
		return fmt.Errorf("rpc queue group is not configured")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("rpc workers must be greater than zero")
	}
	if c.HandlerTimeout <= 0 {
		return fmt.Errorf("rpc handler timeout must be greater than zero")
	}
	return nil
}

func (c *RPCClientConfig) String() string {
	return fmt.Sprintf("\n--- RPC Client ---\n  timeout: %s\n", c.Timeout) + c.CircuitBreaker.String()
}

func (c *RPCClientConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("rpc client timeout is not configured")
	}
	return c.CircuitBreaker.Validate()
}
