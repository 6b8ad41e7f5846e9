// Package config defines the top-level configuration for the fill router
// service and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by NFTAGG_* environment variables.
type Config struct {
	Chain     ChainConfig     `toml:"chain"`
	Contracts ContractsConfig `toml:"contracts"`
	OrderData OrderDataConfig `toml:"order_data"`
	Calldata  CalldataConfig  `toml:"calldata"`
	Routing   RoutingConfig   `toml:"routing"`
	Redis     RedisConfig     `toml:"redis"`
	Server    ServerConfig    `toml:"server"`
	LogLevel  string          `toml:"log_level"`
}

// ChainConfig identifies the target chain.
type ChainConfig struct {
	ID int `toml:"id"`
}

// ContractsConfig optionally overrides deployed contract addresses. Empty
// fields fall back to the mainnet defaults.
type ContractsConfig struct {
	Router     string `toml:"router"`
	SwapModule string `toml:"swap_module"`
	WETH       string `toml:"weth"`
}

// OrderDataConfig holds the order-data service used to complete partial
// orders and fetch signed extensions.
type OrderDataConfig struct {
	BaseURL  string   `toml:"base_url"`
	APIKey   string   `toml:"api_key"`
	OrderTTL duration `toml:"order_ttl"`
}

// CalldataConfig holds the call-data generation service used for protocols
// that reject routed fills.
type CalldataConfig struct {
	BaseURL   string `toml:"base_url"`
	AuthToken string `toml:"auth_token"`
}

// RoutingConfig holds the liquidity-routing provider queried for swap routes.
type RoutingConfig struct {
	BaseURL  string   `toml:"base_url"`
	QuoteTTL duration `toml:"quote_ttl"`
}

// RedisConfig holds Redis connection parameters. When Enabled is false the
// service runs without caching or rate limiting.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
	RateLimit   int      `toml:"rate_limit"`
	RateWindow  duration `toml:"rate_window"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Defaults returns the built-in configuration the TOML file is merged onto.
func Defaults() Config {
	return Config{
		Chain: ChainConfig{ID: 1},
		OrderData: OrderDataConfig{
			OrderTTL: duration{30 * time.Second},
		},
		Routing: RoutingConfig{
			QuoteTTL: duration{10 * time.Second},
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		Server: ServerConfig{
			Port:       8080,
			RateWindow: duration{time.Second},
		},
		LogLevel: "info",
	}
}

// Validate checks the configuration for internal consistency and returns an
// error listing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}
	if c.Chain.ID <= 0 {
		errs = append(errs, "chain: id must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port %d out of range", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "server: rate_limit must not be negative")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty when enabled")
	}
	for _, field := range []struct {
		name  string
		value string
	}{
		{"contracts.router", c.Contracts.Router},
		{"contracts.swap_module", c.Contracts.SwapModule},
		{"contracts.weth", c.Contracts.WETH},
	} {
		if field.value != "" && !common.IsHexAddress(field.value) {
			errs = append(errs, fmt.Sprintf("%s: %q is not a valid address", field.name, field.value))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
