package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies NFTAGG_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known NFTAGG_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	setInt(&cfg.Chain.ID, "NFTAGG_CHAIN_ID")

	setStr(&cfg.Contracts.Router, "NFTAGG_CONTRACTS_ROUTER")
	setStr(&cfg.Contracts.SwapModule, "NFTAGG_CONTRACTS_SWAP_MODULE")
	setStr(&cfg.Contracts.WETH, "NFTAGG_CONTRACTS_WETH")

	setStr(&cfg.OrderData.BaseURL, "NFTAGG_ORDER_DATA_BASE_URL")
	setStr(&cfg.OrderData.APIKey, "NFTAGG_ORDER_DATA_API_KEY")
	setDuration(&cfg.OrderData.OrderTTL, "NFTAGG_ORDER_DATA_ORDER_TTL")

	setStr(&cfg.Calldata.BaseURL, "NFTAGG_CALLDATA_BASE_URL")
	setStr(&cfg.Calldata.AuthToken, "NFTAGG_CALLDATA_AUTH_TOKEN")

	setStr(&cfg.Routing.BaseURL, "NFTAGG_ROUTING_BASE_URL")
	setDuration(&cfg.Routing.QuoteTTL, "NFTAGG_ROUTING_QUOTE_TTL")

	setBool(&cfg.Redis.Enabled, "NFTAGG_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "NFTAGG_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "NFTAGG_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "NFTAGG_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "NFTAGG_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "NFTAGG_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "NFTAGG_REDIS_TLS_ENABLED")

	setInt(&cfg.Server.Port, "NFTAGG_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "NFTAGG_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "NFTAGG_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "NFTAGG_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "NFTAGG_SERVER_RATE_WINDOW")

	setStr(&cfg.LogLevel, "NFTAGG_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
