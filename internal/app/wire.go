package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/nftagg/internal/adapter"
	"github.com/alanyoungcy/nftagg/internal/cache/redis"
	"github.com/alanyoungcy/nftagg/internal/config"
	"github.com/alanyoungcy/nftagg/internal/platform/blur"
	"github.com/alanyoungcy/nftagg/internal/platform/opensea"
	"github.com/alanyoungcy/nftagg/internal/platform/uniswap"
	"github.com/alanyoungcy/nftagg/internal/router"
	"github.com/alanyoungcy/nftagg/internal/server/middleware"
	"github.com/alanyoungcy/nftagg/internal/swap"
)

// Dependencies bundles everything the HTTP layer needs to operate. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Router      *router.Router
	Cache       *redis.Client
	RateLimiter middleware.RateLimiter
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Redis (optional; caching and rate limiting degrade without it) ---
	var (
		orderCache *redis.OrderCache
		quoteCache *redis.QuoteCache
	)
	if cfg.Redis.Enabled {
		cacheClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("app: connect redis: %w", err)
		}
		closers = append(closers, func() {
			if cerr := cacheClient.Close(); cerr != nil {
				logger.Warn("closing redis", "error", cerr)
			}
		})
		deps.Cache = cacheClient
		deps.RateLimiter = redis.NewRateLimiter(cacheClient)
		orderCache = redis.NewOrderCache(cacheClient, cfg.OrderData.OrderTTL.Duration)
		quoteCache = redis.NewQuoteCache(cacheClient, cfg.Routing.QuoteTTL.Duration)
	}

	// --- Contract addresses ---
	addrs := adapter.MainnetAddresses()
	if cfg.Contracts.Router != "" {
		addrs.Router = common.HexToAddress(cfg.Contracts.Router)
	}
	if cfg.Contracts.SwapModule != "" {
		addrs.SwapModule = common.HexToAddress(cfg.Contracts.SwapModule)
	}
	if cfg.Contracts.WETH != "" {
		addrs.WETH = common.HexToAddress(cfg.Contracts.WETH)
	}

	// --- Platform clients ---
	var orderClient *opensea.Client
	if cfg.OrderData.BaseURL != "" {
		var oc opensea.OrderCache
		if orderCache != nil {
			oc = orderCache
		}
		orderClient = opensea.NewClient(cfg.OrderData.BaseURL, cfg.OrderData.APIKey, cfg.Chain.ID, oc)
	}

	var calldataClient *blur.Client
	if cfg.Calldata.BaseURL != "" {
		calldataClient = blur.NewClient(cfg.Calldata.BaseURL, cfg.Calldata.AuthToken)
	}

	var synthesizer *swap.Synthesizer
	if cfg.Routing.BaseURL != "" {
		var qc uniswap.QuoteCache
		if quoteCache != nil {
			qc = quoteCache
		}
		routeClient := uniswap.NewClient(cfg.Routing.BaseURL, qc)
		synthesizer = swap.NewSynthesizer(routeClient, addrs.SwapModule, addrs.WETH)
	}

	// --- Adapter registry and router ---
	var fetcher adapter.ExtensionFetcher
	if orderClient != nil {
		fetcher = orderClient
	}
	registry := adapter.NewDefaultRegistry(addrs, fetcher)

	deps.Router = router.New(router.Config{
		Registry:  registry,
		Orders:    orderClient,
		Calldata:  calldataClient,
		Swaps:     synthesizer,
		Addresses: addrs,
		ChainID:   int64(cfg.Chain.ID),
		Logger:    logger,
	})

	return deps, cleanup, nil
}
