package main

import (
	"context"
	"fmt"

	"github.com/bsm/redislock"
	"github.com/dennisdiepolder/dropboard/internal/cache"
	"github.com/dennisdiepolder/dropboard/internal/config"
	"github.com/dennisdiepolder/dropboard/internal/dashboard"
	"github.com/dennisdiepolder/dropboard/internal/source"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// buildSources creates the upstream source of each view kind
func buildSources(ctx context.Context, cfg *config.Config) (dashboard.Sources, error) {
	switch cfg.SourceMode {
	case config.SourceSheets:
		if cfg.SheetsAPIKey == "" || cfg.SheetsSpreadsheetID == "" {
			return nil, fmt.Errorf("SHEETS_API_KEY and SHEETS_SPREADSHEET_ID are required for sheets mode")
		}
		primary, err := source.NewSheetsSource(ctx, cfg.SheetsAPIKey, cfg.SheetsSpreadsheetID, cfg.SheetsRange)
		if err != nil {
			return nil, err
		}
		sources := dashboard.Sources{dashboard.KindDashboard: primary}
		if cfg.PerformanceSheetsRange != cfg.SheetsRange {
			perf, err := source.NewSheetsSource(ctx, cfg.SheetsAPIKey, cfg.SheetsSpreadsheetID, cfg.PerformanceSheetsRange)
			if err != nil {
				return nil, err
			}
			sources[dashboard.KindPerformance] = perf
		}
		return sources, nil

	case config.SourceXLSX:
		if cfg.XLSXPath == "" {
			return nil, fmt.Errorf("XLSX_PATH is required for xlsx mode")
		}
		return dashboard.Sources{dashboard.KindDashboard: source.NewXLSXSource(cfg.XLSXPath, cfg.XLSXSheet)}, nil

	case config.SourceHTTP:
		if cfg.SourceURL == "" {
			return nil, fmt.Errorf("SOURCE_URL is required for http mode")
		}
		return dashboard.Sources{dashboard.KindDashboard: source.NewHTTPSource(cfg.SourceURL, cfg.FetchTimeout)}, nil

	default:
		return dashboard.Sources{dashboard.KindDashboard: source.NewMockSource()}, nil
	}
}

// wrapWithCache puts every source behind the configured row cache. The
// returned func releases the cache backend.
func wrapWithCache(ctx context.Context, cfg *config.Config, sources dashboard.Sources, logger zerolog.Logger) (dashboard.Sources, func(), error) {
	var (
		store  cache.RowStore
		locker cache.Locker
		closer = func() {}
	)

	switch cfg.CacheMode {
	case config.CacheNone:
		return sources, closer, nil

	case config.CacheRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddress, err)
		}
		store = cache.NewRedisRowStore(client, "dropboard:")
		locker = cache.NewRedisLocker(redislock.New(client))
		closer = func() { client.Close() }
		logger.Info().Str("address", cfg.RedisAddress).Msg("using redis row cache")

	default:
		store = cache.NewMemoryRowStore()
		locker = cache.NewMemoryLocker()
	}

	wrapped := make(dashboard.Sources, len(sources))
	for kind, src := range sources {
		wrapped[kind] = source.NewCached(src, store, locker, cfg.CacheTTL, logger)
	}
	return wrapped, closer, nil
}

func pipelineOptions(cfg *config.Config) dashboard.Options {
	opts := dashboard.DefaultOptions()
	opts.Location = cfg.Location
	opts.UnderperformerThreshold = cfg.UnderperformerThreshold
	opts.RecentLimit = cfg.RecentLimit
	opts.PageSize = cfg.PageSize
	return opts
}
