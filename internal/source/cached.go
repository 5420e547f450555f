package source

import (
	"context"
	"errors"
	"time"

	"github.com/dennisdiepolder/dropboard/internal/cache"
	"github.com/dennisdiepolder/dropboard/internal/metrics"
	"github.com/dennisdiepolder/dropboard/internal/types"
	"github.com/rs/zerolog"
)

const (
	defaultLockTTL  = 30 * time.Second
	defaultPollWait = 100 * time.Millisecond
)

// Cached serves a source through a RowStore. On a miss only one caller per
// key fetches upstream; the others wait for the store to fill.
type Cached struct {
	src    Source
	store  cache.RowStore
	locker cache.Locker
	ttl    time.Duration
	logger zerolog.Logger

	lockTTL  time.Duration
	pollWait time.Duration
}

// NewCached wraps src. A nil locker disables the single-flight lock.
func NewCached(src Source, store cache.RowStore, locker cache.Locker, ttl time.Duration, logger zerolog.Logger) *Cached {
	return &Cached{
		src:      src,
		store:    store,
		locker:   locker,
		ttl:      ttl,
		logger:   logger.With().Str("component", "source_cache").Str("source", src.Name()).Logger(),
		lockTTL:  defaultLockTTL,
		pollWait: defaultPollWait,
	}
}

func (c *Cached) Name() string {
	return c.src.Name()
}

func (c *Cached) key() string {
	return "rows:" + c.src.Name()
}

func (c *Cached) Fetch(ctx context.Context) (types.SheetPayload, error) {
	if payload, ok := c.lookup(ctx); ok {
		metrics.Get().RecordCacheHit()
		return payload, nil
	}
	metrics.Get().RecordCacheMiss()

	if c.locker != nil {
		unlock, err := c.locker.Obtain(ctx, c.key(), c.lockTTL)
		switch {
		case errors.Is(err, cache.ErrLockHeld):
			if payload, ok := c.waitForFill(ctx); ok {
				return payload, nil
			}
			c.logger.Warn().Msg("fetch lock still held, fetching without it")
		case err != nil:
			c.logger.Warn().Err(err).Msg("error obtaining fetch lock, fetching without it")
		default:
			defer func() {
				if err := unlock(context.Background()); err != nil {
					c.logger.Warn().Err(err).Msg("failed to release fetch lock")
				}
			}()
			// another holder may have filled the store before we got the lock
			if payload, ok := c.lookup(ctx); ok {
				return payload, nil
			}
		}
	}

	return c.fetchAndStore(ctx)
}

// Reload fetches upstream unconditionally and replaces the cached payload
func (c *Cached) Reload(ctx context.Context) (types.SheetPayload, error) {
	return c.fetchAndStore(ctx)
}

func (c *Cached) fetchAndStore(ctx context.Context) (types.SheetPayload, error) {
	start := time.Now()
	payload, err := c.src.Fetch(ctx)
	metrics.Get().RecordFetch(time.Since(start), err)
	if err != nil {
		return types.SheetPayload{}, err
	}

	if err := c.store.Set(ctx, c.key(), payload, c.ttl); err != nil {
		c.logger.Warn().Err(err).Msg("failed to cache rows")
	}
	return payload, nil
}

func (c *Cached) lookup(ctx context.Context) (types.SheetPayload, bool) {
	payload, ok, err := c.store.Get(ctx, c.key())
	if err != nil {
		c.logger.Warn().Err(err).Msg("row cache read failed")
		return types.SheetPayload{}, false
	}
	return payload, ok
}

func (c *Cached) waitForFill(ctx context.Context) (types.SheetPayload, bool) {
	ticker := time.NewTicker(c.pollWait)
	defer ticker.Stop()
	deadline := time.NewTimer(c.lockTTL)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return types.SheetPayload{}, false
		case <-deadline.C:
			return types.SheetPayload{}, false
		case <-ticker.C:
			if payload, ok := c.lookup(ctx); ok {
				return payload, true
			}
		}
	}
}
