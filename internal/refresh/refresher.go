package refresh

import (
	"context"
	"time"

	"github.com/dennisdiepolder/dropboard/internal/aggregator"
	"github.com/dennisdiepolder/dropboard/internal/alerts"
	"github.com/dennisdiepolder/dropboard/internal/cache"
	"github.com/dennisdiepolder/dropboard/internal/dashboard"
	"github.com/dennisdiepolder/dropboard/internal/filter"
	"github.com/dennisdiepolder/dropboard/internal/metrics"
	"github.com/dennisdiepolder/dropboard/internal/normalize"
	"github.com/dennisdiepolder/dropboard/internal/source"
	"github.com/dennisdiepolder/dropboard/internal/types"
	"github.com/rs/zerolog"
)

// Broadcaster delivers refresh notices to connected clients
type Broadcaster interface {
	BroadcastNotice(notice types.RefreshNotice)
}

// Refresher periodically reloads the data sources, pushes the fresh rows
// into every live view, evicts idle views and announces the reload
type Refresher struct {
	sources     dashboard.Sources
	views       *cache.ViewRegistry[*dashboard.View]
	hub         Broadcaster
	interval    time.Duration
	idleTimeout time.Duration
	opts        dashboard.Options
	logger      zerolog.Logger
	now         func() time.Time
}

// NewRefresher creates a new Refresher. idleTimeout <= 0 disables eviction.
func NewRefresher(sources dashboard.Sources, views *cache.ViewRegistry[*dashboard.View], hub Broadcaster, interval, idleTimeout time.Duration, opts dashboard.Options, logger zerolog.Logger) *Refresher {
	return &Refresher{
		sources:     sources,
		views:       views,
		hub:         hub,
		interval:    interval,
		idleTimeout: idleTimeout,
		opts:        opts,
		logger:      logger.With().Str("component", "refresher").Logger(),
		now:         time.Now,
	}
}

// Start runs a refresh cycle every interval until ctx is done
func (r *Refresher) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info().Dur("interval", r.interval).Msg("refresher started")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("refresher stopped")
			return

		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

type fetchResult struct {
	payload types.SheetPayload
	err     error
}

// RunOnce performs one refresh cycle and returns the notice it broadcast
func (r *Refresher) RunOnce(ctx context.Context) types.RefreshNotice {
	start := r.now()

	// kinds sharing a source reload it once
	results := make(map[string]fetchResult)
	reload := func(kind dashboard.Kind) fetchResult {
		src := r.sources.For(kind)
		if res, ok := results[src.Name()]; ok {
			return res
		}
		payload, err := source.Reload(ctx, src)
		res := fetchResult{payload: payload, err: err}
		results[src.Name()] = res
		if err != nil {
			metrics.Get().RecordRefreshError()
			r.logger.Warn().Err(err).Str("source", src.Name()).Msg("refresh fetch failed")
		}
		return res
	}

	refreshed := 0
	for _, v := range r.views.All() {
		res := reload(v.Kind())
		gen := v.BeginFetch()
		if res.err != nil {
			v.FetchFailed(gen, res.err)
			continue
		}
		if v.DataArrived(gen, res.payload) {
			refreshed++
		}
	}

	evicted := 0
	if r.idleTimeout > 0 {
		evicted = r.views.RemoveIdle(r.idleTimeout)
		metrics.Get().RecordViewsEvicted(evicted)
	}
	metrics.Get().SetActiveViews(r.views.Count())

	notice := r.notice(reload(dashboard.KindDashboard))
	r.hub.BroadcastNotice(notice)

	duration := r.now().Sub(start)
	metrics.Get().RecordRefreshCycle(duration, 1)
	r.logger.Info().
		Int("views_refreshed", refreshed).
		Int("views_evicted", evicted).
		Int("records", notice.RecordCount).
		Dur("duration", duration).
		Msg("refresh cycle complete")

	return notice
}

func (r *Refresher) notice(res fetchResult) types.RefreshNotice {
	notice := types.RefreshNotice{
		Type:      types.NoticeTypeRefreshed,
		FetchedAt: r.now(),
	}
	if res.err != nil {
		notice.Error = source.ErrorMessage(res.err, source.DashboardFallbackMessage)
		return notice
	}

	records := normalize.Normalize(res.payload, r.opts.Location)
	aggs := aggregator.ByEmployee(records, r.opts.Location)
	metrics.Get().UpdateRecordStats(records, alerts.CheckEmployeeAlerts(aggs, r.opts.UnderperformerThreshold))

	summary := aggregator.Summarize(records)
	notice.RecordCount = summary.RecordCount
	notice.TotalDrops = summary.TotalDrops
	notice.TotalAmount = summary.Amount

	notice.ByEmail = make(map[string]types.NoticeTotals)
	for _, rec := range records {
		email := filter.NormalizeEmail(rec.Email)
		if email == "" {
			continue
		}
		totals := notice.ByEmail[email]
		totals.RecordCount++
		totals.TotalDrops += rec.TotalDrops
		notice.ByEmail[email] = totals
	}
	return notice
}
