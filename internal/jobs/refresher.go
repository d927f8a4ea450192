package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"painel/internal/logger"
	"painel/internal/models"
)

// DeputyFetcher refreshes the deputy cache.
type DeputyFetcher interface {
	Get(ctx context.Context, ttl time.Duration, force bool) models.DeputyResult
}

// ReportReloader rereads the SEO reports.
type ReportReloader interface {
	Reload(ctx context.Context) (*models.ReportSet, error)
}

// SnapshotPruner trims the snapshot archive.
type SnapshotPruner interface {
	PruneSnapshots(ctx context.Context, keep int) (int64, error)
}

// Alerter is told when a source starts failing and when it recovers.
type Alerter interface {
	RefreshFailed(source string, cause error)
	RefreshRecovered(source string)
}

// Alert source names.
const (
	AlertDeputies = "deputados"
	AlertReports  = "relatórios SEO"
)

// Refresher keeps the deputy snapshot and the SEO reports warm in the
// background, so viewers rarely wait on the upstream API.
type Refresher struct {
	deputies DeputyFetcher
	reports  ReportReloader
	pruner   SnapshotPruner
	interval time.Duration
	ttl      time.Duration
	keep     int
	alerter  Alerter
	log      *zap.Logger

	mu      sync.Mutex
	failing map[string]bool
}

// NewRefresher creates a new refresher. pruner may be nil; keep <= 0
// disables pruning.
func NewRefresher(deputies DeputyFetcher, reports ReportReloader, pruner SnapshotPruner, interval, ttl time.Duration, keep int) *Refresher {
	return &Refresher{
		deputies: deputies,
		reports:  reports,
		pruner:   pruner,
		interval: interval,
		ttl:      ttl,
		keep:     keep,
		log:      logger.Named("refresher"),
		failing:  make(map[string]bool),
	}
}

// WithAlerts sends failure and recovery alerts through a.
func (r *Refresher) WithAlerts(a Alerter) *Refresher {
	r.alerter = a
	return r
}

// Start begins the background refresh loop. It blocks until ctx is done.
func (r *Refresher) Start(ctx context.Context) {
	r.log.Info("refresher started", zap.Duration("interval", r.interval))

	// Run immediately on start
	r.RunOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("refresher stopped")
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce refreshes deputies and reports concurrently, then prunes the archive.
func (r *Refresher) RunOnce(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Refresh only when the snapshot is older than the default TTL, so a
		// viewer-forced fetch a moment ago is not repeated.
		res := r.deputies.Get(gctx, r.ttl, false)
		switch {
		case res.Source == models.SourceAPI:
			r.log.Info("deputies refreshed", zap.Int("rows", len(res.Deputies)))
			r.track(AlertDeputies, nil)
		case res.Err != nil:
			r.log.Warn("deputy refresh failed", zap.String("source", res.Source), zap.Error(res.Err))
			r.track(AlertDeputies, res.Err)
		}
		return nil
	})

	if r.reports != nil {
		g.Go(func() error {
			set, err := r.reports.Reload(gctx)
			if err != nil {
				r.log.Warn("report reload failed", zap.Error(err))
				r.track(AlertReports, err)
				return nil
			}
			r.track(AlertReports, nil)
			r.log.Info("reports reloaded", zap.Int("records", len(set.Records)), zap.Int("skipped", len(set.Skipped)))
			return nil
		})
	}

	_ = g.Wait()

	if r.pruner != nil && r.keep > 0 {
		removed, err := r.pruner.PruneSnapshots(ctx, r.keep)
		if err != nil {
			r.log.Warn("failed to prune snapshots", zap.Error(err))
			return
		}
		if removed > 0 {
			r.log.Info("snapshots pruned", zap.Int64("removed", removed))
		}
	}
}

// track records the outcome for source and alerts on state changes only.
func (r *Refresher) track(source string, err error) {
	r.mu.Lock()
	was := r.failing[source]
	r.failing[source] = err != nil
	r.mu.Unlock()

	if r.alerter == nil {
		return
	}
	switch {
	case err != nil && !was:
		r.alerter.RefreshFailed(source, err)
	case err == nil && was:
		r.alerter.RefreshRecovered(source)
	}
}
