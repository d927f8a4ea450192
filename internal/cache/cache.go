// Package cache keeps the deputy listing between API fetches.
//
// Freshness is decided per call: a caller passes its own TTL and may force a
// refresh. A failed refresh keeps serving the previous snapshot, flagged stale.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"painel/internal/logger"
	"painel/internal/metrics"
	"painel/internal/models"
)

// Fetcher loads the full deputy listing from upstream.
type Fetcher interface {
	FetchDeputies(ctx context.Context) ([]models.Deputy, error)
}

// Store holds the current snapshot. Load returns nil, nil when empty.
type Store interface {
	Load(ctx context.Context) (*models.DeputySnapshot, error)
	Save(ctx context.Context, snap *models.DeputySnapshot) error
	Clear(ctx context.Context) error
}

// Archive keeps past snapshots for cold starts while upstream is down.
type Archive interface {
	SaveSnapshot(ctx context.Context, snap *models.DeputySnapshot) error
	LatestSnapshot(ctx context.Context) (*models.DeputySnapshot, error)
}

// Cache serves deputy snapshots with per-call TTL semantics.
type Cache struct {
	fetcher Fetcher
	store   Store
	archive Archive
	group   singleflight.Group
	now     func() time.Time
	log     *zap.Logger

	mu      sync.RWMutex
	lastErr error
}

// Option configures a Cache.
type Option func(*Cache)

// WithArchive enables archiving of successful fetches and the cold-start fallback.
func WithArchive(a Archive) Option {
	return func(c *Cache) { c.archive = a }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a cache that refreshes through fetcher and keeps data in store.
func New(fetcher Fetcher, store Store, opts ...Option) *Cache {
	c := &Cache{
		fetcher: fetcher,
		store:   store,
		now:     time.Now,
		log:     logger.Named("cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the deputy listing, refreshing it when force is set, when the
// snapshot is older than ttl or when there is no snapshot yet.
func (c *Cache) Get(ctx context.Context, ttl time.Duration, force bool) models.DeputyResult {
	snap, err := c.store.Load(ctx)
	if err != nil {
		c.log.Warn("failed to load snapshot from store", zap.Error(err))
		snap = nil
	}

	if !c.shouldRefresh(snap, ttl, force) {
		metrics.ObserveCacheResult(models.SourceCache)
		return models.DeputyResult{
			Deputies:  snap.Deputies,
			Source:    models.SourceCache,
			FetchedAt: snap.FetchedAt,
		}
	}

	fresh, err := c.refresh(ctx)
	if err == nil {
		metrics.ObserveCacheResult(models.SourceAPI)
		return models.DeputyResult{
			Deputies:  fresh.Deputies,
			Source:    models.SourceAPI,
			FetchedAt: fresh.FetchedAt,
		}
	}

	if snap.IsEmpty() {
		snap = c.fromArchive(ctx)
	}
	if !snap.IsEmpty() {
		metrics.ObserveCacheResult(models.SourceCacheStale)
		return models.DeputyResult{
			Deputies:  snap.Deputies,
			Source:    models.SourceCacheStale,
			FetchedAt: snap.FetchedAt,
			Err:       err,
		}
	}

	metrics.ObserveCacheResult(models.SourceError)
	return models.DeputyResult{Source: models.SourceError, Err: err}
}

// Clear drops the snapshot, its timestamp and the last refresh error.
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return err
	}
	c.setLastErr(nil)
	c.log.Info("deputy cache cleared")
	return nil
}

// LastError returns the error of the most recent failed refresh, if any.
func (c *Cache) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// HasData reports whether a snapshot is currently held.
func (c *Cache) HasData(ctx context.Context) bool {
	snap, err := c.store.Load(ctx)
	return err == nil && !snap.IsEmpty()
}

func (c *Cache) shouldRefresh(snap *models.DeputySnapshot, ttl time.Duration, force bool) bool {
	if force || snap.IsEmpty() {
		return true
	}
	return c.now().Sub(snap.FetchedAt) > ttl
}

// refresh fetches once for all concurrent callers.
func (c *Cache) refresh(ctx context.Context) (*models.DeputySnapshot, error) {
	v, err, _ := c.group.Do("deputados", func() (any, error) {
		start := time.Now()
		deputies, err := c.fetcher.FetchDeputies(ctx)
		metrics.ObserveFetch(err, time.Since(start))
		if err != nil {
			c.setLastErr(err)
			c.log.Error("deputy refresh failed", zap.Error(err))
			return nil, err
		}

		snap := &models.DeputySnapshot{
			ID:        uuid.New(),
			Deputies:  deputies,
			FetchedAt: c.now(),
		}
		if err := c.store.Save(ctx, snap); err != nil {
			c.log.Warn("failed to save snapshot to store", zap.Error(err))
		}
		if c.archive != nil {
			if err := c.archive.SaveSnapshot(ctx, snap); err != nil {
				c.log.Warn("failed to archive snapshot", zap.Error(err))
			}
		}
		c.setLastErr(nil)
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.DeputySnapshot), nil
}

func (c *Cache) fromArchive(ctx context.Context) *models.DeputySnapshot {
	if c.archive == nil {
		return nil
	}
	snap, err := c.archive.LatestSnapshot(ctx)
	if err != nil {
		c.log.Debug("no archived snapshot available", zap.Error(err))
		return nil
	}
	if err := c.store.Save(ctx, snap); err != nil {
		c.log.Warn("failed to restore archived snapshot", zap.Error(err))
	}
	c.log.Info("serving archived snapshot", zap.Time("fetched_at", snap.FetchedAt))
	return snap
}

func (c *Cache) setLastErr(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}
