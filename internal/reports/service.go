// Package reports keeps the parsed SEO report set between reloads.
package reports

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"painel/internal/logger"
	"painel/internal/models"
)

// Loader reads the whole report source.
type Loader interface {
	Load(ctx context.Context) (*models.ReportSet, error)
	SourceName() string
}

// ImportRecorder persists a summary of each load.
type ImportRecorder interface {
	RecordReportImport(ctx context.Context, imp *models.ReportImport) error
}

// Service serves the last loaded report set and reloads it after ttl.
type Service struct {
	loader   Loader
	ttl      time.Duration
	recorder ImportRecorder
	group    singleflight.Group
	now      func() time.Time
	log      *zap.Logger

	mu      sync.RWMutex
	set     *models.ReportSet
	lastErr error
}

// NewService creates a service. recorder may be nil.
func NewService(loader Loader, ttl time.Duration, recorder ImportRecorder) *Service {
	return &Service{
		loader:   loader,
		ttl:      ttl,
		recorder: recorder,
		now:      time.Now,
		log:      logger.Named("reports"),
	}
}

// Get returns the report set, loading it when force is set, when nothing is
// loaded yet or when the last load is older than the TTL. A failed reload
// keeps the previous set and returns the error alongside it.
func (s *Service) Get(ctx context.Context, force bool) (*models.ReportSet, error) {
	s.mu.RLock()
	current := s.set
	s.mu.RUnlock()

	if !force && current != nil && s.now().Sub(current.LoadedAt) <= s.ttl {
		return current, nil
	}

	v, err, _ := s.group.Do("reports", func() (any, error) {
		return s.load(ctx)
	})
	if err != nil {
		return current, err
	}
	return v.(*models.ReportSet), nil
}

// Reload forces a new pass over the source.
func (s *Service) Reload(ctx context.Context) (*models.ReportSet, error) {
	return s.Get(ctx, true)
}

// LastError returns the error of the most recent failed load, if any.
func (s *Service) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Service) load(ctx context.Context) (*models.ReportSet, error) {
	start := time.Now()
	set, err := s.loader.Load(ctx)

	s.mu.Lock()
	s.lastErr = err
	if err == nil {
		set.LoadedAt = s.now()
		s.set = set
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Error("failed to load reports", zap.Error(err))
		return nil, err
	}

	if s.recorder != nil {
		imp := &models.ReportImport{
			ID:         uuid.New(),
			Source:     s.loader.SourceName(),
			Parsed:     len(set.Records),
			Skipped:    len(set.Skipped),
			DurationMS: time.Since(start).Milliseconds(),
		}
		if err := s.recorder.RecordReportImport(ctx, imp); err != nil {
			s.log.Warn("failed to record report import", zap.Error(err))
		}
	}
	return set, nil
}
