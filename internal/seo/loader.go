package seo

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"painel/internal/logger"
	"painel/internal/metrics"
	"painel/internal/models"
)

// DefaultGroup labels reports stored at the root of the source.
const DefaultGroup = "Geral"

const loadConcurrency = 8

// Loader reads every report of a source and extracts its metrics.
type Loader struct {
	source    Source
	extractor *Extractor
	log       *zap.Logger
}

// NewLoader creates a loader over source.
func NewLoader(source Source, extractor *Extractor) *Loader {
	return &Loader{
		source:    source,
		extractor: extractor,
		log:       logger.Named("seo"),
	}
}

// SourceName identifies where reports are read from.
func (l *Loader) SourceName() string {
	return l.source.Name()
}

type loadOutcome struct {
	record  *models.SEOMetrics
	skipped *models.SkippedFile
}

// Load reads all reports. Files that cannot be parsed are left out of the
// records and listed in Skipped with the reason.
func (l *Loader) Load(ctx context.Context) (*models.ReportSet, error) {
	keys, err := l.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	outcomes := make([]loadOutcome, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for i, key := range keys {
		g.Go(func() error {
			outcomes[i] = l.loadOne(gctx, key)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := &models.ReportSet{LoadedAt: time.Now()}
	for _, o := range outcomes {
		if o.record != nil {
			set.Records = append(set.Records, *o.record)
		}
		if o.skipped != nil {
			set.Skipped = append(set.Skipped, *o.skipped)
		}
	}
	sort.SliceStable(set.Records, func(i, j int) bool {
		a, b := set.Records[i], set.Records[j]
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		return a.Brand < b.Brand
	})

	metrics.ObserveReportFiles(len(set.Records), len(set.Skipped))
	l.log.Info("reports loaded",
		zap.String("source", l.source.Name()),
		zap.Int("parsed", len(set.Records)),
		zap.Int("skipped", len(set.Skipped)),
	)
	return set, nil
}

func (l *Loader) loadOne(ctx context.Context, key string) loadOutcome {
	skip := func(reason string, err error) loadOutcome {
		l.log.Warn("report skipped", zap.String("file", key), zap.String("reason", reason), zap.Error(err))
		return loadOutcome{skipped: &models.SkippedFile{Path: key, Reason: reason}}
	}

	data, err := l.source.Read(ctx, key)
	if err != nil {
		return skip("falha na leitura do arquivo", err)
	}

	report, err := DecodeReport(key, data)
	if err != nil {
		return skip("JSON inválido", err)
	}
	if report.Group == "" {
		report.Group = groupFromPath(key)
	}

	record, err := l.extractor.Extract(report)
	switch {
	case errors.Is(err, ErrEmptyContent):
		return skip("campo conteudo ausente ou vazio", err)
	case errors.Is(err, ErrNoMetrics):
		return skip("nenhuma métrica reconhecida no conteúdo", err)
	case err != nil:
		return skip("falha na extração", err)
	}

	if record.Brand == "" {
		record.Brand = strings.TrimSuffix(path.Base(key), path.Ext(key))
	}
	return loadOutcome{record: record}
}

// groupFromPath uses the file's parent directory as its group.
func groupFromPath(key string) string {
	dir := path.Dir(key)
	if dir == "." || dir == "/" {
		return DefaultGroup
	}
	return path.Base(dir)
}
