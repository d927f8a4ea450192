package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"painel/internal/logger"
	"painel/internal/models"
)

var (
	exportDownloadDesc = prometheus.NewDesc(
		"painel_export_downloads_total",
		"Total export downloads by export name and format",
		[]string{"export", "format"},
		nil,
	)

	// exportDownloads counts in process when no database is configured.
	exportDownloads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "painel_export_downloads_total",
		Help: "Total export downloads by export name and format",
	}, []string{"export", "format"})

	fetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "painel_deputies_fetch_duration_seconds",
		Help:    "Duration of deputy listing fetches by outcome",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"outcome"})

	cacheResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "painel_deputies_cache_results_total",
		Help: "Deputy cache lookups by data source served",
	}, []string{"source"})

	reportFiles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "painel_seo_report_files_total",
		Help: "SEO report files processed by outcome",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(fetchDuration, cacheResults, reportFiles)
}

// ExportStore persists export download counts.
type ExportStore interface {
	IncrementExportCount(ctx context.Context, export, format string) error
	GetAllExportCounts(ctx context.Context) ([]models.ExportCount, error)
}

// ExportCollector is a custom Prometheus collector that reads export
// download counts from the database on each scrape.
type ExportCollector struct {
	store ExportStore
}

// Describe sends the metric descriptor to the channel.
func (c *ExportCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- exportDownloadDesc
}

// Collect queries the database for all export counts and emits them as counters.
func (c *ExportCollector) Collect(ch chan<- prometheus.Metric) {
	counts, err := c.store.GetAllExportCounts(context.Background())
	if err != nil {
		logger.Error("failed to collect export metrics", zap.Error(err))
		return
	}
	for _, ec := range counts {
		ch <- prometheus.MustNewConstMetric(
			exportDownloadDesc,
			prometheus.CounterValue,
			float64(ec.Count),
			ec.Export,
			ec.Format,
		)
	}
}

// Recorder provides async export download recording.
type Recorder struct {
	store ExportStore
}

var (
	recorder     *Recorder
	recorderOnce sync.Once
)

// Init registers the export metrics. With a nil store the counts live in
// process memory. Must be called once at startup.
func Init(store ExportStore) {
	recorderOnce.Do(func() {
		if store == nil {
			prometheus.MustRegister(exportDownloads)
			return
		}
		recorder = &Recorder{store: store}
		prometheus.MustRegister(&ExportCollector{store: store})
	})
}

// RecordExport asynchronously records one export download.
func RecordExport(export, format string) {
	if recorder == nil {
		exportDownloads.WithLabelValues(export, format).Inc()
		return
	}
	go func() {
		if err := recorder.store.IncrementExportCount(context.Background(), export, format); err != nil {
			logger.Error("failed to record export download",
				zap.String("export", export),
				zap.String("format", format),
				zap.Error(err),
			)
		}
	}()
}

// ObserveFetch records the duration and outcome of one upstream fetch.
func ObserveFetch(err error, elapsed time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	fetchDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveCacheResult counts one deputy lookup by the source that served it.
func ObserveCacheResult(source string) {
	cacheResults.WithLabelValues(source).Inc()
}

// ObserveReportFiles counts processed report files.
func ObserveReportFiles(parsed, skipped int) {
	reportFiles.WithLabelValues("parsed").Add(float64(parsed))
	reportFiles.WithLabelValues("skipped").Add(float64(skipped))
}
