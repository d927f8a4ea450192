package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"painel/internal/config"
	"painel/internal/models"
)

const historyLimit = 20

// History lists archived snapshots and report loads.
type History interface {
	ListSnapshots(ctx context.Context, limit int) ([]models.SnapshotSummary, error)
	ListReportImports(ctx context.Context, limit int) ([]models.ReportImport, error)
}

// StatusHandler reports where the data currently comes from.
type StatusHandler struct {
	deputies DeputySource
	reports  ReportSource
	history  History
	cfg      *config.Config
}

// NewStatusHandler creates a new status handler. history may be nil when
// no database is configured.
func NewStatusHandler(deputies DeputySource, reports ReportSource, history History, cfg *config.Config) *StatusHandler {
	return &StatusHandler{deputies: deputies, reports: reports, history: history, cfg: cfg}
}

type deputyStatus struct {
	Source    string     `json:"source"`
	FetchedAt *time.Time `json:"fetched_at"`
	Rows      int        `json:"rows"`
	Error     string     `json:"error,omitempty"`
}

type reportStatus struct {
	LoadedAt *time.Time           `json:"loaded_at"`
	Records  int                  `json:"records"`
	Skipped  []models.SkippedFile `json:"skipped"`
	Error    string               `json:"error,omitempty"`
}

// Status returns the state of the deputy cache and of the SEO reports.
func (h *StatusHandler) Status(c fiber.Ctx) error {
	res := h.deputies.Get(c.Context(), h.cfg.CacheTTL(), false)
	deputies := deputyStatus{Source: res.Source, Rows: len(res.Deputies)}
	if !res.FetchedAt.IsZero() {
		deputies.FetchedAt = &res.FetchedAt
	}
	if res.Err != nil {
		deputies.Error = res.Err.Error()
	}

	reports := reportStatus{Skipped: []models.SkippedFile{}}
	set, err := h.reports.Get(c.Context(), false)
	if set != nil {
		reports.LoadedAt = &set.LoadedAt
		reports.Records = len(set.Records)
		if set.Skipped != nil {
			reports.Skipped = set.Skipped
		}
	}
	if err != nil {
		reports.Error = err.Error()
	}

	return Success(c, fiber.Map{
		"deputies":    deputies,
		"reports":     reports,
		"ttl_minutes": h.cfg.CacheTTLMinutes,
	})
}

// Snapshots lists the archived fetches, newest first.
func (h *StatusHandler) Snapshots(c fiber.Ctx) error {
	if h.history == nil {
		return Fail(c, fiber.StatusNotFound, "archive not configured")
	}
	snaps, err := h.history.ListSnapshots(c.Context(), historyLimit)
	if err != nil {
		return Fail(c, fiber.StatusInternalServerError, "failed to list snapshots")
	}
	return Success(c, snaps)
}

// Imports lists the recorded report loads, newest first.
func (h *StatusHandler) Imports(c fiber.Ctx) error {
	if h.history == nil {
		return Fail(c, fiber.StatusNotFound, "archive not configured")
	}
	imports, err := h.history.ListReportImports(c.Context(), historyLimit)
	if err != nil {
		return Fail(c, fiber.StatusInternalServerError, "failed to list report imports")
	}
	return Success(c, imports)
}
