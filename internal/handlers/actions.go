package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"painel/internal/config"
	"painel/internal/logger"
	"painel/internal/middleware"
	"painel/internal/models"
)

// ReportReloader rereads the SEO reports on demand.
type ReportReloader interface {
	Reload(ctx context.Context) (*models.ReportSet, error)
}

// ActionsHandler runs the sidebar controls: refresh, clear cache and
// reload reports. Routes sit behind RequireOperator.
type ActionsHandler struct {
	deputies DeputySource
	reports  ReportReloader
	cfg      *config.Config
}

// NewActionsHandler creates a new actions handler.
func NewActionsHandler(deputies DeputySource, reports ReportReloader, cfg *config.Config) *ActionsHandler {
	return &ActionsHandler{deputies: deputies, reports: reports, cfg: cfg}
}

// Refresh handles POST /cache/atualizar, forcing a fetch from the API.
func (h *ActionsHandler) Refresh(c fiber.Ctx) error {
	prefs := middleware.PreferencesFrom(c, h.cfg)
	res := h.deputies.Get(c.Context(), time.Duration(prefs.TTLMinutes)*time.Minute, true)

	switch {
	case res.Source == models.SourceAPI:
		middleware.SetFlash(c, "Dados atualizados")
	case res.HasData():
		middleware.SetFlash(c, "API temporariamente indisponível, exibindo dados em cache")
	default:
		middleware.SetFlash(c, noDataMessage)
	}
	return back(c)
}

// Clear handles POST /cache/limpar.
func (h *ActionsHandler) Clear(c fiber.Ctx) error {
	if err := h.deputies.Clear(c.Context()); err != nil {
		logger.Error("failed to clear cache", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "Falha ao limpar o cache")
	}
	if op := middleware.OperatorFrom(c); op != nil {
		logger.Info("cache cleared", zap.String("operator", op.Email))
	}
	middleware.SetFlash(c, "Cache limpo")
	return back(c)
}

// ReloadReports handles POST /seo/recarregar.
func (h *ActionsHandler) ReloadReports(c fiber.Ctx) error {
	set, err := h.reports.Reload(c.Context())
	if err != nil {
		logger.Warn("report reload failed", zap.Error(err))
		middleware.SetFlash(c, "Falha ao recarregar os relatórios")
		return back(c)
	}
	middleware.SetFlash(c, fmt.Sprintf("Relatórios recarregados: %d lido(s), %d ignorado(s)", len(set.Records), len(set.Skipped)))
	return back(c)
}
