package api

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"painel/internal/config"
	"painel/internal/filters"
	"painel/internal/models"
	"painel/internal/table"
)

// DeputySource serves the cached deputy listing.
type DeputySource interface {
	Get(ctx context.Context, ttl time.Duration, force bool) models.DeputyResult
}

// DeputyHandler exposes the deputy listing and its aggregates as JSON.
// Every endpoint accepts the same filter parameters as the dashboard.
type DeputyHandler struct {
	deputies DeputySource
	cfg      *config.Config
}

// NewDeputyHandler creates a new API deputy handler.
func NewDeputyHandler(deputies DeputySource, cfg *config.Config) *DeputyHandler {
	return &DeputyHandler{deputies: deputies, cfg: cfg}
}

type deputyPage struct {
	Items  []models.Deputy `json:"items"`
	Page   int             `json:"page"`
	Pages  int             `json:"pages"`
	Size   int             `json:"size"`
	Total  int             `json:"total"`
	Source string          `json:"source"`
}

func (h *DeputyHandler) load(c fiber.Ctx) (*table.Deputies, filters.Deputies, models.DeputyResult, bool) {
	res := h.deputies.Get(c.Context(), h.cfg.CacheTTL(), false)
	f := filters.ParseDeputies(c)
	if !res.HasData() {
		return nil, f, res, false
	}
	return f.Apply(table.NewDeputies(res.Deputies)), f, res, true
}

// List returns one page of the filtered listing, narrowed by busca.
func (h *DeputyHandler) List(c fiber.Ctx) error {
	df, f, res, ok := h.load(c)
	if !ok {
		return Fail(c, fiber.StatusServiceUnavailable, "deputy data unavailable")
	}

	page, info := df.Search(f.Search).Page(f.Page, f.PageSize)
	return Success(c, deputyPage{
		Items:  page.Records(),
		Page:   info.Page,
		Pages:  info.Pages,
		Size:   info.Size,
		Total:  info.Total,
		Source: res.Source,
	})
}

// Get returns one deputy by ID.
func (h *DeputyHandler) Get(c fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return Fail(c, fiber.StatusBadRequest, "invalid deputy id")
	}

	res := h.deputies.Get(c.Context(), h.cfg.CacheTTL(), false)
	if !res.HasData() {
		return Fail(c, fiber.StatusServiceUnavailable, "deputy data unavailable")
	}

	dep, ok := table.NewDeputies(res.Deputies).Find(id)
	if !ok {
		return Fail(c, fiber.StatusNotFound, "deputy not found")
	}
	return Success(c, dep)
}

// Parties returns the party ranking of the filtered listing.
func (h *DeputyHandler) Parties(c fiber.Ctx) error {
	return h.ranking(c, table.ColPartido)
}

// States returns the state ranking of the filtered listing.
func (h *DeputyHandler) States(c fiber.Ctx) error {
	return h.ranking(c, table.ColUF)
}

func (h *DeputyHandler) ranking(c fiber.Ctx, column string) error {
	df, _, _, ok := h.load(c)
	if !ok {
		return Fail(c, fiber.StatusServiceUnavailable, "deputy data unavailable")
	}
	return Success(c, df.CountBy(column))
}

// KPIs returns the headline numbers of the filtered listing.
func (h *DeputyHandler) KPIs(c fiber.Ctx) error {
	df, _, _, ok := h.load(c)
	if !ok {
		return Fail(c, fiber.StatusServiceUnavailable, "deputy data unavailable")
	}
	return Success(c, df.KPIs())
}
