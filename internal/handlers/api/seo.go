package api

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"painel/internal/filters"
	"painel/internal/models"
	"painel/internal/table"
)

const defaultKeywordLimit = 20

// ReportSource serves the parsed SEO reports.
type ReportSource interface {
	Get(ctx context.Context, force bool) (*models.ReportSet, error)
}

// SEOHandler exposes the SEO report aggregates as JSON. Every endpoint
// accepts the grupo, marca and ordem filters.
type SEOHandler struct {
	reports ReportSource
}

// NewSEOHandler creates a new API SEO handler.
func NewSEOHandler(reports ReportSource) *SEOHandler {
	return &SEOHandler{reports: reports}
}

func (h *SEOHandler) load(c fiber.Ctx) (*table.SEO, bool) {
	set, _ := h.reports.Get(c.Context(), false)
	if set == nil {
		return nil, false
	}
	return filters.ParseSEO(c).Apply(table.NewSEO(set.Records)), true
}

// Records returns the filtered reports with their KPIs.
func (h *SEOHandler) Records(c fiber.Ctx) error {
	s, ok := h.load(c)
	if !ok {
		return Fail(c, fiber.StatusServiceUnavailable, "reports unavailable")
	}
	return Success(c, fiber.Map{
		"kpis":    s.KPIs(),
		"records": s.Records(),
	})
}

// Intents returns the summed keyword intents.
func (h *SEOHandler) Intents(c fiber.Ctx) error {
	s, ok := h.load(c)
	if !ok {
		return Fail(c, fiber.StatusServiceUnavailable, "reports unavailable")
	}
	return Success(c, s.Intents())
}

// Countries returns the averaged country shares.
func (h *SEOHandler) Countries(c fiber.Ctx) error {
	s, ok := h.load(c)
	if !ok {
		return Fail(c, fiber.StatusServiceUnavailable, "reports unavailable")
	}
	return Success(c, s.Countries())
}

// Keywords returns the merged top keywords. limite caps the list, 0 for all.
func (h *SEOHandler) Keywords(c fiber.Ctx) error {
	limit := defaultKeywordLimit
	if v := c.Query("limite"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Fail(c, fiber.StatusBadRequest, "invalid limit")
		}
		limit = n
	}

	s, ok := h.load(c)
	if !ok {
		return Fail(c, fiber.StatusServiceUnavailable, "reports unavailable")
	}
	return Success(c, s.TopKeywords(limit))
}
