package handlers

import (
	"bytes"
	"errors"
	"io"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"painel/internal/charts"
	"painel/internal/config"
	"painel/internal/filters"
	"painel/internal/logger"
	"painel/internal/middleware"
	"painel/internal/table"
)

// ChartHandler serves the dashboard charts as PNG images. Charts follow
// the same query filters as the page that embeds them.
type ChartHandler struct {
	deputies DeputySource
	reports  ReportSource
	cfg      *config.Config
	yamlCfg  *config.YAMLConfig
}

// NewChartHandler creates a new chart handler.
func NewChartHandler(deputies DeputySource, reports ReportSource, cfg *config.Config, yamlCfg *config.YAMLConfig) *ChartHandler {
	return &ChartHandler{deputies: deputies, reports: reports, cfg: cfg, yamlCfg: yamlCfg}
}

// Deputies handles /graficos/:nome for partidos, estados and pizza.
func (h *ChartHandler) Deputies(c fiber.Ctx) error {
	var draw func(io.Writer, *table.Deputies, config.ThemeConfig) error
	switch c.Params("nome") {
	case "partidos":
		draw = func(w io.Writer, df *table.Deputies, theme config.ThemeConfig) error {
			return charts.TopParties(w, df.CountBy(table.ColPartido), theme)
		}
	case "estados":
		draw = func(w io.Writer, df *table.Deputies, theme config.ThemeConfig) error {
			return charts.States(w, df.CountBy(table.ColUF), theme)
		}
	case "pizza":
		draw = func(w io.Writer, df *table.Deputies, theme config.ThemeConfig) error {
			return charts.PartyShare(w, df.CountBy(table.ColPartido), theme)
		}
	default:
		return fiber.NewError(fiber.StatusNotFound, "Gráfico não encontrado")
	}

	d, err := loadDeputies(c, h.deputies, h.cfg, false)
	if err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, noDataMessage)
	}

	var buf bytes.Buffer
	if err := draw(&buf, d.Filtered, h.theme(c)); err != nil {
		return h.chartError(c, err)
	}
	return h.sendPNG(c, buf.Bytes())
}

// SEO handles /seo/graficos/:nome for trafego, intencoes and paises.
func (h *ChartHandler) SEO(c fiber.Ctx) error {
	var draw func(io.Writer, *table.SEO, config.ThemeConfig) error
	switch c.Params("nome") {
	case "trafego":
		draw = func(w io.Writer, s *table.SEO, theme config.ThemeConfig) error {
			return charts.SEOTraffic(w, s.Records(), theme)
		}
	case "intencoes":
		draw = func(w io.Writer, s *table.SEO, theme config.ThemeConfig) error {
			return charts.SEOIntents(w, s.Intents(), theme)
		}
	case "paises":
		draw = func(w io.Writer, s *table.SEO, theme config.ThemeConfig) error {
			return charts.SEOCountries(w, s.Countries(), theme)
		}
	default:
		return fiber.NewError(fiber.StatusNotFound, "Gráfico não encontrado")
	}

	set, err := h.reports.Get(c.Context(), false)
	if set == nil {
		logger.Warn("reports unavailable for chart", zap.Error(err))
		return fiber.NewError(fiber.StatusServiceUnavailable, "Relatórios indisponíveis")
	}

	var buf bytes.Buffer
	if err := draw(&buf, filters.ParseSEO(c).Apply(table.NewSEO(set.Records)), h.theme(c)); err != nil {
		return h.chartError(c, err)
	}
	return h.sendPNG(c, buf.Bytes())
}

func (h *ChartHandler) theme(c fiber.Ctx) config.ThemeConfig {
	return h.yamlCfg.Theme(middleware.PreferencesFrom(c, h.cfg).Theme)
}

// chartError answers 204 for empty charts so the page can hide the image.
func (h *ChartHandler) chartError(c fiber.Ctx, err error) error {
	if errors.Is(err, charts.ErrEmptyChart) {
		return c.SendStatus(fiber.StatusNoContent)
	}
	logger.Error("failed to render chart", zap.String("chart", c.Params("nome")), zap.Error(err))
	return fiber.NewError(fiber.StatusInternalServerError, "Falha ao gerar o gráfico")
}

func (h *ChartHandler) sendPNG(c fiber.Ctx, png []byte) error {
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "private, no-cache")
	return c.Send(png)
}
