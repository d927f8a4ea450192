package handlers

import (
	"bytes"
	"errors"

	"github.com/go-gota/gota/dataframe"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"painel/internal/config"
	"painel/internal/export"
	"painel/internal/filters"
	"painel/internal/logger"
	"painel/internal/metrics"
	"painel/internal/table"
)

// Export names, used as file base name and metric label.
const (
	ExportFiltered     = "deputados_filtrados"
	ExportComplete     = "deputados_completo"
	ExportPartyRanking = "ranking_partidos"
	ExportStateRanking = "ranking_estados"
	ExportSearch       = "busca_deputados"
	ExportSEOMetrics   = "seo_metricas"
	ExportSEOIntents   = "seo_intencoes"
	ExportSEOCountries = "seo_paises"
	ExportSEOKeywords  = "seo_palavras_chave"
)

type deputyExport func(d *deputyData) dataframe.DataFrame

type seoExport func(s *table.SEO) dataframe.DataFrame

var deputyExports = map[string]deputyExport{
	ExportFiltered: func(d *deputyData) dataframe.DataFrame { return d.Filtered.Frame() },
	ExportComplete: func(d *deputyData) dataframe.DataFrame { return d.Filtered.Frame() },
	ExportPartyRanking: func(d *deputyData) dataframe.DataFrame {
		return table.RankingFrame(d.Filtered.CountBy(table.ColPartido), "Partido", false)
	},
	ExportStateRanking: func(d *deputyData) dataframe.DataFrame {
		return table.RankingFrame(d.Filtered.CountBy(table.ColUF), "Estado", false)
	},
	ExportSearch: func(d *deputyData) dataframe.DataFrame {
		return d.Filtered.Search(d.Filters.Search).Frame()
	},
}

var seoExports = map[string]seoExport{
	ExportSEOMetrics:   func(s *table.SEO) dataframe.DataFrame { return s.MetricsFrame() },
	ExportSEOIntents:   func(s *table.SEO) dataframe.DataFrame { return s.IntentsFrame() },
	ExportSEOCountries: func(s *table.SEO) dataframe.DataFrame { return s.CountriesFrame() },
	ExportSEOKeywords:  func(s *table.SEO) dataframe.DataFrame { return s.KeywordsFrame(0) },
}

// ExportHandler serves CSV and XLSX downloads of the dashboard tables.
type ExportHandler struct {
	deputies DeputySource
	reports  ReportSource
	cfg      *config.Config
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deputies DeputySource, reports ReportSource, cfg *config.Config) *ExportHandler {
	return &ExportHandler{deputies: deputies, reports: reports, cfg: cfg}
}

// Download handles /exportar/:nome?formato=csv|xlsx.
func (h *ExportHandler) Download(c fiber.Ctx) error {
	name := c.Params("nome")
	format, err := export.ParseFormat(c.Query(filters.ParamFormat))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Formato inválido, use csv ou xlsx")
	}

	var df dataframe.DataFrame
	if build, ok := deputyExports[name]; ok {
		d, err := loadDeputies(c, h.deputies, h.cfg, false)
		if err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, noDataMessage)
		}
		df = build(d)
	} else if build, ok := seoExports[name]; ok {
		set, err := h.reports.Get(c.Context(), false)
		if set == nil {
			logger.Warn("reports unavailable for export", zap.Error(err))
			return fiber.NewError(fiber.StatusServiceUnavailable, "Relatórios indisponíveis")
		}
		df = build(filters.ParseSEO(c).Apply(table.NewSEO(set.Records)))
	} else {
		return fiber.NewError(fiber.StatusNotFound, "Exportação não encontrada")
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, df, format, name); err != nil {
		if errors.Is(err, export.ErrUnknownFormat) {
			return fiber.NewError(fiber.StatusBadRequest, "Formato inválido, use csv ou xlsx")
		}
		logger.Error("failed to write export", zap.String("export", name), zap.String("format", format), zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "Falha ao gerar o arquivo")
	}

	metrics.RecordExport(name, format)

	c.Set(fiber.HeaderContentType, export.ContentType(format))
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+export.Filename(name, format)+`"`)
	return c.Send(buf.Bytes())
}
