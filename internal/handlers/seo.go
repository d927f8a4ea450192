package handlers

import (
	"github.com/gofiber/fiber/v3"

	"painel/internal/config"
	"painel/internal/filters"
	"painel/internal/format"
	"painel/internal/table"
)

const topKeywordsShown = 20

// SEOHandler renders the SEO reports tab.
type SEOHandler struct {
	reports ReportSource
	cfg     *config.Config
	yamlCfg *config.YAMLConfig
}

// NewSEOHandler creates a new SEO handler.
func NewSEOHandler(reports ReportSource, cfg *config.Config, yamlCfg *config.YAMLConfig) *SEOHandler {
	return &SEOHandler{reports: reports, cfg: cfg, yamlCfg: yamlCfg}
}

// Index handles /seo.
func (h *SEOHandler) Index(c fiber.Ctx) error {
	set, err := h.reports.Get(c.Context(), false)
	if set == nil {
		return renderNoData(c, h.cfg, h.yamlCfg, "Não foi possível carregar os relatórios de SEO.", err)
	}

	f := filters.ParseSEO(c)
	all := table.NewSEO(set.Records)
	filtered := f.Apply(all)

	data := fiber.Map{
		"Filters":       f,
		"Query":         f.Query(),
		"AllGroups":     all.Groups(),
		"AllBrands":     all.Brands(),
		"SortOptions":   filters.SEOSortOptions,
		"ActiveFilters": f.Active(),
		"KPIs":          filtered.KPIs(),
		"Records":       filtered.Records(),
		"Intents":       filtered.Intents(),
		"Countries":     filtered.Countries(),
		"Keywords":      filtered.TopKeywords(topKeywordsShown),
		"Skipped":       set.Skipped,
		"LoadedAt":      format.Timestamp(set.LoadedAt),
		"Shown":         filtered.Len(),
		"Total":         all.Len(),
		"HasRows":       filtered.Len() > 0,
	}
	if err != nil {
		data["Warning"] = "Falha ao recarregar os relatórios, exibindo a última leitura: " + err.Error()
	}

	return c.Render("seo", pageData(c, h.cfg, h.yamlCfg, "SEO", "seo", data))
}
