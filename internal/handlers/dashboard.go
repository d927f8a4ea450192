package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"painel/internal/config"
	"painel/internal/filters"
	"painel/internal/format"
	"painel/internal/table"
	"painel/internal/validation"
)

const noDataMessage = "Não foi possível carregar os dados."

// DashboardHandler renders the deputy tabs.
type DashboardHandler struct {
	deputies DeputySource
	cfg      *config.Config
	yamlCfg  *config.YAMLConfig
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(deputies DeputySource, cfg *config.Config, yamlCfg *config.YAMLConfig) *DashboardHandler {
	return &DashboardHandler{deputies: deputies, cfg: cfg, yamlCfg: yamlCfg}
}

// render loads the deputies and renders a tab with the sidebar fields filled in.
func (h *DashboardHandler) render(c fiber.Ctx, view, title string, build func(d *deputyData, data fiber.Map)) error {
	d, err := loadDeputies(c, h.deputies, h.cfg, false)
	if err != nil {
		if errors.Is(err, ErrNoData) {
			return renderNoData(c, h.cfg, h.yamlCfg, noDataMessage, d.Result.Err)
		}
		return err
	}

	data := fiber.Map{
		"Filters":       d.Filters,
		"Query":         d.Filters.Query(),
		"AllParties":    d.All.Unique(table.ColPartido),
		"AllStates":     d.All.Unique(table.ColUF),
		"SortOptions":   filters.DeputySortOptions,
		"PageSizes":     validation.PageSizes,
		"ActiveFilters": d.Filters.Active(),
		"Status":        badgeFor(d.Result, format.Timestamp),
		"Shown":         d.Filtered.Len(),
		"Total":         d.All.Len(),
		"Filtered":      d.Filters.Active() > 0,
	}
	build(d, data)

	return c.Render(view, pageData(c, h.cfg, h.yamlCfg, title, view, data))
}

// Overview handles the "Visão Geral" tab.
func (h *DashboardHandler) Overview(c fiber.Ctx) error {
	return h.render(c, "index", "Visão Geral", func(d *deputyData, data fiber.Map) {
		data["KPIs"] = d.Filtered.KPIs()
		data["HasRows"] = d.Filtered.Len() > 0
	})
}

// Parties handles the party ranking tab.
func (h *DashboardHandler) Parties(c fiber.Ctx) error {
	return h.render(c, "partidos", "Partidos", func(d *deputyData, data fiber.Map) {
		data["Ranking"] = d.Filtered.CountBy(table.ColPartido)
	})
}

// States handles the state ranking tab.
func (h *DashboardHandler) States(c fiber.Ctx) error {
	return h.render(c, "estados", "Estados", func(d *deputyData, data fiber.Map) {
		data["Ranking"] = d.Filtered.CountBy(table.ColUF)
	})
}

// Deputies handles the search tab: paginated results plus a detail card.
func (h *DashboardHandler) Deputies(c fiber.Ctx) error {
	return h.render(c, "deputados", "Deputados", func(d *deputyData, data fiber.Map) {
		results := d.Filtered.Search(d.Filters.Search)
		page, info := results.Page(d.Filters.Page, d.Filters.PageSize)

		data["Search"] = d.Filters.Search
		data["Results"] = results.Len()
		data["Rows"] = page.Records()
		data["PageInfo"] = info
		data["PrevQuery"] = d.Filters.PageQuery(info.Page - 1)
		data["NextQuery"] = d.Filters.PageQuery(info.Page + 1)
		data["Options"] = results.Records()
		data["SelectedID"] = d.Filters.Selected

		if d.Filters.Selected != 0 {
			if dep, ok := results.Find(d.Filters.Selected); ok {
				data["Selected"] = dep
				data["SelectedPhoto"] = validation.SafeURL(dep.URLFoto)
				data["SelectedURI"] = validation.SafeURL(dep.URI)
			}
		}
	})
}

// DeputyDetail renders the detail card partial for HTMX swaps.
func (h *DashboardHandler) DeputyDetail(c fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Identificador inválido")
	}

	d, err := loadDeputies(c, h.deputies, h.cfg, false)
	if err != nil {
		if isHTMX(c) {
			return htmxError(c, noDataMessage)
		}
		return fiber.NewError(fiber.StatusServiceUnavailable, noDataMessage)
	}

	dep, ok := d.All.Find(id)
	if !ok {
		if isHTMX(c) {
			return htmxError(c, "Deputado não encontrado")
		}
		return fiber.NewError(fiber.StatusNotFound, "Deputado não encontrado")
	}

	return c.Render("partials/deputado", fiber.Map{
		"Selected":      dep,
		"SelectedPhoto": validation.SafeURL(dep.URLFoto),
		"SelectedURI":   validation.SafeURL(dep.URI),
	}, "")
}

// About renders the "Sobre" tab. It does not need deputy data.
func (h *DashboardHandler) About(c fiber.Ctx) error {
	return c.Render("sobre", pageData(c, h.cfg, h.yamlCfg, "Sobre", "sobre", fiber.Map{
		"DefaultTTL": h.cfg.CacheTTLMinutes,
	}))
}
