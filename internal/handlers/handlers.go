package handlers

import (
	"context"
	"errors"
	"html"
	"time"

	"github.com/gofiber/fiber/v3"

	"painel/internal/config"
	"painel/internal/filters"
	"painel/internal/middleware"
	"painel/internal/models"
	"painel/internal/table"
)

// ErrNoData is returned when the deputy cache has nothing to show.
var ErrNoData = errors.New("no deputy data available")

// DeputySource serves the cached deputy listing.
type DeputySource interface {
	Get(ctx context.Context, ttl time.Duration, force bool) models.DeputyResult
	Clear(ctx context.Context) error
}

// ReportSource serves the parsed SEO reports.
type ReportSource interface {
	Get(ctx context.Context, force bool) (*models.ReportSet, error)
}

// htmxError returns an error message as HTML that HTMX will display.
// Uses 200 status so HTMX processes the swap (HTMX ignores non-2xx by default).
func htmxError(c fiber.Ctx, message string) error {
	return c.SendString(`<div class="alert alert-danger">` + html.EscapeString(message) + `</div>`)
}

func isHTMX(c fiber.Ctx) bool {
	return c.Get("HX-Request") == "true"
}

// pageData adds the layout fields every full page needs: branding, the
// viewer's theme and TTL, the signed-in operator and any flash message.
func pageData(c fiber.Ctx, cfg *config.Config, yamlCfg *config.YAMLConfig, title, tab string, data fiber.Map) fiber.Map {
	data = layoutData(c, cfg, yamlCfg, middleware.PreferencesFrom(c, cfg), title, tab, data)
	data["Operator"] = middleware.OperatorFrom(c)
	data["Flash"] = middleware.PopFlash(c)
	return data
}

// layoutData fills the layout from prefs alone and never reads the session,
// which is already released when the error handler runs.
func layoutData(c fiber.Ctx, cfg *config.Config, yamlCfg *config.YAMLConfig, prefs middleware.Preferences, title, tab string, data fiber.Map) fiber.Map {
	data["Title"] = title
	data["Tab"] = tab
	data["Prefs"] = prefs
	data["ThemeName"] = prefs.Theme
	data["Theme"] = yamlCfg.Theme(prefs.Theme)
	data["Operator"] = (*models.Operator)(nil)
	data["AuthEnabled"] = cfg.IsAuthEnabled()
	data["Flash"] = ""
	data["TTLMin"] = config.MinCacheTTLMinutes
	data["TTLMax"] = config.MaxCacheTTLMinutes
	data["TTLStep"] = config.CacheTTLStepMinutes
	data["CurrentPath"] = c.Path()
	if _, ok := data["Query"]; !ok {
		data["Query"] = ""
	}
	return BrandingFrom(cfg).Apply(data)
}

// renderNoData shows the "could not load" page with the error detail.
func renderNoData(c fiber.Ctx, cfg *config.Config, yamlCfg *config.YAMLConfig, message string, cause error) error {
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	return c.Status(fiber.StatusServiceUnavailable).Render("error", pageData(c, cfg, yamlCfg, "Erro", "", fiber.Map{
		"Message": message,
		"Detail":  detail,
	}))
}

// ErrorPage renders the error view for the server's error handler, with the
// default preferences.
func ErrorPage(c fiber.Ctx, cfg *config.Config, yamlCfg *config.YAMLConfig, code int, message string) error {
	prefs := middleware.Preferences{TTLMinutes: cfg.CacheTTLMinutes, Theme: config.ThemeLight}
	return c.Status(code).Render("error", layoutData(c, cfg, yamlCfg, prefs, "Erro", "", fiber.Map{
		"Code":    code,
		"Message": message,
	}))
}

// deputyData is the deputy listing shaped by the viewer's filters.
type deputyData struct {
	Result   models.DeputyResult
	All      *table.Deputies
	Filtered *table.Deputies
	Filters  filters.Deputies
}

// loadDeputies reads the cache with the viewer's TTL and applies the query
// filters. It returns ErrNoData when there is nothing to show.
func loadDeputies(c fiber.Ctx, src DeputySource, cfg *config.Config, force bool) (*deputyData, error) {
	prefs := middleware.PreferencesFrom(c, cfg)
	res := src.Get(c.Context(), time.Duration(prefs.TTLMinutes)*time.Minute, force)
	if !res.HasData() {
		if res.Err != nil {
			return &deputyData{Result: res}, errors.Join(ErrNoData, res.Err)
		}
		return &deputyData{Result: res}, ErrNoData
	}

	f := filters.ParseDeputies(c)
	all := table.NewDeputies(res.Deputies)
	return &deputyData{
		Result:   res,
		All:      all,
		Filtered: f.Apply(all),
		Filters:  f,
	}, nil
}

// statusBadge is the data source indicator of the sidebar.
type statusBadge struct {
	Class   string
	Label   string
	Caption string
}

func badgeFor(res models.DeputyResult, timestamp func(time.Time) string) statusBadge {
	switch res.Source {
	case models.SourceAPI:
		return statusBadge{Class: "success", Label: "✓ Dados atualizados", Caption: "Última atualização: " + timestamp(res.FetchedAt)}
	case models.SourceCache:
		return statusBadge{Class: "info", Label: "Cache ativo", Caption: "Carregado em: " + timestamp(res.FetchedAt)}
	case models.SourceCacheStale:
		return statusBadge{Class: "warning", Label: "⚠ Cache desatualizado", Caption: "API temporariamente indisponível"}
	default:
		return statusBadge{Class: "danger", Label: "Sem dados"}
	}
}
