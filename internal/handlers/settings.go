package handlers

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"

	"painel/internal/config"
	"painel/internal/middleware"
	"painel/internal/validation"
)

// SettingsHandler stores the viewer's cache TTL and theme in the session.
type SettingsHandler struct {
	cfg *config.Config
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(cfg *config.Config) *SettingsHandler {
	return &SettingsHandler{cfg: cfg}
}

// Preferences handles POST /preferencias with the "ttl" form field, in minutes.
func (h *SettingsHandler) Preferences(c fiber.Ctx) error {
	sess := session.FromContext(c)
	if sess == nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Sessão indisponível")
	}

	current := middleware.PreferencesFrom(c, h.cfg)
	sess.Set(middleware.SessionKeyTTL, validation.TTLMinutes(c.FormValue("ttl"), current.TTLMinutes))
	return back(c)
}

// Theme handles POST /tema. Without a "tema" field it toggles light and dark.
func (h *SettingsHandler) Theme(c fiber.Ctx) error {
	sess := session.FromContext(c)
	if sess == nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Sessão indisponível")
	}

	theme := c.FormValue("tema")
	if theme != config.ThemeLight && theme != config.ThemeDark {
		theme = config.ThemeDark
		if middleware.PreferencesFrom(c, h.cfg).Theme == config.ThemeDark {
			theme = config.ThemeLight
		}
	}
	sess.Set(middleware.SessionKeyTheme, theme)
	return back(c)
}

// back returns the viewer to the page the form was posted from. HTMX
// requests get a full refresh instead of a redirect.
func back(c fiber.Ctx) error {
	if isHTMX(c) {
		c.Set("HX-Refresh", "true")
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Redirect().Status(fiber.StatusSeeOther).To(LocalPath(c.Get(fiber.HeaderReferer), "/"))
}

// LocalPath keeps only the path and query of u, so redirects never leave
// the site. It returns fallback for anything that is not a plain local path.
func LocalPath(u, fallback string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Path == "" || !strings.HasPrefix(parsed.Path, "/") || strings.HasPrefix(parsed.Path, "//") {
		return fallback
	}
	if parsed.RawQuery != "" {
		return parsed.Path + "?" + parsed.RawQuery
	}
	return parsed.Path
}
