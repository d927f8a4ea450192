package handlers

import (
	"github.com/gofiber/fiber/v3"

	"painel/internal/config"
	"painel/internal/validation"
)

// Branding holds the site identity shown in the layout.
type Branding struct {
	Title   string
	Tagline string
	Footer  string
	LogoURL string // empty renders the title as text
	BaseURL string
}

// BrandingFrom reads the branding settings. A logo URL that is not plain
// http(s) is dropped.
func BrandingFrom(cfg *config.Config) Branding {
	return Branding{
		Title:   cfg.SiteTitle,
		Tagline: cfg.SiteTagline,
		Footer:  cfg.SiteFooter,
		LogoURL: validation.SafeURL(cfg.SiteLogoURL),
		BaseURL: cfg.BaseURL,
	}
}

// Apply copies the branding into template data under the Site* keys.
func (b Branding) Apply(data fiber.Map) fiber.Map {
	data["SiteTitle"] = b.Title
	data["SiteTagline"] = b.Tagline
	data["SiteFooter"] = b.Footer
	data["SiteLogoURL"] = b.LogoURL
	data["SiteBaseURL"] = b.BaseURL
	return data
}
