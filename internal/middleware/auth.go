package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"

	"painel/internal/config"
)

// AuthMiddleware guards operator actions when OIDC login is configured.
type AuthMiddleware struct {
	cfg     *config.Config
	yamlCfg *config.YAMLConfig
}

// NewAuthMiddleware creates a new auth middleware instance.
func NewAuthMiddleware(cfg *config.Config, yamlCfg *config.YAMLConfig) *AuthMiddleware {
	return &AuthMiddleware{cfg: cfg, yamlCfg: yamlCfg}
}

// OptionalAuth loads the operator if signed in, but doesn't require it.
func (m *AuthMiddleware) OptionalAuth(c fiber.Ctx) error {
	if op := OperatorFrom(c); op != nil {
		c.Locals("operator", op)
	}
	return c.Next()
}

// RequireOperator lets the request through when login is disabled. Otherwise
// it redirects anonymous viewers to /auth/login and rejects signed-in users
// missing from the operators allowlist.
func (m *AuthMiddleware) RequireOperator(c fiber.Ctx) error {
	if !m.cfg.IsAuthEnabled() {
		return c.Next()
	}

	op := OperatorFrom(c)
	if op == nil {
		if sess := session.FromContext(c); sess != nil {
			sess.Set(SessionKeyRedirect, c.Get(fiber.HeaderReferer, "/"))
		}
		if c.Get("HX-Request") == "true" {
			c.Set("HX-Redirect", "/auth/login")
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.Redirect().To("/auth/login")
	}

	if !m.yamlCfg.IsOperator(op.Email) {
		return fiber.NewError(fiber.StatusForbidden, "Ação restrita a operadores.")
	}

	c.Locals("operator", op)
	return c.Next()
}
