package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"

	"painel/internal/config"
	"painel/internal/models"
)

// Session keys.
const (
	SessionKeyTTL           = "ttl_minutes"
	SessionKeyTheme         = "theme"
	SessionKeyOperatorSub   = "operator_sub"
	SessionKeyOperatorEmail = "operator_email"
	SessionKeyOperatorName  = "operator_name"
	SessionKeyRedirect      = "redirect_after_login"
	SessionKeyFlash         = "flash"
)

// Preferences are the per-viewer settings kept in the session.
type Preferences struct {
	TTLMinutes int
	Theme      string
}

// PreferencesFrom reads the viewer's settings, falling back to the configured
// defaults when there is no session or nothing was chosen yet.
func PreferencesFrom(c fiber.Ctx, cfg *config.Config) Preferences {
	prefs := Preferences{TTLMinutes: cfg.CacheTTLMinutes, Theme: config.ThemeLight}

	sess := session.FromContext(c)
	if sess == nil {
		return prefs
	}
	if v, ok := sess.Get(SessionKeyTTL).(int); ok {
		prefs.TTLMinutes = config.ClampTTLMinutes(v)
	}
	if v, ok := sess.Get(SessionKeyTheme).(string); ok && (v == config.ThemeLight || v == config.ThemeDark) {
		prefs.Theme = v
	}
	return prefs
}

// OperatorFrom returns the signed-in operator stored in the session, or nil.
func OperatorFrom(c fiber.Ctx) *models.Operator {
	if op, ok := c.Locals("operator").(*models.Operator); ok {
		return op
	}
	sess := session.FromContext(c)
	if sess == nil {
		return nil
	}
	sub, ok := sess.Get(SessionKeyOperatorSub).(string)
	if !ok || sub == "" {
		return nil
	}
	email, _ := sess.Get(SessionKeyOperatorEmail).(string)
	name, _ := sess.Get(SessionKeyOperatorName).(string)
	return &models.Operator{Sub: sub, Email: email, Name: name}
}

// SetOperator stores the signed-in operator in the session.
func SetOperator(c fiber.Ctx, op *models.Operator) {
	sess := session.FromContext(c)
	if sess == nil || op == nil {
		return
	}
	sess.Set(SessionKeyOperatorSub, op.Sub)
	sess.Set(SessionKeyOperatorEmail, op.Email)
	sess.Set(SessionKeyOperatorName, op.Name)
}

// ClearOperator signs the operator out, keeping viewer preferences.
func ClearOperator(c fiber.Ctx) {
	sess := session.FromContext(c)
	if sess == nil {
		return
	}
	sess.Delete(SessionKeyOperatorSub)
	sess.Delete(SessionKeyOperatorEmail)
	sess.Delete(SessionKeyOperatorName)
}

// SetFlash stores a one-shot message shown on the next page render.
func SetFlash(c fiber.Ctx, message string) {
	if sess := session.FromContext(c); sess != nil {
		sess.Set(SessionKeyFlash, message)
	}
}

// PopFlash returns and clears the pending flash message.
func PopFlash(c fiber.Ctx) string {
	sess := session.FromContext(c)
	if sess == nil {
		return ""
	}
	msg, _ := sess.Get(SessionKeyFlash).(string)
	if msg != "" {
		sess.Delete(SessionKeyFlash)
	}
	return msg
}
