package handlers

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"painel/internal/handlers/api"
)

// Pinger checks a backing store, such as the database.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CacheState reports what the deputy cache holds.
type CacheState interface {
	HasData(ctx context.Context) bool
	LastError() error
}

// ProbeHandler serves the liveness and readiness probes.
type ProbeHandler struct {
	db    Pinger
	cache CacheState
}

// NewProbeHandler creates a probe handler. db is nil without a database.
func NewProbeHandler(db Pinger, cache CacheState) *ProbeHandler {
	return &ProbeHandler{db: db, cache: cache}
}

// Liveness answers /healthz while the process runs.
func (h *ProbeHandler) Liveness(c fiber.Ctx) error {
	return api.Success(c, nil)
}

// Readiness answers /readyz. The app is not ready when the database does not
// answer, or when there is no deputy data and the last fetch failed. Stale
// data is still served, so it counts as ready.
func (h *ProbeHandler) Readiness(c fiber.Ctx) error {
	if h.db != nil {
		if err := h.db.Ping(c.Context()); err != nil {
			return api.Fail(c, fiber.StatusServiceUnavailable, "database unavailable")
		}
	}
	if h.cache.LastError() != nil && !h.cache.HasData(c.Context()) {
		return api.Fail(c, fiber.StatusServiceUnavailable, "deputy data unavailable")
	}
	return api.Success(c, nil)
}
