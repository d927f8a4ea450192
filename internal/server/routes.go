package server

import (
	"context"

	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"painel/internal/db"
	"painel/internal/handlers"
	"painel/internal/handlers/api"
	"painel/internal/logger"
	"painel/internal/middleware"
)

// DeputyCache is what the routes need from the deputy cache.
type DeputyCache interface {
	handlers.DeputySource
	handlers.CacheState
}

// ReportService is what the routes need from the SEO reports service.
type ReportService interface {
	handlers.ReportSource
	handlers.ReportReloader
}

// Deps are the data sources behind the routes.
type Deps struct {
	Deputies DeputyCache
	Reports  ReportService
	DB       *db.DB // nil when no database is configured
}

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(ctx context.Context, deps Deps) error {
	// Optional database-backed pieces
	var pinger handlers.Pinger
	var history api.History
	if deps.DB != nil {
		pinger = deps.DB
		history = deps.DB
	}

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(s.Cfg, s.YAML)

	// Initialize handlers
	probeHandler := handlers.NewProbeHandler(pinger, deps.Deputies)
	dashboardHandler := handlers.NewDashboardHandler(deps.Deputies, s.Cfg, s.YAML)
	chartHandler := handlers.NewChartHandler(deps.Deputies, deps.Reports, s.Cfg, s.YAML)
	exportHandler := handlers.NewExportHandler(deps.Deputies, deps.Reports, s.Cfg)
	seoHandler := handlers.NewSEOHandler(deps.Reports, s.Cfg, s.YAML)
	settingsHandler := handlers.NewSettingsHandler(s.Cfg)
	actionsHandler := handlers.NewActionsHandler(deps.Deputies, deps.Reports, s.Cfg)

	// Probes and metrics
	s.App.Get("/healthz", probeHandler.Liveness)
	s.App.Get("/readyz", probeHandler.Readiness)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Auth routes, only when operator login is configured
	if s.Cfg.IsAuthEnabled() {
		authHandler, err := handlers.NewAuthHandler(ctx, s.Cfg)
		if err != nil {
			return err
		}
		s.App.Get("/auth/login", authHandler.Login)
		s.App.Get("/auth/callback", authHandler.Callback)
		s.App.Get("/auth/logout", authHandler.Logout)
	} else {
		logger.Info("OIDC not configured, operator actions are open to every viewer")
	}

	// Dashboard tabs
	s.App.Get("/", authMiddleware.OptionalAuth, dashboardHandler.Overview)
	s.App.Get("/partidos", authMiddleware.OptionalAuth, dashboardHandler.Parties)
	s.App.Get("/estados", authMiddleware.OptionalAuth, dashboardHandler.States)
	s.App.Get("/deputados", authMiddleware.OptionalAuth, dashboardHandler.Deputies)
	s.App.Get("/deputados/:id", authMiddleware.OptionalAuth, dashboardHandler.DeputyDetail)
	s.App.Get("/sobre", authMiddleware.OptionalAuth, dashboardHandler.About)
	s.App.Get("/seo", authMiddleware.OptionalAuth, seoHandler.Index)

	// Charts and exports
	s.App.Get("/graficos/:nome", chartHandler.Deputies)
	s.App.Get("/seo/graficos/:nome", chartHandler.SEO)
	s.App.Get("/exportar/:nome", exportHandler.Download)

	// Viewer settings
	s.App.Post("/preferencias", settingsHandler.Preferences)
	s.App.Post("/tema", settingsHandler.Theme)

	// Operator actions
	s.App.Post("/cache/atualizar", authMiddleware.RequireOperator, actionsHandler.Refresh)
	s.App.Post("/cache/limpar", authMiddleware.RequireOperator, actionsHandler.Clear)
	s.App.Post("/seo/recarregar", authMiddleware.RequireOperator, actionsHandler.ReloadReports)

	// JSON API
	deputyAPI := api.NewDeputyHandler(deps.Deputies, s.Cfg)
	seoAPI := api.NewSEOHandler(deps.Reports)
	statusAPI := api.NewStatusHandler(deps.Deputies, deps.Reports, history, s.Cfg)

	v1 := s.App.Group("/api/v1")
	v1.Get("/deputados", deputyAPI.List)
	v1.Get("/deputados/:id", deputyAPI.Get)
	v1.Get("/partidos", deputyAPI.Parties)
	v1.Get("/estados", deputyAPI.States)
	v1.Get("/kpis", deputyAPI.KPIs)
	v1.Get("/seo/registros", seoAPI.Records)
	v1.Get("/seo/intencoes", seoAPI.Intents)
	v1.Get("/seo/paises", seoAPI.Countries)
	v1.Get("/seo/palavras-chave", seoAPI.Keywords)
	v1.Get("/status", statusAPI.Status)
	v1.Get("/historico/snapshots", statusAPI.Snapshots)
	v1.Get("/historico/importacoes", statusAPI.Imports)

	return nil
}
