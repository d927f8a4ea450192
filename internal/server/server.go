package server

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/encryptcookie"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/session"
	"github.com/gofiber/fiber/v3/middleware/static"
	redisstore "github.com/gofiber/storage/redis/v3"
	"github.com/gofiber/template/html/v3"
	"go.uber.org/zap"

	"painel/internal/config"
	"painel/internal/handlers"
	"painel/internal/handlers/api"
	"painel/internal/logger"
	staticfiles "painel/static"
	"painel/views"
)

// Server wraps the Fiber app and configuration.
type Server struct {
	App  *fiber.App
	Cfg  *config.Config
	YAML *config.YAMLConfig
}

// New builds the Fiber app: embedded views, middleware and static assets.
// Routes are added by RegisterRoutes.
func New(cfg *config.Config, yamlCfg *config.YAMLConfig) *Server {
	engine := html.NewFileSystem(http.FS(views.FS), ".html")
	engine.Reload(cfg.IsDev())
	engine.AddFuncMap(templateFuncs())

	app := fiber.New(fiber.Config{
		Views:        engine,
		ViewsLayout:  "layouts/main",
		ErrorHandler: errorHandler(cfg, yamlCfg),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(corsConfig(cfg)))
	app.Use(encryptcookie.New(encryptcookie.Config{Key: deriveEncryptionKey(cfg.SessionSecret)}))

	sessionMiddleware, _ := session.NewWithStore(sessionConfig(cfg))
	app.Use(sessionMiddleware)
	app.Use(rateLimiter())

	app.Get("/static*", static.New("", static.Config{FS: staticfiles.FS}))

	return &Server{
		App:  app,
		Cfg:  cfg,
		YAML: yamlCfg,
	}
}

// errorHandler answers /api/ paths with the JSON envelope and everything
// else with the error page.
func errorHandler(cfg *config.Config, yamlCfg *config.YAMLConfig) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Erro interno do servidor"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code, message = fe.Code, fe.Message
		} else {
			logger.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}

		if strings.HasPrefix(c.Path(), "/api/") {
			return api.Fail(c, code, message)
		}
		return handlers.ErrorPage(c, cfg, yamlCfg, code, message)
	}
}

// corsConfig allows the configured origins, or only BaseURL.
func corsConfig(cfg *config.Config) cors.Config {
	origins := []string{cfg.BaseURL}
	if cfg.CORSOrigins != "" {
		origins = strings.Split(cfg.CORSOrigins, ",")
	}
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Requested-With", "HX-Request", "HX-Current-URL", "HX-Target"},
		AllowCredentials: true,
		MaxAge:           int((24 * time.Hour).Seconds()),
	}
}

// sessionConfig keeps sessions in Redis when configured, so viewer
// preferences survive restarts and are shared across replicas.
func sessionConfig(cfg *config.Config) session.Config {
	sc := session.Config{
		CookieSecure:   cfg.TLSEnabled || !cfg.IsDev(),
		CookieHTTPOnly: true,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
		IdleTimeout:    24 * time.Hour,
	}
	if cfg.RedisURL != "" {
		sc.Storage = redisstore.New(redisstore.Config{URL: cfg.RedisURL})
	}
	return sc
}

// rateLimiter allows 100 requests per minute per IP. Probes, metrics and
// assets are not counted.
func rateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		Next: func(c fiber.Ctx) bool {
			switch p := c.Path(); {
			case p == "/healthz", p == "/readyz", p == "/metrics":
				return true
			default:
				return strings.HasPrefix(p, "/static/")
			}
		},
		LimitReached: func(c fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Limite de requisições excedido. Tente novamente em instantes.")
		},
	})
}

// Start listens on ServerAddr, over TLS or mTLS when configured. It blocks
// until the server stops.
func (s *Server) Start() error {
	addr := zap.String("addr", s.Cfg.ServerAddr)
	if !s.Cfg.TLSEnabled {
		logger.Info("starting server", addr)
		return s.App.Listen(s.Cfg.ServerAddr, fiber.ListenConfig{DisableStartupMessage: !s.Cfg.IsDev()})
	}

	tlsConfig, err := buildTLSConfig(s.Cfg)
	if err != nil {
		return err
	}
	logger.Info("starting server", addr, zap.Bool("tls", true), zap.Bool("mtls", s.Cfg.IsMTLSEnabled()))
	return s.App.Listen(s.Cfg.ServerAddr, fiber.ListenConfig{
		CertFile:              s.Cfg.TLSCertFile,
		CertKeyFile:           s.Cfg.TLSKeyFile,
		TLSConfigFunc:         func(tc *tls.Config) { *tc = *tlsConfig },
		DisableStartupMessage: !s.Cfg.IsDev(),
	})
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.App.ShutdownWithContext(ctx)
}

// deriveEncryptionKey turns the session secret into the 32-byte base64 key
// encryptcookie expects.
func deriveEncryptionKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// buildTLSConfig requires TLS 1.2 and, with a CA file, verified client certs.
func buildTLSConfig(cfg *config.Config) (*tls.Config, error) {
	tc := &tls.Config{MinVersion: tls.VersionTLS12}
	if cfg.TLSCAFile == "" {
		return tc, nil
	}

	pem, err := os.ReadFile(cfg.TLSCAFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("failed to parse CA certificate")
	}
	tc.ClientCAs = pool
	tc.ClientAuth = tls.RequireAndVerifyClientCert
	return tc, nil
}
