package config

import (
	"os"
	"strconv"
	"time"
)

// Cache TTL bounds, in minutes, accepted from env and from the settings form.
const (
	MinCacheTTLMinutes     = 5
	MaxCacheTTLMinutes     = 720
	DefaultCacheTTLMinutes = 60
	CacheTTLStepMinutes    = 5
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr string
	BaseURL    string

	// Database (optional, enables snapshot archive and export counters)
	DatabaseURL string

	// Redis (optional, shared deputy cache and session storage)
	RedisURL string

	// Chamber of Deputies open data API
	CamaraAPIURL     string
	CamaraTimeout    time.Duration
	CamaraMaxRetries int

	// Cache
	CacheTTLMinutes int
	RefreshInterval time.Duration // 0 disables the background refresher

	// Archived snapshots kept in the database, 0 keeps all
	SnapshotRetention int

	// SEO reports, read from a local directory or an S3 prefix
	ReportsDir      string
	ReportsS3Bucket string
	ReportsS3Prefix string

	// Logging
	LogLevel  string
	LogFormat string // "json" or "console"
	LogOutput string // "stdout" or a file path

	// TLS/mTLS
	TLSEnabled  bool
	TLSCertFile string
	TLSKeyFile  string
	TLSCAFile   string // CA for verifying client certs (mTLS)

	// OIDC, guards operator actions when set
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string

	// SMTP, alerts operators when a background refresh starts failing
	SMTPEnabled  bool
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTLS      string // "none", "starttls" or "tls"

	// Session
	SessionSecret string // Used for signing cookies (min 32 chars)

	// CORS
	CORSOrigins string // Comma-separated allowed origins

	// Site Branding
	SiteTitle   string // env: SITE_TITLE, default: "Painel de Dados"
	SiteTagline string // env: SITE_TAGLINE
	SiteFooter  string // env: SITE_FOOTER
	SiteLogoURL string // env: SITE_LOGO_URL, default: "" (no logo, text only)
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Env:               getEnv("ENV", "development"),
		ServerAddr:        getEnv("SERVER_ADDR", ":3000"),
		BaseURL:           getEnv("BASE_URL", "http://localhost:3000"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		CamaraAPIURL:      getEnv("CAMARA_API_URL", "https://dadosabertos.camara.leg.br/api/v2"),
		CamaraTimeout:     getDuration("CAMARA_TIMEOUT", 30*time.Second),
		CamaraMaxRetries:  getInt("CAMARA_MAX_RETRIES", 3),
		CacheTTLMinutes:   ClampTTLMinutes(getInt("CACHE_TTL_MINUTES", DefaultCacheTTLMinutes)),
		RefreshInterval:   getDuration("REFRESH_INTERVAL", 0),
		SnapshotRetention: getInt("SNAPSHOT_RETENTION", 48),
		ReportsDir:        getEnv("REPORTS_DIR", "./relatorios"),
		ReportsS3Bucket:   getEnv("REPORTS_S3_BUCKET", ""),
		ReportsS3Prefix:   getEnv("REPORTS_S3_PREFIX", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "console"),
		LogOutput:         getEnv("LOG_OUTPUT", "stdout"),
		TLSEnabled:        getEnv("TLS_ENABLED", "") != "",
		TLSCertFile:       getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:        getEnv("TLS_KEY_FILE", ""),
		TLSCAFile:         getEnv("TLS_CA_FILE", ""),
		OIDCIssuer:        getEnv("OIDC_ISSUER", ""),
		OIDCClientID:      getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret:  getEnv("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURL:   getEnv("OIDC_REDIRECT_URL", "http://localhost:3000/auth/callback"),
		SessionSecret:     getEnv("SESSION_SECRET", "change-me-in-production-min-32-chars"),
		CORSOrigins:       getEnv("CORS_ORIGINS", ""),

		SiteTitle:   getEnv("SITE_TITLE", "Painel de Dados"),
		SiteTagline: getEnv("SITE_TAGLINE", "Deputados Federais e Relatórios de SEO"),
		SiteFooter:  getEnv("SITE_FOOTER", "Dados: API de Dados Abertos da Câmara dos Deputados"),
		SiteLogoURL: getEnv("SITE_LOGO_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return d
}

// ClampTTLMinutes keeps a TTL inside the accepted window and snaps it to the step.
func ClampTTLMinutes(minutes int) int {
	if minutes < MinCacheTTLMinutes {
		return MinCacheTTLMinutes
	}
	if minutes > MaxCacheTTLMinutes {
		return MaxCacheTTLMinutes
	}
	return minutes - minutes%CacheTTLStepMinutes
}

// CacheTTL returns the default cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// IsMTLSEnabled returns true if mTLS is configured with a CA file.
func (c *Config) IsMTLSEnabled() bool {
	return c.TLSEnabled && c.TLSCAFile != ""
}

// IsAuthEnabled reports whether operator actions sit behind an OIDC login.
func (c *Config) IsAuthEnabled() bool {
	return c.OIDCIssuer != ""
}

// IsEmailEnabled reports whether operator alert e-mails can be sent.
func (c *Config) IsEmailEnabled() bool {
	return c.SMTPEnabled && c.SMTPHost != "" && c.SMTPFrom != ""
}

// UsesS3Reports reports whether SEO reports are read from S3 instead of disk.
func (c *Config) UsesS3Reports() bool {
	return c.ReportsS3Bucket != ""
}
