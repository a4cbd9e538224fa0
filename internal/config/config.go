package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingDatabaseURL is returned by Validate when no data service is configured.
var ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")

// ErrMissingTLSFiles is returned by Validate when TLS is on without a key pair.
var ErrMissingTLSFiles = errors.New("TLS_CERT_FILE and TLS_KEY_FILE are required when TLS_ENABLED is set")

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env      string // "development", "production", etc.
	LogLevel string // debug, info, warn, error

	// Server
	ServerAddr string
	BaseURL    string

	// TLS; a CA file turns on client certificate verification
	TLSEnabled  bool
	TLSCertFile string
	TLSKeyFile  string
	TLSCAFile   string

	// Data service
	DatabaseURL  string
	DatabaseRole string // Optional role assumed per connection, e.g. "anon"
	RedisURL     string // Optional; sessions and rate limits use memory when empty

	// OIDC
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string

	// Session
	SessionSecret string // Used for signing cookies (min 32 chars)

	// Bearer tokens for API clients (HS256)
	JWTSecret string

	// CORS
	CORSOrigins string // Comma-separated allowed origins

	// Maps
	MapTileToken string // Optional; map views fall back to tables when empty

	// Taxonomy catalog
	CatalogFile string

	// Email
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTLS      string // none, tls, starttls

	EmailNotifyAdminsOnSubmit  bool
	EmailNotifyUserOnApproval  bool
	EmailNotifyUserOnRejection bool

	// Review backlog reminders; zero disables them
	PendingDigestInterval time.Duration

	// Site Branding
	SiteTitle   string // env: SITE_TITLE, default: "Solarpunk Taskforce"
	SiteTagline string // env: SITE_TAGLINE
	SiteFooter  string // env: SITE_FOOTER
	SiteLogoURL string // env: SITE_LOGO_URL, default: "" (no logo, text only)
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Env:              getEnv("ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		ServerAddr:       getEnv("SERVER_ADDR", ":3000"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:3000"),
		TLSEnabled:       getEnvBool("TLS_ENABLED", false),
		TLSCertFile:      getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:       getEnv("TLS_KEY_FILE", ""),
		TLSCAFile:        getEnv("TLS_CA_FILE", ""),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		DatabaseRole:     getEnv("DATABASE_ROLE", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		OIDCIssuer:       getEnv("OIDC_ISSUER", ""),
		OIDCClientID:     getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURL:  getEnv("OIDC_REDIRECT_URL", "http://localhost:3000/auth/callback"),
		SessionSecret:    getEnv("SESSION_SECRET", "change-me-in-production-min-32-chars"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		CORSOrigins:      getEnv("CORS_ORIGINS", ""),
		MapTileToken:     getEnv("MAP_TILE_TOKEN", ""),
		CatalogFile:      getEnv("CATALOG_FILE", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Solarpunk Taskforce"),
		SMTPTLS:      getEnv("SMTP_TLS", "starttls"),

		EmailNotifyAdminsOnSubmit:  getEnvBool("EMAIL_NOTIFY_ADMINS_ON_SUBMIT", true),
		EmailNotifyUserOnApproval:  getEnvBool("EMAIL_NOTIFY_USER_ON_APPROVAL", true),
		EmailNotifyUserOnRejection: getEnvBool("EMAIL_NOTIFY_USER_ON_REJECTION", true),
		PendingDigestInterval:      getEnvDuration("PENDING_DIGEST_INTERVAL", 0),

		SiteTitle:   getEnv("SITE_TITLE", "Solarpunk Taskforce"),
		SiteTagline: getEnv("SITE_TAGLINE", "Coordinating projects, funding and watchdogs for a livable planet"),
		SiteFooter:  getEnv("SITE_FOOTER", "Solarpunk Taskforce"),
		SiteLogoURL: getEnv("SITE_LOGO_URL", ""),
	}
}

// Validate checks settings every data path depends on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return ErrMissingDatabaseURL
	}
	if c.TLSEnabled && (c.TLSCertFile == "" || c.TLSKeyFile == "") {
		return ErrMissingTLSFiles
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// IsEmailEnabled returns true when outbound email credentials are configured.
func (c *Config) IsEmailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

// IsMapEnabled returns true when a map tile token is configured.
func (c *Config) IsMapEnabled() bool {
	return c.MapTileToken != ""
}

// SlogLevel converts LogLevel to a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
