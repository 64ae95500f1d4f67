package folio

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/spf13/viper"
)

// DefaultHTMXURL is where the pages load htmx from unless HTMX_URL is set.
const DefaultHTMXURL = "https://unpkg.com/htmx.org@2.0.4/dist/htmx.min.js"

// SiteConfig holds all configuration for a folio site.
type SiteConfig struct {
	Name        string `mapstructure:"SITE_NAME"`        // default "Blog"
	URL         string `mapstructure:"SITE_URL"`         // canonical URL, default "http://localhost:3000"
	Description string `mapstructure:"SITE_DESCRIPTION"` // RSS and meta tags
	Author      string `mapstructure:"SITE_AUTHOR"`      // feed and JSON-LD author
	Locale      string `mapstructure:"SITE_LOCALE"`      // "pt-BR" (default) or "en"

	Addr         string `mapstructure:"ADDR"`          // default ":3000"
	DatabasePath string `mapstructure:"DATABASE_PATH"` // page store, default "data/pages.db"
	StaticDir    string `mapstructure:"STATIC_DIR"`    // default "public"

	CMSEndpoint    string        `mapstructure:"CMS_ENDPOINT"` // required, e.g. https://repo.cdn.prismic.io/api/v2
	CMSAccessToken string        `mapstructure:"CMS_ACCESS_TOKEN"`
	HTTPTimeout    time.Duration `mapstructure:"HTTP_TIMEOUT"` // per CMS request, default 10s

	HomePageSize      int           `mapstructure:"HOME_PAGE_SIZE"`      // posts on the first listing page, default 1
	PrerenderCount    int           `mapstructure:"PRERENDER_COUNT"`     // posts prepared by "folio build", default 1
	PostCacheTTL      time.Duration `mapstructure:"POST_CACHE_TTL"`      // default 5m
	ListingSessionTTL time.Duration `mapstructure:"LISTING_SESSION_TTL"` // idle listing expiry, default 30m
	LocalizeBanners   bool          `mapstructure:"LOCALIZE_BANNERS"`

	SessionSecret    string `mapstructure:"SESSION_SECRET"` // required for serve
	CookieSecure     bool   `mapstructure:"COOKIE_SECURE"`  // set true for HTTPS
	RevalidateSecret string `mapstructure:"REVALIDATE_SECRET"`

	HTMXURL  string `mapstructure:"HTMX_URL"`
	LogLevel string `mapstructure:"LOG_LEVEL"` // debug, info, warn, error
}

var configDefaults = map[string]any{
	"SITE_NAME":           "Blog",
	"SITE_URL":            "http://localhost:3000",
	"SITE_DESCRIPTION":    "",
	"SITE_AUTHOR":         "",
	"SITE_LOCALE":         "pt-BR",
	"ADDR":                ":3000",
	"DATABASE_PATH":       "data/pages.db",
	"STATIC_DIR":          "public",
	"CMS_ENDPOINT":        "",
	"CMS_ACCESS_TOKEN":    "",
	"HTTP_TIMEOUT":        "10s",
	"HOME_PAGE_SIZE":      1,
	"PRERENDER_COUNT":     1,
	"POST_CACHE_TTL":      "5m",
	"LISTING_SESSION_TTL": "30m",
	"LOCALIZE_BANNERS":    false,
	"SESSION_SECRET":      "",
	"COOKIE_SECURE":       false,
	"REVALIDATE_SECRET":   "",
	"HTMX_URL":            DefaultHTMXURL,
	"LOG_LEVEL":           "info",
}

// LoadConfig reads configuration from an optional .env file and the
// environment. Only CMS_ENDPOINT is validated here; serve-only settings are
// checked when the App starts.
func LoadConfig(logger echo.Logger) (SiteConfig, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, using environment variables only")
	} else {
		logger.Info("loaded .env file")
	}

	v := viper.New()
	for key, value := range configDefaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg SiteConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("unmarshal configuration: %w", err)
	}
	cfg.setDefaults()

	if cfg.CMSEndpoint == "" {
		return SiteConfig{}, errors.New("CMS_ENDPOINT is required")
	}

	logger.Infof("configuration loaded: site=%s locale=%s cms=%s", cfg.URL, cfg.Locale, cfg.CMSEndpoint)
	return cfg, nil
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	c.URL = strings.TrimRight(c.URL, "/")
	if c.Locale == "" {
		c.Locale = "pt-BR"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/pages.db"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = 10 * time.Second
	}
	if c.HomePageSize <= 0 {
		c.HomePageSize = 1
	}
	if c.PrerenderCount <= 0 {
		c.PrerenderCount = 1
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
	if c.ListingSessionTTL == 0 {
		c.ListingSessionTTL = 30 * time.Minute
	}
	if c.HTMXURL == "" {
		c.HTMXURL = DefaultHTMXURL
	}
}

// ParseLogLevel maps LOG_LEVEL values onto gommon levels. Unknown values
// fall back to INFO.
func ParseLogLevel(level string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir overrides STATIC_DIR.
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.Config.StaticDir = dir
	}
}

// WithContentSource replaces the CMS client, mainly for tests.
func WithContentSource(src ContentSource) Option {
	return func(a *App) {
		a.Source = src
	}
}

// WithStore uses an already opened page store.
func WithStore(s *Store) Option {
	return func(a *App) {
		a.Store = s
	}
}
