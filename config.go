package devlog

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment override, e.g. DEVLOG_ADDR.
const EnvPrefix = "DEVLOG_"

// Duration is a time.Duration that reads "5m"-style strings from TOML and
// the environment.
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalText() (text []byte, err error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	p, err := time.ParseDuration(string(text))
	*d = Duration(p)
	return err
}

// Features toggles optional parts of the site.
type Features struct {
	LightAndDarkMode bool `toml:"light_and_dark_mode" env:"LIGHT_AND_DARK_MODE"`
	ShowArchives     bool `toml:"show_archives" env:"SHOW_ARCHIVES"`
	ShowBackButton   bool `toml:"show_back_button" env:"SHOW_BACK_BUTTON"`
}

// SiteConfig holds all configuration for a devlog site.
type SiteConfig struct {
	Author      string `toml:"author" env:"AUTHOR"`
	Title       string `toml:"title" env:"TITLE"`             // default "Blog"
	Description string `toml:"description" env:"DESCRIPTION"` // RSS and meta tags
	URL         string `toml:"url" env:"URL"`                 // default "http://localhost:3000"
	Lang        string `toml:"lang" env:"LANG"`               // default "en"
	Timezone    string `toml:"timezone" env:"TIMEZONE"`       // IANA name, default "UTC"

	PostsPerPage        int      `toml:"posts_per_page" env:"POSTS_PER_PAGE"`               // default 10
	ScheduledPostMargin Duration `toml:"scheduled_post_margin" env:"SCHEDULED_POST_MARGIN"` // default 15m, 0 disables
	Features            Features `toml:"features" envPrefix:"FEATURE_"`
	EditPostURL         string   `toml:"edit_post_url" env:"EDIT_POST_URL"`

	// Redirects maps legacy paths to their canonical location.
	Redirects map[string]string `toml:"redirects"`
	// Images registers light/dark asset pairs by name.
	Images map[string]ThemedImage `toml:"images"`

	Addr         string `toml:"addr" env:"ADDR"`                   // default ":3000"
	ContentDir   string `toml:"content_dir" env:"CONTENT_DIR"`     // default "content"
	StaticDir    string `toml:"static_dir" env:"STATIC_DIR"`       // default "public"
	DatabasePath string `toml:"database_path" env:"DATABASE_PATH"` // default "data/blog.db"

	AdminPassword string `toml:"-" env:"ADMIN_PASSWORD"`
	SessionSecret string `toml:"-" env:"SESSION_SECRET"`
	CookieSecure  bool   `toml:"cookie_secure" env:"COOKIE_SECURE"`

	PostCacheTTL    Duration `toml:"post_cache_ttl" env:"POST_CACHE_TTL"`     // default 5m, 0 disables
	RefreshInterval Duration `toml:"refresh_interval" env:"REFRESH_INTERVAL"` // default 1m
	Watch           bool     `toml:"watch" env:"WATCH"`
}

// DefaultConfig returns a SiteConfig with every default filled in. Settings
// where zero is meaningful, such as ScheduledPostMargin and PostCacheTTL,
// get their defaults only here.
func DefaultConfig() SiteConfig {
	cfg := SiteConfig{
		ScheduledPostMargin: Duration(15 * time.Minute),
		PostCacheTTL:        Duration(5 * time.Minute),
	}
	cfg.setDefaults()
	return cfg
}

// LoadConfig reads the TOML file at path over DefaultConfig, then applies
// DEVLOG_* environment overrides. A missing file is not an error.
func LoadConfig(path string) (SiteConfig, error) {
	cfg := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := toml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("config env: %w", err)
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *SiteConfig) setDefaults() {
	if c.Title == "" {
		c.Title = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	c.URL = strings.TrimSuffix(c.URL, "/")
	if c.Lang == "" {
		c.Lang = "en"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.PostsPerPage <= 0 {
		c.PostsPerPage = 10
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.ContentDir == "" {
		c.ContentDir = "content"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/blog.db"
	}
	if c.RefreshInterval == 0 {
		c.RefreshInterval = Duration(time.Minute)
	}
}

// Location returns the site timezone, or UTC when it cannot be loaded.
func (c SiteConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate checks settings that would otherwise fail at request time.
func (c SiteConfig) Validate() error {
	var errs []error
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	if err := validateRedirects(c.Redirects); err != nil {
		errs = append(errs, err)
	}
	for name, img := range c.Images {
		if img.Light == "" {
			errs = append(errs, fmt.Errorf("image %q: light asset is required", name))
		}
	}
	return errors.Join(errs...)
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

// WithClock replaces time.Now, mainly for tests of scheduled posts.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

// WithLogger sets the logger used by the app and its background jobs.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithImages shares an image registry with the app, typically the one the
// site's templates render from.
func WithImages(r *ImageRegistry) Option {
	return func(a *App) {
		a.Images = r
	}
}
