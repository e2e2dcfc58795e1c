// Package devlog is a blog engine for long-form technical writing. Posts
// are Markdown files with YAML front-matter; devlog indexes them into
// SQLite and serves permalinks, tag indexes, archives, RSS and a sitemap.
//
// Sites provide their own templ components via the ViewFuncs struct (the
// views package ships a default theme) and devlog handles routing,
// redirects, caching, re-indexing and the admin preview.
package devlog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/devlog/content"
)

// ViewFuncs holds the templ components devlog calls when rendering pages.
// Components may read the visitor's display mode with DisplayModeFromContext.
type ViewFuncs struct {
	Home           func(featured, recent []BlogPost) templ.Component
	Posts          func(posts []BlogPost, page Pagination) templ.Component
	Post           func(post BlogPost, related []BlogPost) templ.Component
	Tags           func(tags []Tag) templ.Component
	TagPosts       func(tag Tag, posts []BlogPost, page Pagination) templ.Component
	Archives       func(years []ArchiveYear) templ.Component
	AdminLogin     func(showError bool, csrfToken string) templ.Component
	AdminDashboard func(posts []BlogPost, tags []Tag, message string, csrfToken string) templ.Component
	NotFound       func() templ.Component
	ServerError    func() templ.Component
}

// App is the central devlog application. It wires together the store,
// cache, indexer, handlers, middleware, and site templates.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Store   *Store
	Cache   *PostCache
	Indexer *Indexer
	Images  *ImageRegistry
	Metrics *Metrics
	Views   ViewFuncs
	Logger  *slog.Logger

	redirects    RedirectTable
	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	now          func() time.Time
	ready        bool
}

// New creates a devlog App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:  cfg,
		Echo:    echo.New(),
		Views:   views,
		Logger:  slog.Default(),
		Metrics: NewMetrics(),
		now:     time.Now,
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true
	a.redirects = NewRedirectTable(cfg.Redirects)

	for _, opt := range opts {
		opt(a)
	}
	if a.Images == nil {
		a.Images = NewImageRegistry(cfg.StaticDir, cfg.Features.LightAndDarkMode)
	}
	for name, img := range cfg.Images {
		a.Images.Register(name, img)
	}
	return a
}

// Init opens the store, indexes the content directory and registers
// middleware and routes. Start calls it when needed; tests call it directly
// and drive a.Echo with httptest.
func (a *App) Init(ctx context.Context) error {
	if a.ready {
		return nil
	}
	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("devlog: invalid config: %w", err)
	}
	if a.adminEnabled() && a.Config.SessionSecret == "" {
		return errors.New("devlog: SessionSecret is required when AdminPassword is set")
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("devlog: init store: %w", err)
	}
	a.Store = store
	a.Cache = NewPostCache(store, time.Duration(a.Config.PostCacheTTL), time.Duration(a.Config.ScheduledPostMargin), a.now)
	a.Indexer = NewIndexer(a.Config.ContentDir, a.Config.Location(), store, a.Cache, a.Metrics, a.Logger)
	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	if _, err := a.Indexer.Sync(ctx); err != nil {
		return fmt.Errorf("devlog: initial sync: %w", err)
	}

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

// Start initializes the app, starts background re-indexing and serves HTTP
// until ctx is cancelled, then shuts down gracefully.
func (a *App) Start(ctx context.Context) error {
	if err := a.Init(ctx); err != nil {
		return err
	}

	sched, err := NewScheduler(a.Logger)
	if err != nil {
		return err
	}
	if err := sched.Every("content-refresh", time.Duration(a.Config.RefreshInterval), func(ctx context.Context) {
		_, _ = a.Indexer.Sync(ctx)
	}); err != nil {
		return err
	}
	sched.Start()
	defer func() {
		if err := sched.Stop(); err != nil {
			a.Logger.Warn("scheduler shutdown", "error", err)
		}
	}()

	if a.Config.Watch {
		w, err := content.NewWatcher(a.Config.ContentDir, 300*time.Millisecond, func() {
			_, _ = a.Indexer.Sync(ctx)
		})
		if err != nil {
			return fmt.Errorf("devlog: watch content: %w", err)
		}
		defer w.Close()
		go func() { _ = w.Run(ctx) }()
		a.Logger.Info("watching content", "dir", a.Config.ContentDir)
	}

	errc := make(chan error, 1)
	go func() {
		a.Logger.Info("listening", "addr", a.Config.Addr, "url", a.Config.URL)
		if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("devlog: shutdown: %w", err)
	}
	a.Logger.Info("server stopped")
	return nil
}

func (a *App) adminEnabled() bool {
	return a.Config.AdminPassword != ""
}

func (a *App) setupRoutes() {
	e := a.Echo

	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	e.GET("/public/theme.js", echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(embeddedFS)))))

	e.Static("/public", a.Config.StaticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/rss.xml", a.handleFeed)
	e.GET("/metrics", a.Metrics.handler())
	e.GET("/images/:name", a.Images.handleImage)

	e.GET("/", a.handleHome)
	e.GET("/posts/", a.handlePosts)
	e.GET("/posts/:slug/", a.handlePost)
	e.GET("/tags/", a.handleTags)
	e.GET("/tags/:tag/", a.handleTag)
	e.GET("/tags/:tag/:page/", a.handleTag)
	e.GET("/archives/", a.handleArchives)

	if a.adminEnabled() {
		a.setupAdminRoutes()
	}
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Close()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
