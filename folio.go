// Package folio serves a blog whose posts live in a headless CMS. Post pages
// are pre-generated into a SQLite page store, resolved on demand when they
// were not, and the home listing pages through the CMS with a "load more"
// action that follows the API's opaque next-page cursor.
//
// Templates are supplied through ViewFuncs; DefaultViews wires the views
// package.
package folio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/cms"
	"github.com/eringen/folio/views"
)

// ContentSource is the part of the CMS client folio depends on.
type ContentSource interface {
	ListPosts(ctx context.Context, pageSize int) (cms.PostPagination, error)
	NextPosts(ctx context.Context, nextPage string) (cms.PostPagination, error)
	PostUIDs(ctx context.Context, pageSize int) ([]string, error)
	Post(ctx context.Context, uid string) (cms.Post, error)
}

// ViewFuncs holds the templ components the handlers render.
type ViewFuncs struct {
	Home        func(posts []cms.ListPost, hasMore bool, control views.LoadMoreControl) templ.Component
	MorePosts   func(posts []cms.ListPost, hasMore bool, control views.LoadMoreControl) templ.Component
	Post        func(slug string, state views.PostState) templ.Component
	PostPartial func(slug string, state views.PostState) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// DefaultViews renders with the views package using cfg's site settings.
func DefaultViews(cfg SiteConfig) ViewFuncs {
	site := cfg.ViewConfig()
	return ViewFuncs{
		Home: func(posts []cms.ListPost, hasMore bool, control views.LoadMoreControl) templ.Component {
			return views.Home(site, posts, hasMore, control)
		},
		MorePosts: func(posts []cms.ListPost, hasMore bool, control views.LoadMoreControl) templ.Component {
			return views.MorePosts(site, posts, hasMore, control)
		},
		Post: func(slug string, state views.PostState) templ.Component {
			return views.Post(site, slug, state)
		},
		PostPartial: func(slug string, state views.PostState) templ.Component {
			return views.PostPartial(site, slug, state)
		},
		NotFound: func() templ.Component {
			return views.NotFound(site)
		},
		ServerError: func() templ.Component {
			return views.ServerError(site)
		},
	}
}

// ViewConfig converts the site settings the templates need.
func (c SiteConfig) ViewConfig() views.SiteConfig {
	cfg := c
	cfg.setDefaults()
	return views.SiteConfig{
		Name:        cfg.Name,
		URL:         cfg.URL,
		Description: cfg.Description,
		Author:      cfg.Author,
		Locale:      cfg.Locale,
		HTMXURL:     cfg.HTMXURL,
	}
}

// App is the central folio application. It wires together the content
// source, page store, caches, handlers, middleware and templates.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Source   ContentSource
	Store    *Store
	Cache    *PostCache
	Listings *ListingRegistry
	Views    ViewFuncs

	moreLimiter       *RateLimiter
	revalidateLimiter *RateLimiter
	customRoutes      []func(*App)
	ownsStore         bool
	initialized       bool
}

// New creates a folio App. A zero ViewFuncs selects DefaultViews.
func New(cfg SiteConfig, vf ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Views:  vf,
	}
	a.Echo.HideBanner = true
	a.Echo.Logger.SetLevel(ParseLogLevel(cfg.LogLevel))

	for _, opt := range opts {
		opt(a)
	}
	if a.Views.Home == nil {
		a.Views = DefaultViews(a.Config)
	}
	return a
}

// Init opens the store, builds caches, installs middleware and routes. Start
// calls it; tests call it directly and drive a.Echo with httptest.
func (a *App) Init() error {
	if a.initialized {
		return nil
	}
	if a.Config.SessionSecret == "" {
		return errors.New("folio: SESSION_SECRET is required")
	}

	if a.Source == nil {
		if a.Config.CMSEndpoint == "" {
			return errors.New("folio: CMS_ENDPOINT is required")
		}
		a.Source = cms.NewClient(a.Config.CMSEndpoint, a.Config.CMSAccessToken,
			cms.WithTimeout(a.Config.HTTPTimeout))
	}

	if a.Store == nil {
		store, err := NewStore(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("folio: init store: %w", err)
		}
		a.Store = store
		a.ownsStore = true
	}

	a.Cache = NewPostCache(a.Source, a.Config.HomePageSize, a.Config.PostCacheTTL)
	a.Listings = NewListingRegistry(a.Config.ListingSessionTTL)
	a.moreLimiter = NewRateLimiter(60, time.Minute)
	a.revalidateLimiter = NewRateLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.initialized = true
	return nil
}

// Start initializes the app and serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.Config.StaticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/healthz/", a.handleHealth)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/atom.xml", a.handleAtom)

	e.GET("/", a.handleHome)
	e.POST("/more/", a.handleLoadMore)
	e.GET("/post/:slug/", a.handlePost)
	e.GET("/post/", handleHomeRedirect)

	e.POST("/api/revalidate/", a.handleRevalidate)
}

// Close releases background workers and the store when the App opened it.
func (a *App) Close() error {
	if a.Listings != nil {
		a.Listings.Stop()
	}
	if a.moreLimiter != nil {
		a.moreLimiter.Stop()
	}
	if a.revalidateLimiter != nil {
		a.revalidateLimiter.Stop()
	}
	if a.Store != nil && a.ownsStore {
		return a.Store.Close()
	}
	return nil
}
