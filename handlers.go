package folio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/cms"
	"github.com/eringen/folio/views"
)

func (a *App) handleHome(c echo.Context) error {
	first, err := a.Cache.FirstPage(c.Request().Context())
	if err != nil {
		return fmt.Errorf("home: %w", err)
	}
	sid, err := ensureListingSession(c)
	if err != nil {
		return fmt.Errorf("home: listing session: %w", err)
	}
	control := views.LoadMoreControl{ListingID: uuid.NewString(), CSRFToken: CsrfToken(c)}
	a.Listings.Put(sid, control.ListingID, NewListing(first, a.Source, a.Echo.Logger))
	return Render(c, a.Views.Home(first.Results, first.NextPage != "", control))
}

// handleLoadMore appends the next page to the listing of one home page view,
// named by the listing form value and scoped to the visitor's session. The
// response replaces the load-more control with the new cards followed by a
// fresh control. A failed fetch re-renders the control alone so the page
// stays as it was.
func (a *App) handleLoadMore(c echo.Context) error {
	if !a.moreLimiter.Allow(c.RealIP()) {
		return c.NoContent(http.StatusTooManyRequests)
	}

	control := views.LoadMoreControl{ListingID: c.FormValue(views.ListingParam), CSRFToken: CsrfToken(c)}
	listing, ok := a.Listings.Get(listingSessionID(c), control.ListingID)
	if !ok {
		// Expired or unknown listing: reload the home page to start over.
		c.Response().Header().Set("HX-Refresh", "true")
		return c.NoContent(http.StatusNoContent)
	}

	added, err := listing.LoadMore(c.Request().Context())
	switch {
	case errors.Is(err, ErrLoadInFlight):
		return c.NoContent(http.StatusNoContent)
	case err != nil:
		return Render(c, a.Views.MorePosts(nil, listing.HasMore(), control))
	}
	return Render(c, a.Views.MorePosts(added, listing.HasMore(), control))
}

// handlePost serves a post page. Stored pages render straight away. Other
// slugs get a loading shell whose htmx partial request resolves the post
// against the CMS and stores it. Partials always answer 200 so htmx swaps
// the not-found state in.
func (a *App) handlePost(c echo.Context) error {
	slug := c.Param("slug")
	partial := isPartial(c, "post")
	view := a.Views.Post
	notFoundStatus := http.StatusNotFound
	if partial {
		view = a.Views.PostPartial
		notFoundStatus = http.StatusOK
	}

	if !ValidSlug(slug) {
		noStore(c)
		return RenderStatus(c, notFoundStatus, view(slug, views.NotFoundState(false)))
	}

	post, err := a.Store.GetPost(slug)
	if err == nil {
		return Render(c, view(slug, views.ReadyState(post, EstimateReadMinutes(post.Data.Content))))
	}
	if !errors.Is(err, ErrNotFound) {
		c.Logger().Errorf("page store: get %s: %v", slug, err)
	}

	if !partial {
		noStore(c)
		return Render(c, view(slug, views.LoadingState()))
	}

	post, err = a.Source.Post(c.Request().Context(), slug)
	switch {
	case err == nil:
		if err := a.Store.SavePost(post); err != nil {
			c.Logger().Errorf("page store: save %s: %v", slug, err)
		}
		return Render(c, view(slug, views.ReadyState(post, EstimateReadMinutes(post.Data.Content))))
	case errors.Is(err, cms.ErrNotFound):
		noStore(c)
		return Render(c, view(slug, views.NotFoundState(false)))
	default:
		c.Logger().Errorf("resolve post %s: %v", slug, err)
		noStore(c)
		return Render(c, view(slug, views.NotFoundState(true)))
	}
}

// noStore keeps a response out of browser and shared caches. Post pages
// that are not ready yet must be fetched again on the next visit.
func noStore(c echo.Context) {
	c.Response().Header().Set("Cache-Control", "no-store")
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.AllPosts(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.AllPosts(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleAtom(c echo.Context) error {
	posts, err := a.Cache.AllPosts(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderAtom(c, posts)
}

func handleHomeRedirect(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/")
}

func (a *App) handleRobots(c echo.Context) error {
	path := filepath.Join(a.Config.StaticDir, "robots.txt")
	if _, err := os.Stat(path); err == nil {
		return c.File(path)
	}
	return c.String(http.StatusOK, "User-agent: *\nAllow: /\n\nSitemap: "+a.Config.URL+"/sitemap.xml\n")
}

type healthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

func (a *App) handleHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	resp := healthStatus{Status: "healthy", Timestamp: time.Now().UTC(), Checks: map[string]string{}}
	code := http.StatusOK
	if err := a.Store.Ping(ctx); err != nil {
		c.Logger().Errorf("health: page store: %v", err)
		resp.Status = "unhealthy"
		resp.Checks["page_store"] = "down"
		code = http.StatusServiceUnavailable
	} else {
		resp.Checks["page_store"] = "up"
	}
	return c.JSON(code, resp)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
