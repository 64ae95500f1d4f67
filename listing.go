package folio

import (
	"context"
	"errors"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/eringen/folio/cms"
)

// ErrLoadInFlight is returned by LoadMore while an earlier call on the same
// listing has not finished.
var ErrLoadInFlight = errors.New("folio: load more already in progress")

// PageFetcher follows next-page cursors.
type PageFetcher interface {
	NextPosts(ctx context.Context, nextPage string) (cms.PostPagination, error)
}

// Listing is the post list a visitor is looking at: the posts displayed so
// far, in order, and the cursor of the page after them.
type Listing struct {
	mu       sync.Mutex
	posts    []cms.ListPost
	nextPage string
	loading  bool

	fetcher PageFetcher
	logger  echo.Logger
}

// NewListing starts a listing from the first page. A nil logger logs to
// stdout under the "listing" prefix.
func NewListing(first cms.PostPagination, fetcher PageFetcher, logger echo.Logger) *Listing {
	if logger == nil {
		logger = log.New("listing")
	}
	posts := make([]cms.ListPost, len(first.Results))
	copy(posts, first.Results)
	return &Listing{
		posts:    posts,
		nextPage: first.NextPage,
		fetcher:  fetcher,
		logger:   logger,
	}
}

// LoadMore fetches the page behind the current cursor, appends its posts and
// adopts its cursor. It returns the posts it appended.
//
// With no cursor it does nothing. On failure the listing is left exactly as
// it was and the error is logged and returned.
func (l *Listing) LoadMore(ctx context.Context) ([]cms.ListPost, error) {
	l.mu.Lock()
	if l.nextPage == "" {
		l.mu.Unlock()
		return nil, nil
	}
	if l.loading {
		l.mu.Unlock()
		return nil, ErrLoadInFlight
	}
	l.loading = true
	cursor := l.nextPage
	l.mu.Unlock()

	page, err := l.fetcher.NextPosts(ctx, cursor)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = false
	if err != nil {
		l.logger.Errorf("load more posts: %v", err)
		return nil, err
	}

	added := make([]cms.ListPost, len(page.Results))
	copy(added, page.Results)
	l.posts = append(l.posts, added...)
	l.nextPage = page.NextPage
	return added, nil
}

// Posts returns a copy of the displayed posts.
func (l *Listing) Posts() []cms.ListPost {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]cms.ListPost, len(l.posts))
	copy(out, l.posts)
	return out
}

// NextPage returns the current cursor; empty once pagination has ended.
func (l *Listing) NextPage() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nextPage
}

// HasMore reports whether another page can be loaded.
func (l *Listing) HasMore() bool {
	return l.NextPage() != ""
}
