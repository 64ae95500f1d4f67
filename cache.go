package folio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/eringen/folio/cms"
)

const (
	feedPageSize = 100
	maxFeedPages = 50
)

// PostCache is an in-memory TTL cache of what the CMS lists: the first
// listing page shown on the home page and the full post list used by feeds
// and the sitemap.
type PostCache struct {
	mu           sync.RWMutex
	first        *cms.PostPagination
	firstFetched time.Time
	all          []cms.ListPost
	allFetched   time.Time

	ttl      time.Duration
	pageSize int
	source   ContentSource
}

// NewPostCache creates a PostCache over src. pageSize is the size of the
// first listing page.
func NewPostCache(src ContentSource, pageSize int, ttl time.Duration) *PostCache {
	return &PostCache{source: src, pageSize: pageSize, ttl: ttl}
}

// Invalidate clears the cache so the next read goes to the CMS.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.first = nil
	c.all = nil
	c.mu.Unlock()
}

func (c *PostCache) fresh(fetched time.Time) bool {
	return time.Since(fetched) < c.ttl
}

// FirstPage returns the first listing page. Callers get their own copy of
// the results.
func (c *PostCache) FirstPage(ctx context.Context) (cms.PostPagination, error) {
	c.mu.RLock()
	if c.first != nil && c.fresh(c.firstFetched) {
		page := copyPagination(*c.first)
		c.mu.RUnlock()
		return page, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.first == nil || !c.fresh(c.firstFetched) {
		page, err := c.source.ListPosts(ctx, c.pageSize)
		if err != nil {
			return cms.PostPagination{}, err
		}
		c.first = &page
		c.firstFetched = time.Now()
	}
	return copyPagination(*c.first), nil
}

// AllPosts returns every post, following the pagination cursor to the end.
func (c *PostCache) AllPosts(ctx context.Context) ([]cms.ListPost, error) {
	c.mu.RLock()
	if c.all != nil && c.fresh(c.allFetched) {
		posts := c.all
		c.mu.RUnlock()
		return posts, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.all == nil || !c.fresh(c.allFetched) {
		posts, err := c.walk(ctx)
		if err != nil {
			return nil, err
		}
		c.all = posts
		c.allFetched = time.Now()
	}
	return c.all, nil
}

func (c *PostCache) walk(ctx context.Context) ([]cms.ListPost, error) {
	page, err := c.source.ListPosts(ctx, feedPageSize)
	if err != nil {
		return nil, err
	}
	posts := append([]cms.ListPost{}, page.Results...)
	for n := 1; page.NextPage != ""; n++ {
		if n >= maxFeedPages {
			return nil, fmt.Errorf("list all posts: more than %d pages", maxFeedPages)
		}
		if page, err = c.source.NextPosts(ctx, page.NextPage); err != nil {
			return nil, err
		}
		posts = append(posts, page.Results...)
	}
	return posts, nil
}

func copyPagination(p cms.PostPagination) cms.PostPagination {
	results := make([]cms.ListPost, len(p.Results))
	copy(results, p.Results)
	return cms.PostPagination{NextPage: p.NextPage, Results: results}
}
