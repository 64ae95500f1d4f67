package views

import "github.com/eringen/folio/cms"

// SiteConfig holds the site-wide settings templates need. Every handler
// passes it through so nothing is hardcoded.
type SiteConfig struct {
	Name        string // SITE_NAME
	URL         string // SITE_URL, no trailing slash
	Description string // SITE_DESCRIPTION
	Author      string // SITE_AUTHOR
	Locale      string // SITE_LOCALE, "pt-BR" or "en"
	HTMXURL     string // HTMX_URL
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string // og:image, optional
	JSONLD      string // structured data, optional
}

// PostStatus is the resolution state of a post page.
type PostStatus int

const (
	// PostLoading: the page is not stored yet and is being resolved.
	PostLoading PostStatus = iota
	// PostNotFound: no such post, or the CMS could not be reached.
	PostNotFound
	// PostReady: the post is available.
	PostReady
)

// PostState is what a post page shows. Post and ReadMinutes are set only
// when Status is PostReady; Upstream only when it is PostNotFound.
type PostState struct {
	Status      PostStatus
	Post        cms.Post
	ReadMinutes int
	Upstream    bool // the CMS failed, as opposed to not knowing the post
}

func LoadingState() PostState {
	return PostState{Status: PostLoading}
}

func NotFoundState(upstream bool) PostState {
	return PostState{Status: PostNotFound, Upstream: upstream}
}

func ReadyState(post cms.Post, readMinutes int) PostState {
	return PostState{Status: PostReady, Post: post, ReadMinutes: readMinutes}
}

// ListingParam is the form field that names the listing a load-more request
// continues.
const ListingParam = "listing"

// LoadMoreControl carries what the load-more button sends back: the listing
// of this page view and the CSRF token.
type LoadMoreControl struct {
	ListingID string
	CSRFToken string
}
