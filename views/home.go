package views

import (
	"context"
	"encoding/json"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/folio/cms"
)

// Home is the listing page: the first posts followed by the load-more
// control when there is a next page.
func Home(site SiteConfig, posts []cms.ListPost, hasMore bool, control LoadMoreControl) templ.Component {
	meta := PageMeta{
		Title:       site.Name,
		Description: site.Description,
		URL:         buildURL(site.URL),
		OGType:      "website",
		JSONLD:      WebsiteJsonLD(site),
	}
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.raw(`<div class="posts">`)
		h.component(MorePosts(site, posts, hasMore, control))
		h.raw(`</div>`)
		return h.err
	})
	return Layout(site, meta, body)
}

// MorePosts renders cards followed by the load-more control. It is also the
// response to a load-more request, which replaces the old control.
func MorePosts(site SiteConfig, posts []cms.ListPost, hasMore bool, control LoadMoreControl) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		for _, p := range posts {
			h.component(PostCard(site, p))
		}
		if hasMore {
			h.component(LoadMore(site, control))
		}
		return h.err
	})
}

// PostCard is one entry of the listing.
func PostCard(site SiteConfig, p cms.ListPost) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.raw(`<article class="post-card"><a`)
		h.attr("href", PostPath(p.UID))
		h.raw(`><strong>`)
		h.text(p.Data.Title)
		h.raw(`</strong>`)
		if p.Data.Subtitle != "" {
			h.raw(`<p>`)
			h.text(p.Data.Subtitle)
			h.raw(`</p>`)
		}
		h.raw(`<ul class="info">`)
		if p.FirstPublicationDate != nil {
			h.raw(`<li><time`)
			h.attr("datetime", p.FirstPublicationDate.Format("2006-01-02"))
			h.raw(`>`)
			h.text(FormatDate(p.FirstPublicationDate, site.Locale))
			h.raw(`</time></li>`)
		}
		if p.Data.Author != "" {
			h.raw(`<li class="author">`)
			h.text(p.Data.Author)
			h.raw(`</li>`)
		}
		h.raw(`</ul></a></article>`)
		return h.err
	})
}

// LoadMore is the control that asks for the next page of this page view's
// listing. htmx swaps the response in place of the control.
func LoadMore(site SiteConfig, control LoadMoreControl) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.raw(`<div id="load-more" class="load-more"><button type="button" hx-post="/more/" hx-target="#load-more" hx-swap="outerHTML" hx-disabled-elt="this"`)
		if control.ListingID != "" {
			vals, _ := json.Marshal(map[string]string{ListingParam: control.ListingID})
			h.attr("hx-vals", string(vals))
		}
		if control.CSRFToken != "" {
			headers, _ := json.Marshal(map[string]string{"X-CSRF-Token": control.CSRFToken})
			h.attr("hx-headers", string(headers))
		}
		h.raw(`>`)
		h.text(LabelsFor(site.Locale).LoadMore)
		h.raw(`</button></div>`)
		return h.err
	})
}
