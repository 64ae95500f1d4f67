package views

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/folio/cms"
	"github.com/eringen/folio/richtext"
)

var bodyRenderer = richtext.NewRenderer(richtext.WithEmoji())

// Post is the full post page in any of its states.
func Post(site SiteConfig, slug string, state PostState) templ.Component {
	meta := PageMeta{
		Title:  site.Name,
		URL:    buildURL(site.URL, "post", slug),
		OGType: "article",
	}
	if state.Status == PostReady {
		p := state.Post
		meta.Title = p.Data.Title + " | " + site.Name
		meta.Description = postDescription(p)
		meta.Image = p.Data.Banner.URL
		meta.JSONLD = BlogPostingJsonLD(site, p)
	}
	return Layout(site, meta, PostBody(site, slug, state))
}

const descriptionLimit = 160

// postDescription is the subtitle, or the opening text of the body for posts
// without one, cut at descriptionLimit runes.
func postDescription(p cms.Post) string {
	if p.Data.Subtitle != "" {
		return p.Data.Subtitle
	}
	for _, g := range p.Data.Content {
		text := strings.Join(strings.Fields(richtext.AsText(g.Body)), " ")
		if text == "" {
			continue
		}
		runes := []rune(text)
		if len(runes) > descriptionLimit {
			return strings.TrimSpace(string(runes[:descriptionLimit-1])) + "…"
		}
		return text
	}
	return ""
}

// PostPartial is the #post fragment swapped into the loading shell. Ready
// fragments carry a <title> so htmx updates the document title.
func PostPartial(site SiteConfig, slug string, state PostState) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		if state.Status == PostReady {
			h.raw(`<title>`)
			h.text(state.Post.Data.Title + " | " + site.Name)
			h.raw(`</title>`)
		}
		h.component(PostBody(site, slug, state))
		return h.err
	})
}

// PostBody renders the #post element for state.
func PostBody(site SiteConfig, slug string, state PostState) templ.Component {
	switch state.Status {
	case PostReady:
		return postReady(site, state.Post, state.ReadMinutes)
	case PostNotFound:
		return postNotFound(site, state.Upstream)
	default:
		return postLoading(site, slug)
	}
}

func postLoading(site SiteConfig, slug string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.raw(`<div id="post" class="post-loading"`)
		h.attr("hx-get", PostPath(slug)+"?partial=post")
		h.raw(` hx-trigger="load" hx-swap="outerHTML"><p>`)
		h.text(LabelsFor(site.Locale).Loading)
		h.raw(`</p></div>`)
		return h.err
	})
}

func postNotFound(site SiteConfig, upstream bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		l := LabelsFor(site.Locale)
		reason := "not-found"
		if upstream {
			reason = "upstream"
		}
		h.raw(`<div id="post" class="post-error"`)
		h.attr("data-reason", reason)
		h.raw(`><h1>`)
		h.text(l.Error)
		h.raw(`</h1><a href="/">`)
		h.text(l.BackHome)
		h.raw(`</a></div>`)
		return h.err
	})
}

func postReady(site SiteConfig, p cms.Post, readMinutes int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.raw(`<div id="post">`)
		if p.Data.Banner.URL != "" {
			h.raw(`<img class="banner"`)
			h.urlAttr("src", p.Data.Banner.URL)
			h.raw(` alt="banner">`)
		}
		h.raw(`<article class="post"><h1>`)
		h.text(p.Data.Title)
		h.raw(`</h1><ul class="info">`)
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
		h.raw(`<li class="read-time">`)
		h.text(ReadTime(readMinutes, site.Locale))
		h.raw(`</li></ul>`)
		for _, g := range p.Data.Content {
			h.raw(`<section><h2>`)
			h.text(g.Heading)
			h.raw(`</h2><div class="post-content">`)
			h.component(bodyRenderer.Component(g.Body))
			h.raw(`</div></section>`)
		}
		h.raw(`</article></div>`)
		return h.err
	})
}
