package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Layout wraps body in the full HTML document with head metadata and the
// site header.
func Layout(site SiteConfig, meta PageMeta, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		title := meta.Title
		if title == "" {
			title = site.Name
		}
		lang := site.Locale
		if lang == "" {
			lang = "pt-BR"
		}

		h.raw(`<!DOCTYPE html><html`)
		h.attr("lang", lang)
		h.raw(`><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>`)
		h.text(title)
		h.raw(`</title>`)
		if meta.Description != "" {
			h.raw(`<meta name="description"`)
			h.attr("content", meta.Description)
			h.raw(`>`)
		}
		if meta.URL != "" {
			h.raw(`<link rel="canonical"`)
			h.urlAttr("href", meta.URL)
			h.raw(`><meta property="og:url"`)
			h.attr("content", meta.URL)
			h.raw(`>`)
		}
		h.raw(`<meta property="og:title"`)
		h.attr("content", title)
		h.raw(`><meta property="og:type"`)
		h.attr("content", ogType(meta.OGType))
		h.raw(`><meta property="og:site_name"`)
		h.attr("content", site.Name)
		h.raw(`>`)
		if meta.Image != "" {
			h.raw(`<meta property="og:image"`)
			h.attr("content", meta.Image)
			h.raw(`>`)
		}
		h.raw(`<link rel="alternate" type="application/rss+xml" href="/feed.xml"`)
		h.attr("title", site.Name)
		h.raw(`><link rel="alternate" type="application/atom+xml" href="/atom.xml"`)
		h.attr("title", site.Name)
		h.raw(`><link rel="stylesheet" href="/public/styles.css">`)
		if site.HTMXURL != "" {
			h.raw(`<script defer`)
			h.urlAttr("src", site.HTMXURL)
			h.raw(`></script>`)
		}
		if meta.JSONLD != "" {
			// json.Marshal escapes <, > and &, so the block cannot close the script.
			h.raw(`<script type="application/ld+json">`, meta.JSONLD, `</script>`)
		}
		h.raw(`</head><body>`)
		h.component(Header())
		h.raw(`<main class="container">`)
		h.component(body)
		h.raw(`</main></body></html>`)
		return h.err
	})
}

// Header is the site header: the logo, linking home.
func Header() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<header class="header"><a href="/"><img src="/public/logo.svg" alt="logo"></a></header>`)
		return err
	})
}

func ogType(t string) string {
	if t == "" {
		return "website"
	}
	return t
}
