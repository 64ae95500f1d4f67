package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

func NotFound(site SiteConfig) templ.Component {
	return errorPage(site, "404", LabelsFor(site.Locale).NotFound)
}

func ServerError(site SiteConfig) templ.Component {
	return errorPage(site, "500", LabelsFor(site.Locale).ServerError)
}

func errorPage(site SiteConfig, code, message string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.raw(`<div class="error-page"><h1>`)
		h.text(code)
		h.raw(`</h1><p>`)
		h.text(message)
		h.raw(`</p><a href="/">`)
		h.text(LabelsFor(site.Locale).BackHome)
		h.raw(`</a></div>`)
		return h.err
	})
	return Layout(site, PageMeta{Title: message + " | " + site.Name}, body)
}
