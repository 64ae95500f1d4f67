package views

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/folio/cms"
)

// Labels are the user-facing strings of one locale.
type Labels struct {
	LoadMore      string
	Loading       string
	Error         string
	NotFound      string
	ServerError   string
	BackHome      string
	MinutesSuffix string
	Months        [12]string
}

var labels = map[string]Labels{
	"pt-BR": {
		LoadMore:      "Carregar mais posts",
		Loading:       "Carregando...",
		Error:         "Erro",
		NotFound:      "Post não encontrado",
		ServerError:   "Algo deu errado",
		BackHome:      "Voltar para o início",
		MinutesSuffix: "min",
		Months:        [12]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"},
	},
	"en": {
		LoadMore:      "Load more posts",
		Loading:       "Loading...",
		Error:         "Error",
		NotFound:      "Post not found",
		ServerError:   "Something went wrong",
		BackHome:      "Back to home",
		MinutesSuffix: "min",
		Months:        [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	},
}

// LabelsFor returns the labels of locale, falling back to pt-BR.
func LabelsFor(locale string) Labels {
	if l, ok := labels[locale]; ok {
		return l
	}
	if strings.HasPrefix(strings.ToLower(locale), "en") {
		return labels["en"]
	}
	return labels["pt-BR"]
}

// FormatDate renders t as "d MMM yyyy" in locale, e.g. "25 mar 2021".
// A nil time renders as "".
func FormatDate(t *time.Time, locale string) string {
	if t == nil {
		return ""
	}
	month := LabelsFor(locale).Months[t.Month()-1]
	return strconv.Itoa(t.Day()) + " " + month + " " + strconv.Itoa(t.Year())
}

// ReadTime renders the estimated reading time, e.g. "4 min".
func ReadTime(minutes int, locale string) string {
	return strconv.Itoa(minutes) + " " + LabelsFor(locale).MinutesSuffix
}

// PostPath is the site path of a post page.
func PostPath(uid string) string {
	return "/post/" + url.PathEscape(uid) + "/"
}

// buildURL joins path segments onto a base URL, ensuring a trailing slash.
func buildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block using cfg values.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     cfg.Name,
		"url":      buildURL(cfg.URL),
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// BlogPostingJsonLD produces a Schema.org BlogPosting JSON-LD block for a post.
func BlogPostingJsonLD(cfg SiteConfig, post cms.Post) string {
	postURL := buildURL(cfg.URL, "post", post.UID)
	data := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "BlogPosting",
		"headline":    post.Data.Title,
		"description": post.Data.Subtitle,
		"url":         postURL,
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if post.FirstPublicationDate != nil {
		data["datePublished"] = post.FirstPublicationDate.Format(time.RFC3339)
	}
	if author := post.Data.Author; author != "" {
		data["author"] = map[string]string{"@type": "Person", "name": author}
	} else if cfg.Author != "" {
		data["author"] = map[string]string{"@type": "Person", "name": cfg.Author}
	}
	if post.Data.Banner.URL != "" {
		data["image"] = post.Data.Banner.URL
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// htmlWriter writes markup and keeps the first write error.
type htmlWriter struct {
	ctx context.Context
	w   io.Writer
	err error
}

func newHTMLWriter(ctx context.Context, w io.Writer) *htmlWriter {
	return &htmlWriter{ctx: ctx, w: w}
}

func (h *htmlWriter) raw(parts ...string) {
	for _, s := range parts {
		if h.err != nil {
			return
		}
		_, h.err = io.WriteString(h.w, s)
	}
}

// text writes escaped text content.
func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

// attr writes ` name="value"` with value escaped.
func (h *htmlWriter) attr(name, value string) {
	h.raw(" ", name, `="`, templ.EscapeString(value), `"`)
}

// urlAttr writes a URL attribute, replacing unsafe schemes.
func (h *htmlWriter) urlAttr(name, value string) {
	h.attr(name, string(templ.URL(value)))
}

func (h *htmlWriter) component(c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(h.ctx, h.w)
}
