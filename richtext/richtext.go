// Package richtext renders structured rich-text blocks delivered by the
// content API as HTML templ components.
package richtext

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/kyokomi/emoji"
	"github.com/microcosm-cc/bluemonday"
)

// Block is a single rich-text element: a paragraph, heading, list item,
// preformatted text, image or embed.
type Block struct {
	Type       string      `json:"type"`
	Text       string      `json:"text"`
	Spans      []Span      `json:"spans,omitempty"`
	URL        string      `json:"url,omitempty"`
	Alt        string      `json:"alt,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
	OEmbed     *OEmbed     `json:"oembed,omitempty"`
}

// Span marks an inline range of a block's text. Start and End are rune
// offsets, End exclusive.
type Span struct {
	Start int       `json:"start"`
	End   int       `json:"end"`
	Type  string    `json:"type"`
	Data  *SpanData `json:"data,omitempty"`
}

// SpanData carries hyperlink targets and label names.
type SpanData struct {
	LinkType string `json:"link_type,omitempty"`
	URL      string `json:"url,omitempty"`
	Target   string `json:"target,omitempty"`
	Label    string `json:"label,omitempty"`
}

type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type OEmbed struct {
	Type     string `json:"type"`
	EmbedURL string `json:"embed_url"`
	HTML     string `json:"html"`
}

// Block types.
const (
	TypeParagraph    = "paragraph"
	TypePreformatted = "preformatted"
	TypeListItem     = "list-item"
	TypeOListItem    = "o-list-item"
	TypeImage        = "image"
	TypeEmbed        = "embed"
)

// Span types.
const (
	SpanStrong    = "strong"
	SpanEm        = "em"
	SpanHyperlink = "hyperlink"
	SpanLabel     = "label"
)

var (
	reHeading   = regexp.MustCompile(`^heading([1-6])$`)
	reClassName = regexp.MustCompile(`^[a-zA-Z0-9 _-]+$`)
	reHTTPS     = regexp.MustCompile(`^https://`)
)

// Renderer turns blocks into sanitized HTML.
type Renderer struct {
	policy *bluemonday.Policy
	emoji  bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithEmoji expands :shortcode: emoji in text segments.
func WithEmoji() Option {
	return func(r *Renderer) {
		r.emoji = true
	}
}

// NewRenderer creates a Renderer with the default sanitizing policy.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{policy: newPolicy()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(reClassName).OnElements("p", "pre", "span")
	p.AllowAttrs("data-oembed", "data-oembed-type").OnElements("div")
	p.AllowElements("iframe")
	p.AllowAttrs("src").Matching(reHTTPS).OnElements("iframe")
	p.AllowAttrs("width", "height", "frameborder", "allow", "allowfullscreen", "title").OnElements("iframe")
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

var defaultRenderer = NewRenderer()

// Render returns a templ.Component that renders blocks with the default renderer.
func Render(blocks []Block) templ.Component {
	return defaultRenderer.Component(blocks)
}

// Component returns a templ.Component that writes the sanitized HTML of blocks.
func (r *Renderer) Component(blocks []Block) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, r.HTML(blocks))
		return err
	})
}

// HTML renders blocks and sanitizes the result.
func (r *Renderer) HTML(blocks []Block) string {
	var buf bytes.Buffer
	r.renderBlocks(&buf, blocks)
	return r.policy.Sanitize(buf.String())
}

func (r *Renderer) renderBlocks(buf *bytes.Buffer, blocks []Block) {
	inList := false
	inOrderedList := false

	flushList := func() {
		if inList {
			buf.WriteString("</ul>")
			inList = false
		}
	}
	flushOrderedList := func() {
		if inOrderedList {
			buf.WriteString("</ol>")
			inOrderedList = false
		}
	}

	for _, b := range blocks {
		switch b.Type {
		case TypeListItem:
			flushOrderedList()
			if !inList {
				buf.WriteString("<ul>")
				inList = true
			}
			buf.WriteString("<li>")
			buf.WriteString(r.formatSpans(b.Text, b.Spans))
			buf.WriteString("</li>")
			continue
		case TypeOListItem:
			flushList()
			if !inOrderedList {
				buf.WriteString("<ol>")
				inOrderedList = true
			}
			buf.WriteString("<li>")
			buf.WriteString(r.formatSpans(b.Text, b.Spans))
			buf.WriteString("</li>")
			continue
		}

		flushList()
		flushOrderedList()

		switch {
		case b.Type == TypeParagraph:
			buf.WriteString("<p>")
			buf.WriteString(r.formatSpans(b.Text, b.Spans))
			buf.WriteString("</p>")
		case b.Type == TypePreformatted:
			buf.WriteString("<pre>")
			buf.WriteString(r.formatSpans(b.Text, b.Spans))
			buf.WriteString("</pre>")
		case b.Type == TypeImage:
			src := SafeURL(b.URL)
			if src == "" {
				continue
			}
			buf.WriteString(`<p class="block-img"><img src="` + src + `" alt="` + html.EscapeString(b.Alt) + `"`)
			if b.Dimensions != nil && b.Dimensions.Width > 0 && b.Dimensions.Height > 0 {
				buf.WriteString(` width="` + strconv.Itoa(b.Dimensions.Width) + `" height="` + strconv.Itoa(b.Dimensions.Height) + `"`)
			}
			buf.WriteString(` loading="lazy"/></p>`)
		case b.Type == TypeEmbed:
			if b.OEmbed == nil {
				continue
			}
			buf.WriteString(`<div data-oembed="` + SafeURL(b.OEmbed.EmbedURL) + `" data-oembed-type="` + html.EscapeString(b.OEmbed.Type) + `">`)
			buf.WriteString(b.OEmbed.HTML)
			buf.WriteString("</div>")
		case reHeading.MatchString(b.Type):
			level := reHeading.FindStringSubmatch(b.Type)[1]
			buf.WriteString("<h" + level + ">")
			buf.WriteString(r.formatSpans(b.Text, b.Spans))
			buf.WriteString("</h" + level + ">")
		}
	}
	flushList()
	flushOrderedList()
}

// formatSpans renders text with its inline spans applied. Overlapping spans
// are closed and reopened so the output stays well nested.
func (r *Renderer) formatSpans(text string, spans []Span) string {
	runes := []rune(text)
	n := len(runes)

	var valid []Span
	for _, s := range spans {
		if s.Start < 0 {
			s.Start = 0
		}
		if s.End > n {
			s.End = n
		}
		if s.Start >= s.End {
			continue
		}
		valid = append(valid, s)
	}

	points := map[int]struct{}{0: {}, n: {}}
	for _, s := range valid {
		points[s.Start] = struct{}{}
		points[s.End] = struct{}{}
	}
	boundaries := make([]int, 0, len(points))
	for p := range points {
		boundaries = append(boundaries, p)
	}
	sort.Ints(boundaries)

	var b strings.Builder
	var open []Span

	closeAt := func(pos int) {
		k := -1
		for i, s := range open {
			if s.End == pos {
				k = i
				break
			}
		}
		if k < 0 {
			return
		}
		var reopen []Span
		for j := len(open) - 1; j >= k; j-- {
			b.WriteString(closeTag(open[j]))
		}
		for _, s := range open[k+1:] {
			if s.End > pos {
				reopen = append(reopen, s)
			}
		}
		open = open[:k]
		for _, s := range reopen {
			b.WriteString(openTag(s))
			open = append(open, s)
		}
	}

	for i, pos := range boundaries {
		closeAt(pos)

		var starting []Span
		for _, s := range valid {
			if s.Start == pos {
				starting = append(starting, s)
			}
		}
		sort.SliceStable(starting, func(a, c int) bool {
			return starting[a].End > starting[c].End
		})
		for _, s := range starting {
			b.WriteString(openTag(s))
			open = append(open, s)
		}

		if i+1 < len(boundaries) {
			b.WriteString(r.formatText(string(runes[pos:boundaries[i+1]])))
		}
	}
	return b.String()
}

func (r *Renderer) formatText(s string) string {
	escaped := strings.ReplaceAll(html.EscapeString(s), "\n", "<br/>")
	if r.emoji {
		escaped = emoji.Sprint(escaped)
	}
	return escaped
}

func openTag(s Span) string {
	switch s.Type {
	case SpanStrong:
		return "<strong>"
	case SpanEm:
		return "<em>"
	case SpanHyperlink:
		href := ""
		if s.Data != nil {
			href = SafeURL(s.Data.URL)
		}
		return `<a href="` + href + `">`
	case SpanLabel:
		label := ""
		if s.Data != nil {
			label = html.EscapeString(s.Data.Label)
		}
		return `<span class="` + label + `">`
	default:
		return "<span>"
	}
}

func closeTag(s Span) string {
	switch s.Type {
	case SpanStrong:
		return "</strong>"
	case SpanEm:
		return "</em>"
	case SpanHyperlink:
		return "</a>"
	default:
		return "</span>"
	}
}

// AsText joins the plain text of every block with a single space.
func AsText(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, " ")
}

// SafeURL validates and sanitizes a URL for use in HTML attributes.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
