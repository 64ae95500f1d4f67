package richtext

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestFormatSpans(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		spans    []Span
		expected string
	}{
		{"plain", "hello world", nil, "hello world"},
		{"strong", "hello world", []Span{{Start: 0, End: 5, Type: SpanStrong}}, "<strong>hello</strong> world"},
		{"em at end", "hello world", []Span{{Start: 6, End: 11, Type: SpanEm}}, "hello <em>world</em>"},
		{"nested", "abcdef", []Span{
			{Start: 0, End: 6, Type: SpanStrong},
			{Start: 2, End: 4, Type: SpanEm},
		}, "<strong>ab<em>cd</em>ef</strong>"},
		{"overlapping", "abcdef", []Span{
			{Start: 0, End: 4, Type: SpanStrong},
			{Start: 2, End: 6, Type: SpanEm},
		}, "<strong>ab<em>cd</em></strong><em>ef</em>"},
		{"escapes html", "<b>&", nil, "&lt;b&gt;&amp;"},
		{"newline", "a\nb", nil, "a<br/>b"},
		{"out of range span clamped", "abc", []Span{{Start: 1, End: 99, Type: SpanEm}}, "a<em>bc</em>"},
		{"empty span ignored", "abc", []Span{{Start: 2, End: 2, Type: SpanEm}}, "abc"},
		{"multibyte offsets", "ção é", []Span{{Start: 0, End: 3, Type: SpanStrong}}, "<strong>ção</strong> é"},
	}
	for _, tt := range tests {
		got := defaultRenderer.formatSpans(tt.text, tt.spans)
		if got != tt.expected {
			t.Errorf("%s: formatSpans(%q) = %q, want %q", tt.name, tt.text, got, tt.expected)
		}
	}
}

func TestFormatSpansHyperlink(t *testing.T) {
	got := defaultRenderer.formatSpans("see docs", []Span{{
		Start: 4, End: 8, Type: SpanHyperlink,
		Data: &SpanData{LinkType: "Web", URL: "https://example.com/docs"},
	}})
	want := `see <a href="https://example.com/docs">docs</a>`
	if got != want {
		t.Errorf("formatSpans = %q, want %q", got, want)
	}
}

func TestFormatSpansUnsafeLink(t *testing.T) {
	got := defaultRenderer.formatSpans("click", []Span{{
		Start: 0, End: 5, Type: SpanHyperlink,
		Data: &SpanData{URL: "javascript:alert(1)"},
	}})
	if strings.Contains(got, "javascript") {
		t.Errorf("formatSpans = %q, should drop javascript URL", got)
	}
}

func TestHTMLBlocks(t *testing.T) {
	blocks := []Block{
		{Type: "heading2", Text: "Title"},
		{Type: TypeParagraph, Text: "First paragraph"},
		{Type: TypeListItem, Text: "one"},
		{Type: TypeListItem, Text: "two"},
		{Type: TypeOListItem, Text: "first"},
		{Type: TypePreformatted, Text: "x := 1"},
	}
	got := NewRenderer().HTML(blocks)
	for _, want := range []string{
		"<h2>Title</h2>",
		"<p>First paragraph</p>",
		"<ul><li>one</li><li>two</li></ul>",
		"<ol><li>first</li></ol>",
		"<pre>x := 1</pre>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("HTML() = %q, missing %q", got, want)
		}
	}
}

func TestHTMLImage(t *testing.T) {
	got := NewRenderer().HTML([]Block{{
		Type:       TypeImage,
		URL:        "https://images.example.com/a.png",
		Alt:        "diagram",
		Dimensions: &Dimensions{Width: 640, Height: 480},
	}})
	if !strings.Contains(got, `src="https://images.example.com/a.png"`) {
		t.Errorf("HTML() = %q, missing image src", got)
	}
	if !strings.Contains(got, `alt="diagram"`) {
		t.Errorf("HTML() = %q, missing alt", got)
	}
}

func TestHTMLSanitizesEmbed(t *testing.T) {
	got := NewRenderer().HTML([]Block{{
		Type: TypeEmbed,
		OEmbed: &OEmbed{
			Type:     "video",
			EmbedURL: "https://video.example.com/watch?v=1",
			HTML:     `<iframe src="https://video.example.com/embed/1"></iframe><script>alert(1)</script>`,
		},
	}})
	if strings.Contains(got, "<script>") {
		t.Errorf("HTML() = %q, script should be stripped", got)
	}
	if !strings.Contains(got, "<iframe") {
		t.Errorf("HTML() = %q, iframe should be kept", got)
	}
}

func TestHTMLSkipsUnknownBlocks(t *testing.T) {
	got := NewRenderer().HTML([]Block{{Type: "mystery", Text: "nope"}})
	if got != "" {
		t.Errorf("HTML() = %q, want empty", got)
	}
}

func TestRenderComponent(t *testing.T) {
	var buf bytes.Buffer
	if err := Render([]Block{{Type: TypeParagraph, Text: "hi"}}).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if buf.String() != "<p>hi</p>" {
		t.Errorf("Render = %q, want %q", buf.String(), "<p>hi</p>")
	}
}

func TestAsText(t *testing.T) {
	got := AsText([]Block{
		{Type: TypeParagraph, Text: "one two"},
		{Type: TypeImage, URL: "https://example.com/x.png"},
		{Type: TypeParagraph, Text: "three"},
	})
	if got != "one two three" {
		t.Errorf("AsText = %q, want %q", got, "one two three")
	}
}

func TestSafeURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://example.com", "https://example.com"},
		{"/relative/path", "/relative/path"},
		{"#anchor", "#anchor"},
		{"mailto:me@example.com", "mailto:me@example.com"},
		{"javascript:alert(1)", ""},
		{"no-scheme", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SafeURL(tt.input); got != tt.expected {
			t.Errorf("SafeURL(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestEmojiOption(t *testing.T) {
	got := NewRenderer(WithEmoji()).formatSpans("ship it :rocket:", nil)
	if strings.Contains(got, ":rocket:") {
		t.Errorf("formatSpans = %q, shortcode should be expanded", got)
	}
	plain := NewRenderer().formatSpans("ship it :rocket:", nil)
	if !strings.Contains(plain, ":rocket:") {
		t.Errorf("formatSpans = %q, shortcode should be kept without WithEmoji", plain)
	}
}
