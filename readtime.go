package folio

import (
	"strings"

	"github.com/eringen/folio/cms"
)

const wordsPerMinute = 200

// EstimateReadMinutes returns the whole minutes needed to read a post at 200
// words per minute, rounded up. Words are counted by splitting each heading
// and each block's text on a single space, so an empty string counts as one
// word and runs of spaces count the empty words between them.
func EstimateReadMinutes(groups []cms.ContentGroup) int {
	words := 0
	for _, g := range groups {
		words += countWords(g.Heading)
		for _, b := range g.Body {
			words += countWords(b.Text)
		}
	}
	return (words + wordsPerMinute - 1) / wordsPerMinute
}

func countWords(s string) int {
	return len(strings.Split(s, " "))
}
