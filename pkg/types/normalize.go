package types

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// foldCaser applies Unicode case folding for caseless comparison.
var foldCaser = cases.Fold()

// wikiMarkup lists tracker wiki constructs stripped before summary
// comparison: headings, emphasis, monospace, links, images, list
// bullets, forced line breaks, and leftover brackets. Source summaries
// carry this markup; target summaries come back as plain text.
var wikiMarkup = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`h[1-6]\.\s*`), ""},
	{regexp.MustCompile(`\*(.*?)\*`), "$1"},
	{regexp.MustCompile(`_(.*?)_`), "$1"},
	{regexp.MustCompile(`\{\{(.*?)\}\}`), "$1"},
	{regexp.MustCompile(`\[(.*?)\|(.*?)\]`), "$1"},
	{regexp.MustCompile(`!(.*?)!`), ""},
	{regexp.MustCompile(`(?m)^[*#\-]+ `), ""},
	{regexp.MustCompile(`\\\\`), "\n"},
	{regexp.MustCompile(`[\[\]]`), ""},
}

// StripWikiMarkup removes tracker wiki markup from text, leaving the
// plain content.
func StripWikiMarkup(text string) string {
	for _, m := range wikiMarkup {
		text = m.re.ReplaceAllString(text, m.repl)
	}
	return strings.TrimSpace(text)
}

// NormalizeSummary returns the markup-stripped, case-folded,
// whitespace-collapsed form of a summary, used for exact-match
// comparison against the target index. Normalizing identical text
// always yields identical output.
func NormalizeSummary(s string) string {
	return strings.Join(strings.Fields(foldCaser.String(StripWikiMarkup(s))), " ")
}
