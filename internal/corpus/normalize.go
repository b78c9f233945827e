package corpus

import (
	"html"
	"regexp"
	"strings"
)

var (
	urlPattern         = regexp.MustCompile(`https?://[^\s]+`)
	punctuationPattern = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

// cleanText unescapes HTML entities, strips URLs and punctuation, and
// squeezes runs of whitespace into single spaces. Word content and word
// order are preserved.
func cleanText(input string) string {
	if input == "" {
		return ""
	}
	decoded := html.UnescapeString(input)
	decoded = urlPattern.ReplaceAllString(decoded, " ")
	decoded = punctuationPattern.ReplaceAllString(decoded, " ")
	decoded = whitespacePattern.ReplaceAllString(decoded, " ")
	return strings.TrimSpace(decoded)
}

// cleanTitle unescapes and trims a title without touching its punctuation.
func cleanTitle(input string) string {
	return strings.TrimSpace(html.UnescapeString(input))
}
