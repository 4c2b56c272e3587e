// Package textclean strips markup and whitespace noise from extracted article text.
package textclean

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"news_spider/internal/models"
)

// Whitespace classes include \p{Z} so a no-break space separates words
// the way it does in running text.
var (
	reTag            = regexp.MustCompile(`<[^>]+>`)
	reURL            = regexp.MustCompile(`https?://[^\s\v\p{Z}]+|www\.[^\s\v\p{Z}]+`)
	reTrailingSpace  = regexp.MustCompile(`[ \t]+\n`)
	reLeadingSpace   = regexp.MustCompile(`\n[ \t]+`)
	reBlankLines     = regexp.MustCompile(`[\s\v\p{Z}]+\n`)
	reNewlines       = regexp.MustCompile(`\n+`)
	reHorizontalRuns = regexp.MustCompile(`[ \t]+`)
)

// Normalize applies the cleaning chain in order and caps the result at
// models.MaxDescriptionLength runes. Overflow is dropped silently.
func Normalize(raw string) string {
	text := reTag.ReplaceAllString(raw, "")
	text = reURL.ReplaceAllString(text, "")
	text = reTrailingSpace.ReplaceAllString(text, "\n")
	text = reLeadingSpace.ReplaceAllString(text, "\n")
	text = reBlankLines.ReplaceAllString(text, "\n")
	text = reNewlines.ReplaceAllString(text, "\n")
	text = reHorizontalRuns.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	return Truncate(text, models.MaxDescriptionLength)
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n < 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Length counts runes, the unit all length limits are expressed in.
func Length(s string) int {
	return utf8.RuneCountInString(s)
}
