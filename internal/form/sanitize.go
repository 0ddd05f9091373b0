package form

import (
	"regexp"
	"strings"
)

// MaxInputRunes is the hard cap applied to any free-text field.
const MaxInputRunes = 10000

var (
	tagPattern = regexp.MustCompile(`</?[A-Za-z][^>]*>`)

	escaper = strings.NewReplacer(
		"<", "&lt;",
		">", "&gt;",
		"'", "&#39;",
		`"`, "&quot;",
	)
)

// Sanitize neutralises markup in user input: NUL bytes and tag-shaped markup
// are removed, every remaining < > ' " is escaped, the result is cut to
// MaxInputRunes and trimmed. Stray comparison signs survive as entities.
// Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	s = tagPattern.ReplaceAllString(s, "")
	s = escaper.Replace(s)
	s = truncateRunes(s, MaxInputRunes)
	return strings.TrimSpace(s)
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
