package form

import (
	"regexp"
	"strings"
)

const (
	maxRepeatedRune = 10
	maxURLs         = 3
)

var spamKeywords = []string{
	"viagra",
	"cialis",
	"casino",
	"lottery",
	"bitcoin",
	"crypto",
	"forex",
	"porn",
	"xxx",
	"payday loan",
	"click here",
	"buy now",
	"seo services",
}

var urlPattern = regexp.MustCompile(`(?i)https?://\S+`)

// Suspicious reports whether text looks like spam: a denylisted keyword, a
// character repeated more than ten times in a row, or more than three links.
func Suspicious(text string) bool {
	if text == "" {
		return false
	}

	lower := strings.ToLower(text)
	for _, kw := range spamKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}

	if longestRun(text) > maxRepeatedRune {
		return true
	}

	return len(urlPattern.FindAllStringIndex(text, maxURLs+1)) > maxURLs
}

func longestRun(s string) int {
	var (
		prev    rune
		run     int
		longest int
	)
	for i, r := range s {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		prev = r
		if run > longest {
			longest = run
		}
	}
	return longest
}
