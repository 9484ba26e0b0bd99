package pipeline

import (
	"regexp"
	"strings"
)

// normalizeRule is one substitution step, applied in order.
type normalizeRule struct {
	pattern     *regexp.Regexp
	replacement string
}

// NewTextNormalizer creates a normalizer that cleans raw extracted text.
// It collapses blank line runs and space runs, strips control characters,
// removes spaces before punctuation, strips URLs and mail addresses, drops
// lines that hold nothing but a page number and trims the result.
func NewTextNormalizer() NormalizeFunc {
	rules := []normalizeRule{
		{pattern: regexp.MustCompile(`\n\n+`), replacement: "\n"},
		{pattern: regexp.MustCompile(`[ \t]+`), replacement: " "},
		{pattern: regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F-\x9F]`), replacement: ""},
		{pattern: regexp.MustCompile(` +([.,;:!?])`), replacement: "$1"},
		{pattern: regexp.MustCompile(`http[s]?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\\(\\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`), replacement: ""},
		{pattern: regexp.MustCompile(`\S+@\S+`), replacement: ""},
		{pattern: regexp.MustCompile(`(?m)^\s*\d+\s*$`), replacement: ""},
	}

	return func(text string) string {
		for _, rule := range rules {
			text = rule.pattern.ReplaceAllString(text, rule.replacement)
		}
		return strings.TrimSpace(text)
	}
}
