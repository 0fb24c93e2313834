package matcher

import (
	"regexp"
	"strings"
)

// lineBreakPattern matches raw newlines and the markup Anki stores in their place.
var lineBreakPattern = regexp.MustCompile(`(?i)\r\n|\r|\n|<br\s*/?>|</div>|</p>`)

func isSeparator(r rune) bool {
	return r == ',' || r == '/'
}

// Tokenize splits a flashcard field into normalized word tokens, in order of appearance.
//
// The raw field is split on line breaks before normalization, because
// normalization collapses newlines into spaces and would merge separate entries.
// Each normalized line is then split on commas and slashes.
func (n *Normalizer) Tokenize(field string) []string {
	var tokens []string
	for _, line := range lineBreakPattern.Split(field, -1) {
		normalized := n.Normalize(line)
		if normalized == "" {
			continue
		}
		for _, part := range strings.FieldsFunc(normalized, isSeparator) {
			if part = strings.TrimSpace(part); part != "" {
				tokens = append(tokens, part)
			}
		}
	}
	return tokens
}

// Tokenize tokenizes field with the default [Normalizer].
func Tokenize(field string) []string {
	return defaultNormalizer.Tokenize(field)
}
