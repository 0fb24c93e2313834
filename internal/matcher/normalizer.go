// Package matcher decides whether two pieces of Greek text name the same word.
package matcher

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Version identifies the normalization rules.
//
// Generated cards are cached under [Normalize] output, so any change to the
// rules below must bump it.
const Version = 1

// DefaultConfusables maps code points that render like Greek letters onto the Greek letter.
var DefaultConfusables = map[rune]rune{
	'\u00b5': '\u03bc', // MICRO SIGN -> GREEK SMALL LETTER MU
	'\u006f': '\u03bf', // LATIN SMALL LETTER O -> GREEK SMALL LETTER OMICRON
	'\u004f': '\u039f', // LATIN CAPITAL LETTER O -> GREEK CAPITAL LETTER OMICRON
}

// DefaultArticles are the leading articles stripped before comparison.
var DefaultArticles = []string{"ο", "η", "το", "οι", "τα", "τις", "τους", "την", "τον"}

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	nbspReplacer = strings.NewReplacer("&nbsp;", " ", "\u00a0", " ")
)

// Normalizer canonicalizes text into a comparable form.
//
// A Normalizer is immutable after construction and safe for concurrent use.
type Normalizer struct {
	confusables map[rune]rune
	article     *regexp.Regexp
}

type options struct {
	confusables map[rune]rune
	articles    []string
}

// Option configures a [Normalizer].
type Option func(*options)

// WithConfusables adds entries to the confusable table, overriding defaults with the same key.
func WithConfusables(extra map[rune]rune) Option {
	return func(o *options) {
		for from, to := range extra {
			o.confusables[from] = to
		}
	}
}

// WithArticles replaces the article set. An empty set disables article stripping.
func WithArticles(articles []string) Option {
	return func(o *options) {
		o.articles = append([]string(nil), articles...)
	}
}

// NewNormalizer builds a [Normalizer] from the defaults and the given options.
func NewNormalizer(opts ...Option) *Normalizer {
	o := options{
		confusables: make(map[rune]rune, len(DefaultConfusables)),
		articles:    DefaultArticles,
	}
	for from, to := range DefaultConfusables {
		o.confusables[from] = to
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Normalizer{
		confusables: o.confusables,
		article:     articlePattern(o.articles),
	}
}

// articlePattern compiles a case-insensitive, start-anchored alternation of the
// articles, longest first so "τους" wins over "το".
func articlePattern(articles []string) *regexp.Regexp {
	alts := make([]string, 0, len(articles))
	for _, a := range articles {
		a = strings.TrimSpace(norm.NFC.String(a))
		if a != "" {
			alts = append(alts, a)
		}
	}
	if len(alts) == 0 {
		return nil
	}

	sort.SliceStable(alts, func(i, j int) bool {
		return utf8.RuneCountInString(alts[i]) > utf8.RuneCountInString(alts[j])
	})
	for i, a := range alts {
		alts[i] = regexp.QuoteMeta(a)
	}

	return regexp.MustCompile(`(?i)^(?:` + strings.Join(alts, "|") + `)[\s\v\x{85}\p{Z}]+`)
}

// Normalize returns the canonical comparison form of text.
//
// Steps run in a fixed order: confusable repair, NFC, tag stripping, &nbsp;
// replacement, trim, removal of one leading article, whitespace collapse, lower-case.
func (n *Normalizer) Normalize(text string) string {
	text = strings.Map(n.repair, text)
	text = norm.NFC.String(text)
	text = tagPattern.ReplaceAllString(text, "")
	text = nbspReplacer.Replace(text)
	text = strings.TrimSpace(text)

	if n.article != nil {
		if loc := n.article.FindStringIndex(text); loc != nil {
			text = text[loc[1]:]
		}
	}

	text = strings.Join(strings.Fields(text), " ")
	return strings.TrimSpace(cases.Lower(language.Greek).String(text))
}

func (n *Normalizer) repair(r rune) rune {
	if greek, ok := n.confusables[r]; ok {
		return greek
	}
	return r
}

var defaultNormalizer = NewNormalizer()

// Default returns the shared [Normalizer] built from the default tables.
func Default() *Normalizer {
	return defaultNormalizer
}

// Normalize normalizes text with the default [Normalizer].
func Normalize(text string) string {
	return defaultNormalizer.Normalize(text)
}
