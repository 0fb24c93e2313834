package matcher

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

const (
	// fuzzyMinRunes is the shortest normalized query that may match within one edit.
	// Shorter Greek words are too often one edit apart from unrelated words.
	fuzzyMinRunes = 4
	maxDistance   = 1
)

// Matcher decides whether a query word is present among candidate fields.
type Matcher struct {
	normalizer *Normalizer
}

// NewMatcher creates a [Matcher] over n. A nil n uses [Default].
func NewMatcher(n *Normalizer) *Matcher {
	if n == nil {
		n = defaultNormalizer
	}
	return &Matcher{normalizer: n}
}

// Normalizer returns the [Normalizer] backing m.
func (m *Matcher) Normalizer() *Normalizer {
	return m.normalizer
}

// IsPresent reports whether query matches any token of any field.
func (m *Matcher) IsPresent(query string, fields []string) bool {
	q := newQuery(m.normalizer.Normalize(query))
	for _, field := range fields {
		if q.matchesAny(m.normalizer.Tokenize(field)) {
			return true
		}
	}
	return false
}

// Candidate pairs a field with the handle returned when it matches.
type Candidate[H any] struct {
	Field  string
	Handle H
}

// FindMatch returns the handle of the first candidate with a token matching query.
//
// Candidates and their tokens are scanned in input order and the first
// matching pair wins, whether it matched exactly or within one edit.
func FindMatch[H any](m *Matcher, query string, candidates []Candidate[H]) (H, bool) {
	q := newQuery(m.normalizer.Normalize(query))
	for _, c := range candidates {
		if q.matchesAny(m.normalizer.Tokenize(c.Field)) {
			return c.Handle, true
		}
	}

	var zero H
	return zero, false
}

// Corpus holds the tokens of a fixed set of fields so that many queries can be
// answered without re-tokenizing. Answers are identical to [Matcher.IsPresent]
// and [FindMatch] over the same fields.
type Corpus struct {
	normalizer *Normalizer
	tokens     [][]string
	exact      map[string]int
}

// NewCorpus tokenizes fields once.
func (m *Matcher) NewCorpus(fields []string) *Corpus {
	c := &Corpus{
		normalizer: m.normalizer,
		tokens:     make([][]string, len(fields)),
		exact:      make(map[string]int),
	}
	for i, field := range fields {
		c.tokens[i] = m.normalizer.Tokenize(field)
		for _, tok := range c.tokens[i] {
			if _, seen := c.exact[tok]; !seen {
				c.exact[tok] = i
			}
		}
	}
	return c
}

// Len returns the number of fields in the corpus.
func (c *Corpus) Len() int {
	return len(c.tokens)
}

// Contains reports whether query matches any field of the corpus.
func (c *Corpus) Contains(query string) bool {
	q := newQuery(c.normalizer.Normalize(query))
	if q.text == "" {
		return false
	}
	if _, ok := c.exact[q.text]; ok {
		return true
	}
	if !q.fuzzy {
		return false
	}
	_, ok := c.scan(q)
	return ok
}

// Find returns the index of the first field matching query.
func (c *Corpus) Find(query string) (int, bool) {
	q := newQuery(c.normalizer.Normalize(query))
	if q.text == "" {
		return 0, false
	}
	if !q.fuzzy {
		i, ok := c.exact[q.text]
		return i, ok
	}
	return c.scan(q)
}

func (c *Corpus) scan(q query) (int, bool) {
	for i, toks := range c.tokens {
		if q.matchesAny(toks) {
			return i, true
		}
	}
	return 0, false
}

// query is a normalized query with its rune length precomputed.
type query struct {
	text  string
	runes int
	fuzzy bool
}

func newQuery(normalized string) query {
	n := utf8.RuneCountInString(normalized)
	return query{text: normalized, runes: n, fuzzy: n >= fuzzyMinRunes}
}

func (q query) matchesAny(tokens []string) bool {
	if q.text == "" {
		return false
	}
	for _, tok := range tokens {
		if tok == q.text {
			return true
		}
		if q.fuzzy && q.withinDistance(tok) {
			return true
		}
	}
	return false
}

func (q query) withinDistance(tok string) bool {
	diff := utf8.RuneCountInString(tok) - q.runes
	if diff > maxDistance || diff < -maxDistance {
		return false
	}
	return levenshtein.ComputeDistance(tok, q.text) <= maxDistance
}
