package matcher

// DefaultFunctionWords are closed-class words excluded from vocabulary tracking.
//
// "τo" is written with a Latin o as it appears in common frequency lists; it
// normalizes to "το".
var DefaultFunctionWords = []string{
	// articles
	"ο", "η", "το", "τo", "οι", "τα", "ένας", "μία", "ένα",
	// prepositions
	"από", "σε", "με", "για", "προς", "κατά", "μετά", "παρά", "αντί", "ως",
	// conjunctions
	"και", "ή", "αλλά", "όμως", "ούτε", "ότι", "ώστε", "αν", "όταν", "ενώ",
	// pronouns
	"εγώ", "εσύ", "αυτός", "αυτή", "αυτό", "εμείς", "εσείς", "αυτοί", "αυτές", "αυτά",
	"μου", "σου", "του", "της", "μας", "σας", "τους",
	// relative and interrogative
	"που", "ποιος", "τι", "πώς", "πόσος", "οποίος",
	// particles and negation
	"να", "θα", "δεν", "δε", "μην", "πιο", "πολύ",
}

// WordSet is a set of normalized words.
type WordSet map[string]struct{}

// NewWordSet normalizes words with n into a [WordSet]. A nil n uses [Default].
func NewWordSet(n *Normalizer, words []string) WordSet {
	if n == nil {
		n = defaultNormalizer
	}
	set := make(WordSet, len(words))
	for _, w := range words {
		if norm := n.Normalize(w); norm != "" {
			set[norm] = struct{}{}
		}
	}
	return set
}

// Has reports whether the already-normalized word is in the set.
func (s WordSet) Has(normalized string) bool {
	_, ok := s[normalized]
	return ok
}
