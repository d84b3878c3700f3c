package catalog

import (
	"strings"
	"unicode"

	"github.com/gosimple/unidecode"
)

// Leading articles that taggers commonly rotate to the end of a name
// ("Beatles, The"). Kept short on purpose: a longer list starts eating
// real band names.
var trailingArticles = map[string]struct{}{
	"the": {}, "a": {}, "an": {},
	"el": {}, "la": {}, "los": {}, "las": {},
	"le": {}, "les": {}, "der": {}, "die": {}, "das": {},
}

// Normalize reduces a display name to its canonical matching form:
// transliterate to ASCII, case-fold, undo "X, The" article rotation,
// strip punctuation and collapse whitespace. Two names that normalize
// equal are the same entity.
func Normalize(name string) string {
	s := unidecode.Unidecode(name)
	s = strings.ToLower(strings.TrimSpace(s))

	if i := strings.LastIndex(s, ","); i > 0 {
		if art := strings.TrimSpace(s[i+1:]); art != "" {
			if _, ok := trailingArticles[art]; ok {
				s = art + " " + strings.TrimSpace(s[:i])
			}
		}
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
