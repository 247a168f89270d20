package lexicon

import (
	"strings"
	"unicode/utf8"
)

// Singularizer turns a plural surface form into a singular guess. It is the
// fallback when the lexicon has no canonical form for an adjective.
type Singularizer interface {
	Singularize(word string) string
}

// SingularizerFunc adapts a function to Singularizer.
type SingularizerFunc func(string) string

func (f SingularizerFunc) Singularize(w string) string { return f(w) }

// Identity leaves words unchanged.
var Identity = SingularizerFunc(func(w string) string { return w })

// SingularizerFor returns the fallback for a language code. Unknown languages
// get Identity.
func SingularizerFor(lang string) Singularizer {
	switch strings.ToLower(lang) {
	case "fr", "fr-fr", "french":
		return SingularizerFunc(singularizeFrench)
	default:
		return Identity
	}
}

func singularizeFrench(w string) string {
	switch {
	case strings.HasSuffix(w, "eaux"):
		return strings.TrimSuffix(w, "x")
	case strings.HasSuffix(w, "aux"):
		return strings.TrimSuffix(w, "aux") + "al"
	case strings.HasSuffix(w, "eux"), strings.HasSuffix(w, "ss"):
		return w
	case utf8.RuneCountInString(w) > 3 && (strings.HasSuffix(w, "s") || strings.HasSuffix(w, "x")):
		return w[:len(w)-1]
	}
	return w
}
