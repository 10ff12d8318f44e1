package normalizer

import (
	"strings"
	"unicode"

	"github.com/dshills/semsearch/pkg/types"
)

// BuildSearchableText joins the non-empty parts of name, signature and
// docstring with a single space.
func BuildSearchableText(name, signature, docstring string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{name, signature, docstring} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// ElementText returns the searchable text of a code element
func ElementText(e types.CodeElement) string {
	return BuildSearchableText(e.Name, e.Signature, e.Docstring)
}

// SanitizeForEmbedding lower-cases text, replaces every character outside
// word characters, whitespace and ".,!?-" with a space, collapses whitespace
// runs to a single space and trims the ends.
func SanitizeForEmbedding(text string) string {
	mapped := strings.Map(func(r rune) rune {
		if isAllowed(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)
	return strings.Join(strings.Fields(mapped), " ")
}

func isAllowed(r rune) bool {
	switch {
	case unicode.IsLetter(r), unicode.IsNumber(r), unicode.IsSpace(r):
		return true
	case r == '_', r == '.', r == ',', r == '!', r == '?', r == '-':
		return true
	}
	return false
}
