package parser

import (
	"strconv"
	"strings"
	"sync"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/text/unicode/runenames"
)

// docstring returns the evaluated string literal when it is the first
// statement of body, or "" otherwise.
func docstring(body *sitter.Node, src []byte) string {
	if body == nil {
		return ""
	}

	var first *sitter.Node
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		first = child
		break
	}
	if first == nil || first.Type() != "expression_statement" || first.NamedChildCount() != 1 {
		return ""
	}

	expr := first.NamedChild(0)
	switch expr.Type() {
	case "string":
		value, ok := evalStringLiteral(expr.Content(src))
		if !ok {
			return ""
		}
		return value
	case "concatenated_string":
		var b strings.Builder
		for i := 0; i < int(expr.NamedChildCount()); i++ {
			part := expr.NamedChild(i)
			if part.Type() != "string" {
				continue
			}
			value, ok := evalStringLiteral(part.Content(src))
			if !ok {
				return ""
			}
			b.WriteString(value)
		}
		return b.String()
	default:
		return ""
	}
}

// evalStringLiteral evaluates a Python str literal. It reports false for
// bytes and f-string literals, which never produce a str constant.
func evalStringLiteral(lit string) (string, bool) {
	quoteAt := strings.IndexAny(lit, `"'`)
	if quoteAt < 0 {
		return "", false
	}

	prefix := strings.ToLower(lit[:quoteAt])
	if strings.ContainsAny(prefix, "bf") {
		return "", false
	}
	raw := strings.Contains(prefix, "r")

	body := lit[quoteAt:]
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(body) >= 2*len(q) && strings.HasPrefix(body, q) && strings.HasSuffix(body, q) {
			body = body[len(q) : len(body)-len(q)]
			break
		}
	}

	body = strings.ReplaceAll(body, "\r\n", "\n")
	if raw {
		return body, true
	}
	return unescape(body), true
}

// unescape processes Python escape sequences. Unknown escapes are kept verbatim.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}

		next := s[i+1]
		switch next {
		case '\n':
			// line continuation
			i++
		case '\\', '\'', '"':
			b.WriteByte(next)
			i++
		case 'a':
			b.WriteByte('\a')
			i++
		case 'b':
			b.WriteByte('\b')
			i++
		case 'f':
			b.WriteByte('\f')
			i++
		case 'n':
			b.WriteByte('\n')
			i++
		case 'r':
			b.WriteByte('\r')
			i++
		case 't':
			b.WriteByte('\t')
			i++
		case 'v':
			b.WriteByte('\v')
			i++
		case 'x':
			i += writeCodePoint(&b, s, i, 2)
		case 'u':
			i += writeCodePoint(&b, s, i, 4)
		case 'U':
			i += writeCodePoint(&b, s, i, 8)
		case 'N':
			i += writeNamedRune(&b, s, i)
		default:
			if next >= '0' && next <= '7' {
				end := i + 2
				for end < len(s) && end < i+4 && s[end] >= '0' && s[end] <= '7' {
					end++
				}
				v, _ := strconv.ParseUint(s[i+1:end], 8, 32)
				b.WriteRune(rune(v))
				i = end - 1
				continue
			}
			b.WriteByte(c)
		}
	}
	return b.String()
}

// writeCodePoint decodes a \x, \u or \U escape starting at s[i] and returns
// how many bytes past the backslash it consumed.
func writeCodePoint(b *strings.Builder, s string, i, digits int) int {
	start := i + 2
	end := start + digits
	if end > len(s) {
		b.WriteByte('\\')
		return 0
	}
	v, err := strconv.ParseUint(s[start:end], 16, 32)
	if err != nil {
		b.WriteByte('\\')
		return 0
	}
	b.WriteRune(rune(v))
	return digits + 1
}

// writeNamedRune decodes a \N{NAME} escape starting at s[i]. Unknown names
// leave the backslash in place.
func writeNamedRune(b *strings.Builder, s string, i int) int {
	if i+2 >= len(s) || s[i+2] != '{' {
		b.WriteByte('\\')
		return 0
	}
	end := strings.IndexByte(s[i+3:], '}')
	if end < 0 {
		b.WriteByte('\\')
		return 0
	}
	r, ok := lookupRuneName(s[i+3 : i+3+end])
	if !ok {
		b.WriteByte('\\')
		return 0
	}
	b.WriteRune(r)
	return end + 3
}

const cjkIdeographPrefix = "CJK UNIFIED IDEOGRAPH-"

// runesByName maps Unicode character names to runes, built on first use.
var runesByName = sync.OnceValue(func() map[string]rune {
	m := make(map[string]rune, 1<<16)
	for r := rune(0); r <= unicode.MaxRune; r++ {
		if r >= 0xD800 && r <= 0xDFFF {
			continue
		}
		name := runenames.Name(r)
		if name == "" || name[0] == '<' {
			continue
		}
		if _, dup := m[name]; !dup {
			m[name] = r
		}
	}
	return m
})

func lookupRuneName(name string) (rune, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return 0, false
	}
	if hex, ok := strings.CutPrefix(name, cjkIdeographPrefix); ok {
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil || !unicode.Is(unicode.Ideographic, rune(v)) {
			return 0, false
		}
		return rune(v), true
	}
	r, ok := runesByName()[name]
	return r, ok
}
