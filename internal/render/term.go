package render

import (
	"strings"
	"unicode"
)

// Term is a search term split into literal and mask segments. Even indexes hold literal
// text, odd indexes hold runs of the masking characters '*' and '?'. A term always has
// an odd number of parts.
type Term []string

func isMask(r rune) bool {
	return r == '*' || r == '?'
}

// ParseTerm splits s into parts. A backslash takes the next character literally; a
// trailing backslash is itself literal.
func ParseTerm(s string) Term {
	parts := Term{""}
	var lit strings.Builder
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\\' && i+1 < len(runes):
			i++
			lit.WriteRune(runes[i])
		case isMask(r):
			j := i
			for j < len(runes) && isMask(runes[j]) {
				j++
			}
			parts[len(parts)-1] = lit.String()
			lit.Reset()
			parts = append(parts, string(runes[i:j]), "")
			i = j - 1
		default:
			lit.WriteRune(r)
		}
	}
	parts[len(parts)-1] = lit.String()
	return parts
}

// Masked reports whether the term contains masking characters.
func (t Term) Masked() bool {
	return len(t) > 1
}

// Literal returns the literal text of an unmasked term.
func (t Term) Literal() string {
	return t[0]
}

// Words splits the literal segments on whitespace. Masks stay attached to the word they
// touch; empty words are dropped.
func (t Term) Words() []Term {
	var words []Term
	cur := Term{""}
	flush := func() {
		if len(cur) > 1 || cur[0] != "" {
			words = append(words, cur)
		}
		cur = Term{""}
	}

	for i, p := range t {
		if i%2 == 1 {
			cur = append(cur, p, "")
			continue
		}
		for _, r := range p {
			if unicode.IsSpace(r) {
				flush()
				continue
			}
			cur[len(cur)-1] += string(r)
		}
	}
	flush()
	return words
}

// HasSpace reports whether any literal segment contains whitespace.
func (t Term) HasSpace() bool {
	for i := 0; i < len(t); i += 2 {
		if strings.IndexFunc(t[i], unicode.IsSpace) >= 0 {
			return true
		}
	}
	return false
}
