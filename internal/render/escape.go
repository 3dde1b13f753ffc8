package render

import (
	"strconv"
	"strings"
	"unicode"
)

// specials are the characters the backend query parser treats as syntax.
const specials = `\+-!():^[]"{}~*?|&;/`

// escape backslash-escapes backend syntax characters and whitespace in s.
func escape(s string) string {
	return escapeFunc(s, func(r rune) bool {
		return strings.ContainsRune(specials, r) || unicode.IsSpace(r)
	})
}

// escapeRange escapes a range bound; only characters that end the value are escaped.
func escapeRange(s string) string {
	return escapeFunc(s, func(r rune) bool {
		return strings.ContainsRune(`\"[]{}`, r) || unicode.IsSpace(r)
	})
}

// escapePhrase escapes text placed inside double quotes.
func escapePhrase(s string) string {
	return escapeFunc(s, func(r rune) bool {
		return r == '\\' || r == '"'
	})
}

func escapeFunc(s string, special func(rune) bool) string {
	if strings.IndexFunc(s, special) < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		if special(r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// token renders t as one backend token: literals escaped, masks kept as wildcards.
func token(t Term) string {
	var b strings.Builder
	for i, p := range t {
		if i%2 == 1 {
			b.WriteString(p)
		} else {
			b.WriteString(escape(p))
		}
	}
	return b.String()
}

// phrase quotes unmasked words as one phrase, with slop when slop > 0.
func phrase(words []Term, slop int) string {
	lits := make([]string, len(words))
	for i, w := range words {
		lits[i] = escapePhrase(w.Literal())
	}
	q := `"` + strings.Join(lits, " ") + `"`
	if slop > 0 {
		q += "~" + strconv.Itoa(slop)
	}
	return q
}
