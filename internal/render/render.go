// Package render turns flat queries into backend (Solr) query strings.
package render

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nlstn/go-cql/internal/diag"
	"github.com/nlstn/go-cql/internal/flat"
	"github.com/nlstn/go-cql/internal/rules"
)

// MatchAll is the query that matches every document.
const MatchAll = "*:*"

// wordSlop is the slop of a multi-word "=" search, large enough to only require all words.
const wordSlop = 9999

// Render renders n as a backend query string.
func Render(n flat.Node) (string, error) {
	var b strings.Builder
	if err := render(&b, n); err != nil {
		return "", err
	}
	return b.String(), nil
}

func render(b *strings.Builder, n flat.Node) error {
	switch n := n.(type) {
	case *flat.AndNot:
		if len(n.Ands) == 0 {
			b.WriteString(MatchAll)
		}
		for i, c := range n.Ands {
			if i > 0 {
				b.WriteString(" AND ")
			}
			if err := child(b, c); err != nil {
				return err
			}
		}
		for _, c := range n.Nots {
			b.WriteString(" NOT ")
			if err := child(b, c); err != nil {
				return err
			}
		}
		return nil
	case *flat.Or:
		if len(n.Ors) == 0 {
			b.WriteString(MatchAll)
		}
		for i, c := range n.Ors {
			if i > 0 {
				b.WriteString(" OR ")
			}
			if err := child(b, c); err != nil {
				return err
			}
		}
		return nil
	case *flat.Nested:
		b.WriteString(n.QueryText)
		return nil
	case *flat.Search:
		s, err := Search(n)
		if err != nil {
			return err
		}
		b.WriteString(s)
		return nil
	case nil:
		return fmt.Errorf("%w: nil node", flat.ErrMalformedQuery)
	}
	return fmt.Errorf("%w: unexpected node %T", flat.ErrMalformedQuery, n)
}

func child(b *strings.Builder, n flat.Node) error {
	if !flat.IsGroup(n) {
		return render(b, n)
	}
	b.WriteByte('(')
	if err := render(b, n); err != nil {
		return err
	}
	b.WriteByte(')')
	return nil
}

// Search renders a single search clause, prefixed with its field unless it targets the
// default field.
func Search(s *flat.Search) (string, error) {
	spec := s.Spec
	if spec == nil {
		spec = &rules.FieldSpec{}
	}
	q, err := clause(s, spec)
	if err != nil {
		return "", err
	}
	if spec.Name == "" {
		return q, nil
	}
	return escape(spec.Name) + ":" + q, nil
}

func clause(s *flat.Search, spec *rules.FieldSpec) (string, error) {
	term := ParseTerm(s.Term)
	words := term.Words()

	switch s.Relation {
	case "any", "all":
		if spec.Type == rules.TypePhrase {
			return "", relationAndIndex(s)
		}
		if len(words) == 0 {
			return "", emptyTerm(s)
		}
		op := " OR "
		if s.Relation == "all" {
			op = " AND "
		}
		return joinWords(words, op), nil

	case "adj":
		if spec.Type == rules.TypePhrase {
			return "", relationAndIndex(s)
		}
		switch {
		case len(words) == 0:
			return "", emptyTerm(s)
		case len(words) == 1:
			return token(words[0]), nil
		case term.Masked():
			return "", diag.New(diag.ProximityAndMaskingNotSupported, s.Pos, "%s", s.Term)
		}
		return phrase(words, 0), nil

	case "=":
		return equals(s, spec, term, words)

	case ">", ">=", "<", "<=":
		return rangeClause(s, spec, term, words)
	}
	return "", diag.New(diag.UnsupportedRelation, s.Pos, "%s", s.Relation)
}

func equals(s *flat.Search, spec *rules.FieldSpec, term Term, words []Term) (string, error) {
	if len(words) == 0 {
		return "", emptyTerm(s)
	}
	if spec.Type == rules.TypePhrase {
		if len(s.Modifiers) > 0 {
			return "", diag.New(diag.UnsupportedRelationModifier, s.Pos,
				"%s is not supported for phrase index %s", s.Modifiers.Names()[0], s.Index)
		}
		return token(term), nil
	}

	if s.Modifiers.Has("string") {
		if term.HasSpace() && !term.Masked() {
			return `"` + escapePhrase(term.Literal()) + `"`, nil
		}
		return token(term), nil
	}

	switch {
	case len(words) == 1:
		return token(words[0]), nil
	case term.Masked():
		return joinWords(words, " AND "), nil
	}
	return phrase(words, wordSlop), nil
}

func rangeClause(s *flat.Search, spec *rules.FieldSpec, term Term, words []Term) (string, error) {
	if !spec.Type.IsRange() {
		return "", relationAndIndex(s)
	}
	if len(words) == 0 {
		return "", emptyTerm(s)
	}
	if term.Masked() {
		return "", diag.New(diag.MaskingCharacterNotSupported, s.Pos, "%s", s.Term)
	}
	value := strings.TrimSpace(term.Literal())
	if spec.Type == rules.TypeNumber {
		if _, err := decimal.NewFromString(value); err != nil {
			return "", diag.New(diag.TermInInvalidFormat, s.Pos, "%s is not a number", value)
		}
	}

	value = escapeRange(value)
	switch s.Relation {
	case ">":
		return "{" + value + " TO *]", nil
	case ">=":
		return "[" + value + " TO *]", nil
	case "<":
		return "[* TO " + value + "}", nil
	}
	return "[* TO " + value + "]", nil
}

func joinWords(words []Term, op string) string {
	if len(words) == 1 {
		return token(words[0])
	}
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = token(w)
	}
	return "(" + strings.Join(parts, op) + ")"
}

func emptyTerm(s *flat.Search) error {
	return diag.New(diag.EmptyTermUnsupported, s.Pos, "")
}

func relationAndIndex(s *flat.Search) error {
	return diag.New(diag.UnsupportedCombinationOfRelationAndIndex, s.Pos, "%s %s", s.Index, s.Relation)
}
