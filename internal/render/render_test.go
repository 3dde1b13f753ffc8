package render

import (
	"errors"
	"testing"

	"github.com/nlstn/go-cql/internal/diag"
	"github.com/nlstn/go-cql/internal/flat"
	"github.com/nlstn/go-cql/internal/parser"
	"github.com/nlstn/go-cql/internal/rules"
)

var (
	defaultSpec = &rules.FieldSpec{}
	titleSpec   = &rules.FieldSpec{Name: "title_t"}
	phraseSpec  = &rules.FieldSpec{Name: "subject_s", Type: rules.TypePhrase}
	numberSpec  = &rules.FieldSpec{Name: "year_i", Type: rules.TypeNumber}
	dateSpec    = &rules.FieldSpec{Name: "date", Type: rules.TypeDate}
)

func leaf(spec *rules.FieldSpec, relation, term string, mods ...string) *flat.Search {
	m := parser.Modifiers{}
	for _, name := range mods {
		m[name] = parser.Modifier{Name: name}
	}
	return &flat.Search{Index: "idx", Spec: spec, Relation: relation, Modifiers: m, Term: term, Pos: 3}
}

func TestRenderSearch(t *testing.T) {
	tests := []struct {
		name string
		leaf *flat.Search
		want string
	}{
		{"default field", leaf(defaultSpec, "=", "hello"), "hello"},
		{"field prefix", leaf(titleSpec, "=", "hello"), "title_t:hello"},
		{"escaped literal", leaf(defaultSpec, "=", "foo:bar"), `foo\:bar`},
		{"masks pass through", leaf(defaultSpec, "=", "hel*o?"), "hel*o?"},
		{"escaped mask", leaf(defaultSpec, "=", `hel\*o`), `hel\*o`},
		{"multi-word", leaf(titleSpec, "=", "hello world"), `title_t:"hello world"~9999`},
		{"multi-word masked", leaf(titleSpec, "=", "hel* world"), "title_t:(hel* AND world)"},
		{"word modifier", leaf(titleSpec, "=", "hello world", "word"), `title_t:"hello world"~9999`},
		{"word modifier single", leaf(titleSpec, "=", "hello", "word"), "title_t:hello"},
		{"string modifier", leaf(titleSpec, "=", "hello world", "string"), `title_t:"hello world"`},
		{"string modifier quotes", leaf(titleSpec, "=", `say "hi"`, "string"), `title_t:"say \"hi\""`},
		{"string modifier token", leaf(titleSpec, "=", "a:b*", "string"), `title_t:a\:b*`},
		{"phrase field", leaf(phraseSpec, "=", "hello world"), `subject_s:hello\ world`},
		{"phrase field masked", leaf(phraseSpec, "=", "hello wor*"), `subject_s:hello\ wor*`},
		{"any", leaf(titleSpec, "any", "a b c"), "title_t:(a OR b OR c)"},
		{"all", leaf(titleSpec, "all", "a b*"), "title_t:(a AND b*)"},
		{"any single word", leaf(titleSpec, "any", " a "), "title_t:a"},
		{"adj", leaf(titleSpec, "adj", "hello world"), `title_t:"hello world"`},
		{"adj single word", leaf(titleSpec, "adj", "hel*"), "title_t:hel*"},
		{"greater than", leaf(dateSpec, ">", "2020-01-01"), "date:{2020-01-01 TO *]"},
		{"greater or equal", leaf(numberSpec, ">=", "5"), "year_i:[5 TO *]"},
		{"less than", leaf(numberSpec, "<", "-2.5"), "year_i:[* TO -2.5}"},
		{"less or equal", leaf(dateSpec, "<=", "NOW"), "date:[* TO NOW]"},
		{"range escapes", leaf(dateSpec, "<=", "a]b"), `date:[* TO a\]b]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Search(tt.leaf)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestRenderSearchErrors(t *testing.T) {
	tests := []struct {
		name string
		leaf *flat.Search
		code diag.Code
	}{
		{"empty term", leaf(titleSpec, "=", ""), diag.EmptyTermUnsupported},
		{"blank term", leaf(titleSpec, "=", "   "), diag.EmptyTermUnsupported},
		{"blank string term", leaf(titleSpec, "=", "  ", "string"), diag.EmptyTermUnsupported},
		{"empty any", leaf(titleSpec, "any", ""), diag.EmptyTermUnsupported},
		{"any on phrase field", leaf(phraseSpec, "any", "a b"), diag.UnsupportedCombinationOfRelationAndIndex},
		{"adj on phrase field", leaf(phraseSpec, "adj", "a b"), diag.UnsupportedCombinationOfRelationAndIndex},
		{"adj masked phrase", leaf(titleSpec, "adj", "a* b"), diag.ProximityAndMaskingNotSupported},
		{"modifier on phrase field", leaf(phraseSpec, "=", "a", "word"), diag.UnsupportedRelationModifier},
		{"range on text field", leaf(titleSpec, ">", "a"), diag.UnsupportedCombinationOfRelationAndIndex},
		{"range not a number", leaf(numberSpec, ">", "abc"), diag.TermInInvalidFormat},
		{"range masked", leaf(numberSpec, "<", "19*"), diag.MaskingCharacterNotSupported},
		{"range empty", leaf(dateSpec, "<", " "), diag.EmptyTermUnsupported},
		{"unknown relation", leaf(titleSpec, "within", "a"), diag.UnsupportedRelation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Search(tt.leaf)
			var cqlErr *diag.Error
			if !errors.As(err, &cqlErr) {
				t.Fatalf("expected *diag.Error, got %v", err)
			}
			if cqlErr.Code != tt.code {
				t.Errorf("expected code %d, got %d", tt.code, cqlErr.Code)
			}
			if cqlErr.Position.Offset != 3 {
				t.Errorf("expected offset 3, got %d", cqlErr.Position.Offset)
			}
		})
	}
}

func TestRenderGroups(t *testing.T) {
	a := leaf(titleSpec, "=", "a")
	b := leaf(titleSpec, "=", "b")
	c := leaf(titleSpec, "=", "c")

	tests := []struct {
		name string
		node flat.Node
		want string
	}{
		{"and", &flat.AndNot{Ands: []flat.Node{a, b}}, "title_t:a AND title_t:b"},
		{"and not", &flat.AndNot{Ands: []flat.Node{a}, Nots: []flat.Node{b, c}}, "title_t:a NOT title_t:b NOT title_t:c"},
		{"only nots", &flat.AndNot{Nots: []flat.Node{a}}, "*:* NOT title_t:a"},
		{"empty and", &flat.AndNot{}, "*:*"},
		{"or", &flat.Or{Ors: []flat.Node{a, b}}, "title_t:a OR title_t:b"},
		{"empty or", &flat.Or{}, "*:*"},
		{
			"groups are parenthesized",
			&flat.AndNot{Ands: []flat.Node{a, &flat.Or{Ors: []flat.Node{b, c}}}, Nots: []flat.Node{&flat.AndNot{Ands: []flat.Node{b, c}}}},
			"title_t:a AND (title_t:b OR title_t:c) NOT (title_t:b AND title_t:c)",
		},
		{
			"nested reference",
			&flat.AndNot{Ands: []flat.Node{a, &flat.Nested{QueryText: "{!parent which='doc_type:work' v=$q1}"}}},
			"title_t:a AND {!parent which='doc_type:work' v=$q1}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.node)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestRenderMalformed(t *testing.T) {
	_, err := Render(&flat.AndNot{Ands: []flat.Node{nil}})
	if !errors.Is(err, flat.ErrMalformedQuery) {
		t.Errorf("expected ErrMalformedQuery, got %v", err)
	}
}
