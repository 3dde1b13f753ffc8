package flat

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/nlstn/go-cql/internal/diag"
	"github.com/nlstn/go-cql/internal/parser"
	"github.com/nlstn/go-cql/internal/rules"
)

func testResolver(t *testing.T, withRule bool) *rules.Resolver {
	t.Helper()
	internal := true
	rule := ""
	if withRule {
		rule = "holding.status=onshelf"
	}
	r, err := rules.New(rules.Config{
		Indexes: map[string]rules.IndexRule{
			"title":          {Field: "title_t"},
			"author":         {Field: "author_t"},
			"year":           {Field: "year_i", Type: "number", Filter: "years"},
			"rel.":           {Nested: "rel"},
			"hold.":          {Nested: "hold"},
			"holding.status": {Field: "holding_status_s", Internal: &internal},
		},
		Nested: map[string]rules.NestedGroup{
			"rel":  {Template: "{!parent which='doc_type:work' v=$%s}", Rule: rule},
			"hold": {Template: "{!parent which='doc_type:holding' v=$%s}", Filter: "holdings"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r
}

func flatten(t *testing.T, r *rules.Resolver, query string) Node {
	t.Helper()
	tree, err := parser.Parse(query, nil, nil)
	if err != nil {
		t.Fatalf("parse %q: %v", query, err)
	}
	n, err := Flatten(r, tree)
	if err != nil {
		t.Fatalf("flatten %q: %v", query, err)
	}
	return n
}

// shape renders n compactly: and(...) / or(...) / not[...] / index=term / <template>.
func shape(n Node) string {
	switch n := n.(type) {
	case *Search:
		return n.Index + n.Relation + n.Term
	case *Nested:
		return "<" + n.QueryText + ">"
	case *Or:
		return "or(" + shapes(n.Ors) + ")"
	case *AndNot:
		s := "and(" + shapes(n.Ands) + ")"
		if len(n.Nots) > 0 {
			s += " not(" + shapes(n.Nots) + ")"
		}
		return s
	case nil:
		return "nil"
	}
	return fmt.Sprintf("%T", n)
}

func shapes(list []Node) string {
	parts := make([]string, len(list))
	for i, n := range list {
		parts[i] = shape(n)
	}
	return strings.Join(parts, ", ")
}

func TestFlatten(t *testing.T) {
	r := testResolver(t, false)
	tests := []struct {
		query string
		want  string
	}{
		{"hello", "and(default=hello)"},
		{"title=hello and author=world", "and(title=hello, author=world)"},
		{"a and b or c", "or(and(default=a, default=b), default=c)"},
		{"a or b or c", "or(default=a, default=b, default=c)"},
		{"a or (b or c)", "or(default=a, default=b, default=c)"},
		{"a and (b and (c and d))", "and(default=a, default=b, default=c, default=d)"},
		{"((a and b) and c) and d", "and(default=a, default=b, default=c, default=d)"},
		{"a not b not c", "and(default=a) not(default=b, default=c)"},
		{"a and (b not c)", "and(default=a, default=b) not(default=c)"},
		{"a not (b and c)", "and(default=a) not(and(default=b, default=c))"},
		{"a not (b or c)", "and(default=a) not(or(default=b, default=c))"},
		{"a and (b or c)", "and(default=a, or(default=b, default=c))"},
		{"(a or b) or (c and d)", "or(default=a, default=b, and(default=c, default=d))"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := shape(flatten(t, r, tt.query)); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestFlattenResolvesSpecs(t *testing.T) {
	r := testResolver(t, false)
	n := flatten(t, r, "title=x").(*AndNot)
	s := n.Ands[0].(*Search)
	if s.Spec == nil || s.Spec.Name != "title_t" {
		t.Errorf("expected resolved title spec, got %+v", s.Spec)
	}
}

func TestFlattenErrors(t *testing.T) {
	r := testResolver(t, false)

	tree, err := parser.Parse("title=x and unknown=y", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = Flatten(r, tree)
	var cqlErr *diag.Error
	if !errors.As(err, &cqlErr) {
		t.Fatalf("expected *diag.Error, got %v", err)
	}
	if cqlErr.Code != diag.UnsupportedIndex || cqlErr.Position.Offset != 12 {
		t.Errorf("expected unsupported index at 12, got %v", cqlErr)
	}

	_, err = Flatten(r, parser.Node(nil))
	if !errors.Is(err, ErrMalformedQuery) {
		t.Errorf("expected ErrMalformedQuery, got %v", err)
	}

	_, err = Flatten(r, &parser.Search{Index: "holding.status", Relation: "=", Term: "x"})
	if !errors.Is(err, diag.UnsupportedIndex) {
		t.Errorf("expected internal index to be hidden, got %v", err)
	}
}

func TestFlattenProximity(t *testing.T) {
	r := testResolver(t, false)
	booleans := parser.DefaultBooleans()
	booleans["prox"] = parser.BooleanOp{Kind: parser.BoolProx, Policy: parser.NoModifiers}

	tree, err := parser.Parse("a prox b", nil, booleans)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = Flatten(r, tree)
	if !errors.Is(err, diag.ProximityNotSupported) {
		t.Errorf("expected proximity error, got %v", err)
	}
}

func leafTerms(roots ...Node) []string {
	var terms []string
	for _, n := range roots {
		Walk(n, func(s *Search) {
			terms = append(terms, s.Index+"="+s.Term)
		})
	}
	sort.Strings(terms)
	return terms
}
