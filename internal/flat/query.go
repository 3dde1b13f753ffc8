// Package flat holds the n-ary form of a CQL query and the passes that reshape it
// before rendering: flattening, nested sub-query extraction and filter extraction.
package flat

import (
	"errors"

	"github.com/nlstn/go-cql/internal/parser"
	"github.com/nlstn/go-cql/internal/rules"
)

// ErrMalformedQuery reports a tree shape the passes never produce. It indicates a bug,
// not bad client input.
var ErrMalformedQuery = errors.New("flat: malformed query")

// Node is a node of a flat query. The set of implementations is closed:
// *AndNot, *Or, *Search and *Nested.
type Node interface {
	flatNode()
}

// AndNot matches when all Ands match and none of the Nots do.
type AndNot struct {
	Ands []Node
	Nots []Node
}

// Or matches when any of Ors matches.
type Or struct {
	Ors []Node
}

// Search is a resolved search clause.
type Search struct {
	Index     string
	Spec      *rules.FieldSpec
	Relation  string
	Modifiers parser.Modifiers
	Term      string
	Pos       int
}

// Nested references a sub-query that is sent to the backend as its own parameter.
type Nested struct {
	// QueryText is rendered verbatim in place of the sub-query.
	QueryText string
	Inner     Node
	// FilterQueryName is the filter query the reference belongs to, if any.
	FilterQueryName string
}

func (*AndNot) flatNode() {}
func (*Or) flatNode()     {}
func (*Search) flatNode() {}
func (*Nested) flatNode() {}

// IsGroup reports whether n is an AndNot or an Or.
func IsGroup(n Node) bool {
	switch n.(type) {
	case *AndNot, *Or:
		return true
	}
	return false
}

// Walk calls fn for every search clause below n. Nested references are not entered.
func Walk(n Node, fn func(*Search)) {
	switch n := n.(type) {
	case *Search:
		fn(n)
	case *AndNot:
		for _, c := range n.Ands {
			Walk(c, fn)
		}
		for _, c := range n.Nots {
			Walk(c, fn)
		}
	case *Or:
		for _, c := range n.Ors {
			Walk(c, fn)
		}
	}
}

func children(n Node) []Node {
	switch n := n.(type) {
	case *AndNot:
		out := make([]Node, 0, len(n.Ands)+len(n.Nots))
		out = append(out, n.Ands...)
		return append(out, n.Nots...)
	case *Or:
		return n.Ors
	}
	return nil
}
