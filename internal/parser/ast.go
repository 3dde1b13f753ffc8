package parser

// DefaultIndex is the index of a search clause written without index and relation.
const DefaultIndex = "default"

// DefaultRelation is the relation of a search clause written without index and relation.
const DefaultRelation = "="

// Node is a node in the CQL parse tree. The set of implementations is closed:
// *Search and *Bool.
type Node interface {
	queryNode()
}

// Search is a search clause: index relation/modifiers term.
type Search struct {
	Index     string
	Relation  string
	Modifiers Modifiers
	Term      string
	// Pos is the offset of the index token, or of the term when no index was written.
	Pos int
}

func (*Search) queryNode() {}

// Bool combines two clauses with a boolean operator.
type Bool struct {
	Left      Node
	Operator  string
	Kind      BoolKind
	Modifiers Modifiers
	Right     Node
	Pos       int
}

func (*Bool) queryNode() {}

// Walk calls fn for every search clause below n, left to right.
func Walk(n Node, fn func(*Search)) {
	switch n := n.(type) {
	case *Search:
		fn(n)
	case *Bool:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	}
}
