package flat

import (
	"fmt"

	"github.com/nlstn/go-cql/internal/diag"
	"github.com/nlstn/go-cql/internal/parser"
	"github.com/nlstn/go-cql/internal/rules"
)

// Flatten lowers a parse tree into a flat query, resolving every index through lookup.
// The result is always an *AndNot or an *Or; a single clause is wrapped in an AndNot.
func Flatten(lookup rules.Lookup, n parser.Node) (Node, error) {
	f := flattener{lookup: lookup}
	out, err := f.node(n)
	if err != nil {
		return nil, err
	}
	if s, ok := out.(*Search); ok {
		return &AndNot{Ands: []Node{s}}, nil
	}
	return out, nil
}

type flattener struct {
	lookup rules.Lookup
}

func (f flattener) node(n parser.Node) (Node, error) {
	switch n := n.(type) {
	case *parser.Search:
		return f.search(n)
	case *parser.Bool:
		switch n.Kind {
		case parser.BoolOr:
			or := &Or{}
			if err := f.mergeOr(or, n); err != nil {
				return nil, err
			}
			return or, nil
		case parser.BoolAnd, parser.BoolNot:
			g := &AndNot{}
			if err := f.mergeAndNot(g, n); err != nil {
				return nil, err
			}
			return g, nil
		default:
			return nil, diag.New(diag.ProximityNotSupported, n.Pos, "%s", n.Operator)
		}
	case nil:
		return nil, fmt.Errorf("%w: nil parse node", ErrMalformedQuery)
	}
	return nil, fmt.Errorf("%w: unexpected parse node %T", ErrMalformedQuery, n)
}

func (f flattener) search(s *parser.Search) (Node, error) {
	spec, ok := f.lookup.Resolve(s.Index)
	if !ok {
		return nil, diag.New(diag.UnsupportedIndex, s.Pos, "%s", s.Index)
	}
	return &Search{
		Index:     s.Index,
		Spec:      spec,
		Relation:  s.Relation,
		Modifiers: s.Modifiers,
		Term:      s.Term,
		Pos:       s.Pos,
	}, nil
}

// mergeOr adds n to or, splicing OR chains on both sides into the same group.
func (f flattener) mergeOr(or *Or, n parser.Node) error {
	if b, ok := n.(*parser.Bool); ok && b.Kind == parser.BoolOr {
		if err := f.mergeOr(or, b.Left); err != nil {
			return err
		}
		return f.mergeOr(or, b.Right)
	}
	c, err := f.node(n)
	if err != nil {
		return err
	}
	or.Ors = append(or.Ors, c)
	return nil
}

// mergeAndNot adds n to g. AND and NOT chains merge into g; the right operand of a NOT
// becomes a single not entry since NOT does not distribute over its operand.
func (f flattener) mergeAndNot(g *AndNot, n parser.Node) error {
	b, ok := n.(*parser.Bool)
	if !ok || (b.Kind != parser.BoolAnd && b.Kind != parser.BoolNot) {
		c, err := f.node(n)
		if err != nil {
			return err
		}
		g.Ands = append(g.Ands, c)
		return nil
	}

	if err := f.mergeAndNot(g, b.Left); err != nil {
		return err
	}
	if b.Kind == parser.BoolAnd {
		return f.mergeAndNot(g, b.Right)
	}
	c, err := f.node(b.Right)
	if err != nil {
		return err
	}
	g.Nots = append(g.Nots, c)
	return nil
}
