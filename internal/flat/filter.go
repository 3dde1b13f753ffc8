package flat

import "fmt"

// ExtractFilters moves top-level clauses that belong to a named filter query out of the
// main query. Clauses of the same filter are ANDed into one filter query; filter queries
// are returned in order of first use. In an Or root the clauses can only move when all
// of them share one filter, leaving an empty Or behind. root is not modified.
func ExtractFilters(root Node) (Node, []Node, error) {
	switch r := root.(type) {
	case *AndNot:
		var (
			filters []Node
			byName  = make(map[string]*AndNot)
			ands    []Node
		)
		for _, n := range r.Ands {
			name := filterNameOf(n)
			if name == "" {
				ands = append(ands, n)
				continue
			}
			acc, ok := byName[name]
			if !ok {
				acc = &AndNot{}
				byName[name] = acc
				filters = append(filters, acc)
			}
			acc.Ands = append(acc.Ands, n)
		}
		return &AndNot{Ands: ands, Nots: append([]Node(nil), r.Nots...)}, filters, nil

	case *Or:
		if len(r.Ors) > 0 && filterNameOf(r) != "" {
			return &Or{}, []Node{&Or{Ors: append([]Node(nil), r.Ors...)}}, nil
		}
		return r, nil, nil
	}
	return nil, nil, fmt.Errorf("%w: filter extraction root is %T", ErrMalformedQuery, root)
}

// filterNameOf returns the filter query n belongs to. A group belongs to a filter when
// all of its children do.
func filterNameOf(n Node) string {
	switch n := n.(type) {
	case *Search:
		if n.Spec == nil {
			return ""
		}
		return n.Spec.FilterQuery
	case *Nested:
		return n.FilterQueryName
	case *AndNot, *Or:
		return commonFilter(children(n))
	}
	return ""
}
