package flat

import (
	"fmt"
	"strings"

	"github.com/nlstn/go-cql/internal/diag"
	"github.com/nlstn/go-cql/internal/rules"
)

// ExtractNested moves clauses on nested fields into sub-queries. It returns the rewritten
// root, where every extracted sub-tree is replaced by a *Nested reference, and the
// sub-queries in discovery order: the first one is sent as q1, the second as q2 and so on.
//
// All siblings in one group that belong to the same nested group end up in one sub-query.
// A sibling mixing fields of the group with other fields cannot be expressed and fails
// with UnsupportedCombinationOfIndexes. lookup resolves the indexes of nested group rules,
// so it usually sees internal indexes. root is not modified.
func ExtractNested(lookup rules.Lookup, root Node) (Node, []Node, error) {
	x := &nestedExtractor{lookup: lookup}
	var (
		out Node
		err error
	)
	switch r := root.(type) {
	case *AndNot:
		out, err = x.andNot(r)
	case *Or:
		out, err = x.or(r)
	default:
		return nil, nil, fmt.Errorf("%w: nested extraction root is %T", ErrMalformedQuery, root)
	}
	if err != nil {
		return nil, nil, err
	}
	return out, x.queries, nil
}

type nestedExtractor struct {
	lookup  rules.Lookup
	queries []Node
}

func (x *nestedExtractor) andNot(g *AndNot) (Node, error) {
	ands := append([]Node(nil), g.Ands...)
	nots := append([]Node(nil), g.Nots...)

	for {
		if i, spec := firstNested(ands); i >= 0 {
			inner, err := x.seed(spec)
			if err != nil {
				return nil, err
			}
			var members []Node
			var keep []Node
			for j, n := range ands {
				if j == i {
					keep = append(keep, nil)
					members = append(members, n)
					continue
				}
				switch in, err := memberOf(n, spec); {
				case err != nil:
					return nil, err
				case in:
					members = append(members, n)
				default:
					keep = append(keep, n)
				}
			}
			for _, m := range members {
				mergeInto(inner, m)
			}

			var keepNots []Node
			for _, n := range nots {
				switch in, err := memberOf(n, spec); {
				case err != nil:
					return nil, err
				case in:
					inner.Nots = append(inner.Nots, n)
					members = append(members, n)
				default:
					keepNots = append(keepNots, n)
				}
			}

			keep[i] = x.reference(spec, inner, members)
			ands, nots = keep, keepNots
			continue
		}

		if i, spec := firstNested(nots); i >= 0 {
			var members []Node
			var keep []Node
			for j, n := range nots {
				if j == i {
					keep = append(keep, nil)
					members = append(members, n)
					continue
				}
				switch in, err := memberOf(n, spec); {
				case err != nil:
					return nil, err
				case in:
					members = append(members, n)
				default:
					keep = append(keep, n)
				}
			}
			inner, err := x.wrap(spec, members)
			if err != nil {
				return nil, err
			}
			keep[i] = x.reference(spec, inner, members)
			nots = keep
			continue
		}
		break
	}

	var err error
	if ands, err = x.descend(ands); err != nil {
		return nil, err
	}
	if nots, err = x.descend(nots); err != nil {
		return nil, err
	}
	return &AndNot{Ands: ands, Nots: nots}, nil
}

func (x *nestedExtractor) or(g *Or) (Node, error) {
	ors := append([]Node(nil), g.Ors...)

	for {
		i, spec := firstNested(ors)
		if i < 0 {
			break
		}
		var members []Node
		var keep []Node
		for j, n := range ors {
			if j == i {
				keep = append(keep, nil)
				members = append(members, n)
				continue
			}
			if other := nestedGroupOf(n); other != nil && other.NestedGroup == spec.NestedGroup {
				members = append(members, n)
				continue
			}
			keep = append(keep, n)
		}
		inner, err := x.wrap(spec, members)
		if err != nil {
			return nil, err
		}
		keep[i] = x.reference(spec, inner, members)
		ors = keep
	}

	ors, err := x.descend(ors)
	if err != nil {
		return nil, err
	}
	return &Or{Ors: ors}, nil
}

// descend extracts below every remaining group.
func (x *nestedExtractor) descend(list []Node) ([]Node, error) {
	for i, n := range list {
		var err error
		switch g := n.(type) {
		case *AndNot:
			list[i], err = x.andNot(g)
		case *Or:
			list[i], err = x.or(g)
		}
		if err != nil {
			return nil, err
		}
	}
	return list, nil
}

// seed starts a sub-query with the nested group's rule, flattened fresh for every use.
func (x *nestedExtractor) seed(spec *rules.FieldSpec) (*AndNot, error) {
	if spec.NestedRule == nil {
		return &AndNot{}, nil
	}
	n, err := Flatten(x.lookup, spec.NestedRule)
	if err != nil {
		return nil, fmt.Errorf("%w: rule of nested group %q: %v", ErrMalformedQuery, spec.NestedGroup, err)
	}
	if g, ok := n.(*AndNot); ok {
		return g, nil
	}
	return &AndNot{Ands: []Node{n}}, nil
}

// wrap builds the sub-query for alternatives: a single member is merged into the seed,
// several are combined in an Or.
func (x *nestedExtractor) wrap(spec *rules.FieldSpec, members []Node) (Node, error) {
	inner, err := x.seed(spec)
	if err != nil {
		return nil, err
	}
	if len(members) == 1 {
		mergeInto(inner, members[0])
		return inner, nil
	}
	or := &Or{Ors: members}
	if len(inner.Ands) == 0 && len(inner.Nots) == 0 {
		return or, nil
	}
	inner.Ands = append(inner.Ands, or)
	return inner, nil
}

// reference registers inner as the next sub-query and returns the node that replaces it.
func (x *nestedExtractor) reference(spec *rules.FieldSpec, inner Node, members []Node) *Nested {
	x.queries = append(x.queries, inner)
	param := fmt.Sprintf("q%d", len(x.queries))

	filter := spec.NestedFilterQuery
	if filter == "" {
		filter = commonFilter(members)
	}
	return &Nested{
		QueryText:       strings.Replace(spec.NestedQueryTemplate, "%s", param, 1),
		Inner:           inner,
		FilterQueryName: filter,
	}
}

func mergeInto(g *AndNot, n Node) {
	if a, ok := n.(*AndNot); ok {
		g.Ands = append(g.Ands, a.Ands...)
		g.Nots = append(g.Nots, a.Nots...)
		return
	}
	g.Ands = append(g.Ands, n)
}

// firstNested returns the first element lying entirely within one nested group.
func firstNested(list []Node) (int, *rules.FieldSpec) {
	for i, n := range list {
		if spec := nestedGroupOf(n); spec != nil {
			return i, spec
		}
	}
	return -1, nil
}

// nestedGroupOf returns a spec of the nested group every clause below n belongs to, or nil.
// References to extracted sub-queries belong to no group.
func nestedGroupOf(n Node) *rules.FieldSpec {
	switch n := n.(type) {
	case *Search:
		if n.Spec.CanNest() {
			return n.Spec
		}
		return nil
	case *AndNot, *Or:
		var spec *rules.FieldSpec
		kids := children(n)
		if len(kids) == 0 {
			return nil
		}
		for _, c := range kids {
			s := nestedGroupOf(c)
			if s == nil || (spec != nil && !spec.SameNestedGroup(s)) {
				return nil
			}
			if spec == nil {
				spec = s
			}
		}
		return spec
	}
	return nil
}

// memberOf reports whether every clause below n belongs to the nested group of spec.
// A mix of member and non-member clauses is an error at the first clause outside the group.
func memberOf(n Node, spec *rules.FieldSpec) (bool, error) {
	var in, out int
	var first *Search
	var probe func(Node)
	probe = func(n Node) {
		switch n := n.(type) {
		case *Search:
			if n.Spec.SameNestedGroup(spec) {
				in++
				return
			}
			out++
			if first == nil {
				first = n
			}
		case *Nested:
			out++
		default:
			for _, c := range children(n) {
				probe(c)
			}
		}
	}
	probe(n)

	switch {
	case in == 0:
		return false, nil
	case out == 0:
		return true, nil
	}
	pos := 0
	if first != nil {
		pos = first.Pos
	} else {
		Walk(n, func(s *Search) {
			if first == nil {
				first = s
			}
		})
		pos = first.Pos
	}
	return false, diag.New(diag.UnsupportedCombinationOfIndexes, pos,
		"fields of nested group %s cannot be combined with other fields here", spec.NestedGroup)
}

// commonFilter returns the filter query shared by every clause of members, or "".
func commonFilter(members []Node) string {
	name := ""
	for _, m := range members {
		f := filterNameOf(m)
		if f == "" || (name != "" && f != name) {
			return ""
		}
		name = f
	}
	return name
}
