package parser

import (
	"github.com/nlstn/go-cql/internal/diag"
)

// Parser is a recursive descent CQL parser.
//
//	query       = boolean EOL
//	boolean     = search (BOOLEAN modifiers search)*
//	search      = "(" boolean ")" | TERM RELATION modifiers ("(" cclGroup ")" | TEXT) | TEXT
//	cclGroup    = cclValue (BOOLEAN cclValue)*
//	cclValue    = "(" cclGroup ")" | TEXT
//	modifiers   = ("/" TERM (COMPARE TERM)?)*
type Parser struct {
	stream    *Stream
	relations map[string]Policy
	booleans  map[string]BooleanOp
}

// NewParser creates a parser for query. Nil tables select DefaultRelations and DefaultBooleans.
func NewParser(query string, relations map[string]Policy, booleans map[string]BooleanOp) *Parser {
	if relations == nil {
		relations = DefaultRelations()
	}
	if booleans == nil {
		booleans = DefaultBooleans()
	}
	s := NewStream(query, relations, booleans)
	return &Parser{
		stream:    s,
		relations: s.relations,
		booleans:  s.booleans,
	}
}

// Parse parses query into a tree using the given operator tables.
func Parse(query string, relations map[string]Policy, booleans map[string]BooleanOp) (Node, error) {
	return NewParser(query, relations, booleans).Parse()
}

// Parse parses the whole query. Anything left after the outermost boolean expression
// is an error.
func (p *Parser) Parse() (Node, error) {
	node, err := p.parseBoolean()
	if err != nil {
		return nil, err
	}

	if _, ok, err := p.stream.TakeOne(TokenEOL); err != nil {
		return nil, err
	} else if ok {
		return node, nil
	}
	if tok, ok, err := p.stream.TakeOne(TokenSortBy); err != nil {
		return nil, err
	} else if ok {
		return nil, diag.New(diag.SortNotSupported, tok.Pos, "sortby")
	}
	if tok, ok, err := p.stream.TakeOne(TokenParenClose); err != nil {
		return nil, err
	} else if ok {
		return nil, diag.New(diag.InvalidOrUnsupportedUseOfParentheses, tok.Pos, "Unbalanced ')'")
	}
	pos, err := p.stream.Peek()
	if err != nil {
		return nil, err
	}
	return nil, diag.New(diag.QuerySyntaxError, pos, "Illegal operator")
}

func (p *Parser) parseBoolean() (Node, error) {
	left, err := p.parseSearch()
	if err != nil {
		return nil, err
	}

	for {
		tok, ok, err := p.stream.TakeOne(TokenBoolean)
		if err != nil {
			return nil, err
		}
		if !ok {
			return left, nil
		}
		mods, err := p.parseModifiers()
		if err != nil {
			return nil, err
		}
		op := p.booleans[tok.Value]
		if verr := op.Policy.validate(tok.Value, mods, booleanCodes); verr != nil {
			return nil, verr.At(tok.Pos)
		}
		right, err := p.parseSearch()
		if err != nil {
			return nil, err
		}
		left = &Bool{
			Left:      left,
			Operator:  tok.Value,
			Kind:      op.Kind,
			Modifiers: mods,
			Right:     right,
			Pos:       tok.Pos,
		}
	}
}

func (p *Parser) parseSearch() (Node, error) {
	if _, ok, err := p.stream.TakeOne(TokenParenOpen); err != nil {
		return nil, err
	} else if ok {
		node, err := p.parseBoolean()
		if err != nil {
			return nil, err
		}
		return node, p.expectParenClose()
	}

	toks, ok, err := p.stream.Take(TokenTerm, TokenRelation)
	if err != nil {
		return nil, err
	}
	if ok {
		return p.parseRelationClause(toks[0], toks[1])
	}

	text, ok, err := p.stream.TakeOne(TokenText)
	if err != nil {
		return nil, err
	}
	if ok {
		return &Search{
			Index:     DefaultIndex,
			Relation:  DefaultRelation,
			Modifiers: Modifiers{},
			Term:      text.Value,
			Pos:       text.Pos,
		}, nil
	}
	return nil, p.unexpected("Expected search term")
}

func (p *Parser) parseRelationClause(index, rel Token) (Node, error) {
	mods, err := p.parseModifiers()
	if err != nil {
		return nil, err
	}
	if verr := p.relations[rel.Value].validate(rel.Value, mods, relationCodes); verr != nil {
		return nil, verr.At(rel.Pos)
	}

	if _, ok, err := p.stream.TakeOne(TokenParenOpen); err != nil {
		return nil, err
	} else if ok {
		node, err := p.parseCCLGroup(index, rel, mods)
		if err != nil {
			return nil, err
		}
		return node, p.expectParenClose()
	}

	text, ok, err := p.stream.TakeOne(TokenText)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, p.unexpected("Expected search term")
	}
	return &Search{
		Index:     index.Value,
		Relation:  rel.Value,
		Modifiers: mods,
		Term:      text.Value,
		Pos:       index.Pos,
	}, nil
}

// parseCCLGroup parses "index relation (a or b and c)", applying the index, relation
// and modifiers to every term of the group.
func (p *Parser) parseCCLGroup(index, rel Token, mods Modifiers) (Node, error) {
	left, err := p.parseCCLValue(index, rel, mods)
	if err != nil {
		return nil, err
	}

	for {
		tok, ok, err := p.stream.TakeOne(TokenBoolean)
		if err != nil {
			return nil, err
		}
		if !ok {
			return left, nil
		}
		if tok.Kind == BoolProx {
			return nil, diag.New(diag.ProximityNotSupported, tok.Pos, "%s cannot be used in a term group", tok.Value)
		}
		op := p.booleans[tok.Value]
		if verr := op.Policy.validate(tok.Value, Modifiers{}, booleanCodes); verr != nil {
			return nil, verr.At(tok.Pos)
		}
		right, err := p.parseCCLValue(index, rel, mods)
		if err != nil {
			return nil, err
		}
		left = &Bool{
			Left:      left,
			Operator:  tok.Value,
			Kind:      op.Kind,
			Modifiers: Modifiers{},
			Right:     right,
			Pos:       tok.Pos,
		}
	}
}

func (p *Parser) parseCCLValue(index, rel Token, mods Modifiers) (Node, error) {
	if _, ok, err := p.stream.TakeOne(TokenParenOpen); err != nil {
		return nil, err
	} else if ok {
		node, err := p.parseCCLGroup(index, rel, mods)
		if err != nil {
			return nil, err
		}
		return node, p.expectParenClose()
	}

	text, ok, err := p.stream.TakeOne(TokenText)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, p.unexpected("Expected search term")
	}
	return &Search{
		Index:     index.Value,
		Relation:  rel.Value,
		Modifiers: mods,
		Term:      text.Value,
		Pos:       index.Pos,
	}, nil
}

// parseModifiers collects "/name" and "/name<cmp>value" pairs. A repeated name is
// reported at the start of the modifier block.
func (p *Parser) parseModifiers() (Modifiers, error) {
	mods := Modifiers{}
	start := -1

	for {
		toks, ok, err := p.stream.Take(TokenSlash, TokenTerm)
		if err != nil {
			return nil, err
		}
		if !ok {
			return mods, nil
		}
		if start < 0 {
			start = toks[0].Pos
		}

		m := Modifier{Name: lower(toks[1].Value)}
		value, ok, err := p.stream.Take(TokenCompare, TokenTerm)
		if err != nil {
			return nil, err
		}
		if !ok {
			value, ok, err = p.stream.Take(TokenCompare, TokenText)
			if err != nil {
				return nil, err
			}
		}
		if ok {
			m.Symbol = value[0].Value
			m.Value = value[1].Value
		}

		if _, dup := mods[m.Name]; dup {
			return nil, diag.New(diag.QuerySyntaxError, start, "Modifier %s is repeated", m.Name)
		}
		mods[m.Name] = m
	}
}

func (p *Parser) expectParenClose() error {
	_, ok, err := p.stream.TakeOne(TokenParenClose)
	if err != nil {
		return err
	}
	if !ok {
		pos, err := p.stream.Peek()
		if err != nil {
			return err
		}
		return diag.New(diag.InvalidOrUnsupportedUseOfParentheses, pos, "Expected ')'")
	}
	return nil
}

// unexpected reports a syntax error at the next token.
func (p *Parser) unexpected(detail string) error {
	pos, err := p.stream.Peek()
	if err != nil {
		return err
	}
	if _, ok, _ := p.stream.TakeOne(TokenEOL); ok {
		return diag.New(diag.QuerySyntaxError, pos, "Unexpected end of query")
	}
	return diag.New(diag.QuerySyntaxError, pos, "%s", detail)
}
