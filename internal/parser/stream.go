package parser

import "strings"

// Stream hands out classified tokens on demand. Lexemes are scanned lazily and
// buffered, so a failed Take leaves the stream where it was.
type Stream struct {
	lx        *lexer
	buf       []lexeme
	pos       int
	relations map[string]Policy
	booleans  map[string]BooleanOp
}

// NewStream creates a token stream over query. relations and booleans decide which
// words classify as relation and boolean tokens; keys are matched case-insensitively.
func NewStream(query string, relations map[string]Policy, booleans map[string]BooleanOp) *Stream {
	return &Stream{
		lx:        newLexer(query),
		relations: lowerKeys(relations),
		booleans:  lowerKeys(booleans),
	}
}

func lowerKeys[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}

// fill makes sure the lexeme at index i is buffered.
func (s *Stream) fill(i int) error {
	for len(s.buf) <= i {
		if n := len(s.buf); n > 0 && s.buf[n-1].kind == lexEOL {
			s.buf = append(s.buf, s.buf[n-1])
			continue
		}
		lx, err := s.lx.next()
		if err != nil {
			return err
		}
		s.buf = append(s.buf, lx)
	}
	return nil
}

func (s *Stream) at(i int) (lexeme, error) {
	if err := s.fill(i); err != nil {
		return lexeme{}, err
	}
	return s.buf[i], nil
}

// Peek returns the position of the next lexeme without consuming it.
func (s *Stream) Peek() (int, error) {
	lx, err := s.at(s.pos)
	if err != nil {
		return 0, err
	}
	return lx.pos, nil
}

// Take consumes len(types) tokens if the upcoming lexemes classify as types, in order.
// Otherwise nothing is consumed and ok is false.
func (s *Stream) Take(types ...TokenType) ([]Token, bool, error) {
	tokens := make([]Token, 0, len(types))
	for i, tt := range types {
		tok, ok, err := s.classify(s.pos+i, tt)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
		tokens = append(tokens, tok)
	}
	s.pos += len(types)
	return tokens, true, nil
}

// TakeOne is Take for a single token.
func (s *Stream) TakeOne(tt TokenType) (Token, bool, error) {
	toks, ok, err := s.Take(tt)
	if !ok || err != nil {
		return Token{}, ok, err
	}
	return toks[0], true, nil
}

func (s *Stream) classify(i int, tt TokenType) (Token, bool, error) {
	lx, err := s.at(i)
	if err != nil {
		return Token{}, false, err
	}
	tok := Token{Type: tt, Value: lx.value, Pos: lx.pos}
	lower := strings.ToLower(lx.value)

	switch tt {
	case TokenEOL:
		return tok, lx.kind == lexEOL, nil
	case TokenParenOpen:
		return tok, lx.kind == lexLParen, nil
	case TokenParenClose:
		return tok, lx.kind == lexRParen, nil
	case TokenSlash:
		return tok, lx.kind == lexSlash, nil
	case TokenCompare:
		return tok, lx.kind == lexSymbol, nil
	case TokenTerm:
		return tok, lx.kind == lexWord, nil
	case TokenSortBy:
		return tok, lx.kind == lexWord && lower == "sortby", nil
	case TokenBoolean:
		if lx.kind != lexWord {
			return tok, false, nil
		}
		op, ok := s.booleans[lower]
		tok.Value = lower
		tok.Kind = op.Kind
		return tok, ok, nil
	case TokenText:
		if lx.kind == lexQuoted {
			return tok, true, nil
		}
		if lx.kind != lexWord || lower == "sortby" {
			return tok, false, nil
		}
		_, isBool := s.booleans[lower]
		return tok, !isBool, nil
	case TokenRelation:
		if lx.kind != lexWord && lx.kind != lexSymbol {
			return tok, false, nil
		}
		if _, ok := s.relations[lower]; !ok {
			return tok, false, nil
		}
		follows, err := s.relationOperandFollows(i + 1)
		if err != nil {
			return tok, false, err
		}
		tok.Value = lower
		return tok, follows, nil
	}
	return tok, false, nil
}

// relationOperandFollows reports whether the lexemes from i on are modifiers followed
// by a search term or an opening parenthesis.
func (s *Stream) relationOperandFollows(i int) (bool, error) {
	for {
		lx, err := s.at(i)
		if err != nil {
			return false, err
		}
		if lx.kind != lexSlash {
			break
		}
		name, err := s.at(i + 1)
		if err != nil {
			return false, err
		}
		if name.kind != lexWord {
			return false, nil
		}
		i += 2
		cmp, err := s.at(i)
		if err != nil {
			return false, err
		}
		if cmp.kind == lexSymbol {
			i += 2
		}
	}

	lx, err := s.at(i)
	if err != nil {
		return false, err
	}
	switch lx.kind {
	case lexQuoted, lexLParen:
		return true, nil
	case lexWord:
		lower := strings.ToLower(lx.value)
		_, isBool := s.booleans[lower]
		return !isBool && lower != "sortby", nil
	}
	return false, nil
}
