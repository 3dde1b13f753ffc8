package parser

import (
	"strings"
	"unicode"

	"github.com/nlstn/go-cql/internal/diag"
)

// TokenType represents the type of a token
type TokenType int

const (
	TokenEOL TokenType = iota
	TokenTerm
	TokenText
	TokenRelation
	TokenBoolean
	TokenCompare
	TokenParenOpen
	TokenParenClose
	TokenSlash
	TokenSortBy
)

var tokenNames = [...]string{
	TokenEOL:        "end of query",
	TokenTerm:       "term",
	TokenText:       "search term",
	TokenRelation:   "relation",
	TokenBoolean:    "boolean operator",
	TokenCompare:    "comparison",
	TokenParenOpen:  "'('",
	TokenParenClose: "')'",
	TokenSlash:      "'/'",
	TokenSortBy:     "sortby",
}

func (t TokenType) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return "unknown"
}

// Token is a classified lexeme. Pos is the character offset in the query.
type Token struct {
	Type  TokenType
	Value string
	Kind  BoolKind // set for TokenBoolean
	Pos   int
}

// lexemeKind is the context free shape of a lexeme. Classification into a
// TokenType happens in the Stream, where the surrounding tokens are known.
type lexemeKind int

const (
	lexEOL lexemeKind = iota
	lexWord
	lexQuoted
	lexSymbol
	lexLParen
	lexRParen
	lexSlash
)

type lexeme struct {
	kind  lexemeKind
	value string
	pos   int
}

// symbols are the comparison symbols, longest first for maximal munch.
var symbols = []string{">=", "<=", "<>", "==", "=", ">", "<"}

// lexer scans a query into lexemes. Offsets count characters, not bytes.
type lexer struct {
	input []rune
	pos   int
}

func newLexer(query string) *lexer {
	return &lexer{input: []rune(query)}
}

func (l *lexer) ch() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(l.input[l.pos]) {
		l.pos++
	}
}

func isSymbolChar(r rune) bool {
	return r == '=' || r == '<' || r == '>'
}

// isWordBreak reports whether r ends a word. An apostrophe only opens a quoted
// string at the start of a lexeme, so O'Brien stays one word.
func isWordBreak(r rune) bool {
	return unicode.IsSpace(r) || r == '(' || r == ')' || r == '/' || r == '"' || isSymbolChar(r)
}

// next returns the next lexeme.
func (l *lexer) next() (lexeme, error) {
	l.skipWhitespace()
	pos := l.pos
	if l.pos >= len(l.input) {
		return lexeme{kind: lexEOL, pos: pos}, nil
	}

	switch c := l.ch(); {
	case c == '(':
		l.pos++
		return lexeme{kind: lexLParen, value: "(", pos: pos}, nil
	case c == ')':
		l.pos++
		return lexeme{kind: lexRParen, value: ")", pos: pos}, nil
	case c == '/':
		l.pos++
		return lexeme{kind: lexSlash, value: "/", pos: pos}, nil
	case c == '"' || c == '\'':
		return l.readQuoted()
	case isSymbolChar(c):
		rest := string(l.input[l.pos:min(l.pos+2, len(l.input))])
		for _, s := range symbols {
			if strings.HasPrefix(rest, s) {
				l.pos += len(s)
				return lexeme{kind: lexSymbol, value: s, pos: pos}, nil
			}
		}
	case unicode.IsControl(c):
		return lexeme{}, diag.New(diag.QuerySyntaxError, pos, "Unexpected character %U", c)
	}
	return l.readWord(), nil
}

// readQuoted reads a string delimited by ' or ". A backslash escapes the delimiter;
// every other backslash sequence is kept verbatim so masking escapes survive.
func (l *lexer) readQuoted() (lexeme, error) {
	pos := l.pos
	quote := l.ch()
	l.pos++

	var b strings.Builder
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch {
		case c == quote:
			l.pos++
			return lexeme{kind: lexQuoted, value: b.String(), pos: pos}, nil
		case c == '\\' && l.pos+1 < len(l.input):
			next := l.input[l.pos+1]
			if next == quote {
				b.WriteRune(next)
			} else {
				b.WriteRune(c)
				b.WriteRune(next)
			}
			l.pos += 2
		default:
			b.WriteRune(c)
			l.pos++
		}
	}
	return lexeme{}, diag.New(diag.QuerySyntaxError, pos, "Unterminated quoted string")
}

func (l *lexer) readWord() lexeme {
	pos := l.pos
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if isWordBreak(c) {
			break
		}
		if c == '\\' && l.pos+1 < len(l.input) && !unicode.IsSpace(l.input[l.pos+1]) {
			l.pos += 2
			continue
		}
		l.pos++
	}
	return lexeme{kind: lexWord, value: string(l.input[pos:l.pos]), pos: pos}
}
