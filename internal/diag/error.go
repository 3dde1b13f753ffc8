package diag

import (
	"errors"
	"fmt"
	"strings"
)

// excerptContext is the number of characters shown on each side of an error offset.
const excerptContext = 50

// Position points at a character offset inside a query.
type Position struct {
	Query  string
	Offset int
}

// Excerpt renders the query around the offset with a ">>>" marker at the error point.
// Context is cut to excerptContext characters on each side; cuts are marked with "...".
func (p Position) Excerpt() string {
	runes := []rune(p.Query)
	off := p.Offset
	if off < 0 {
		off = 0
	}
	if off > len(runes) {
		off = len(runes)
	}

	start := off - excerptContext
	if start < 0 {
		start = 0
	}
	end := off + excerptContext
	if end > len(runes) {
		end = len(runes)
	}

	var b strings.Builder
	if start > 0 {
		b.WriteString("...")
	}
	b.WriteString(string(runes[start:off]))
	b.WriteString(">>>")
	b.WriteString(string(runes[off:end]))
	if end < len(runes) {
		b.WriteString("...")
	}
	return b.String()
}

// Error is a CQL compilation failure carrying an SRU diagnostic.
type Error struct {
	Code     Code
	Detail   string
	Position Position
}

// New creates an Error at the given offset. The query text is attached later with WithQuery.
func New(code Code, offset int, format string, args ...any) *Error {
	detail := format
	if len(args) > 0 {
		detail = fmt.Sprintf(format, args...)
	}
	return &Error{Code: code, Detail: detail, Position: Position{Offset: offset}}
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("cql: %s (%d) at offset %d", e.Code.Message(), int(e.Code), e.Position.Offset)
	}
	return fmt.Sprintf("cql: %s (%d): %s at offset %d", e.Code.Message(), int(e.Code), e.Detail, e.Position.Offset)
}

// Is matches a bare Code or another *Error with the same code.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Code:
		return e.Code == t
	case *Error:
		return e.Code == t.Code
	}
	return false
}

// At returns a copy of e positioned at offset.
func (e *Error) At(offset int) *Error {
	c := *e
	c.Position.Offset = offset
	return &c
}

// WithQuery attaches the query text to a *Error in err's chain that has none yet.
// Other errors are returned unchanged.
func WithQuery(err error, query string) error {
	var de *Error
	if errors.As(err, &de) && de.Position.Query == "" {
		de.Position.Query = query
	}
	return err
}

// CodeOf returns the diagnostic code in err's chain, or GeneralSystemError.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return GeneralSystemError
}
