package parser

import (
	"sort"
	"strings"
)

// Modifier is a /name or /name<symbol>value qualifier on a relation or boolean.
type Modifier struct {
	Name   string
	Symbol string
	Value  string
}

// IsFlag reports whether the modifier carries no comparison.
func (m Modifier) IsFlag() bool {
	return m.Symbol == ""
}

func (m Modifier) String() string {
	if m.IsFlag() {
		return "/" + m.Name
	}
	return "/" + m.Name + m.Symbol + m.Value
}

// Modifiers maps lowercased modifier names to modifiers.
type Modifiers map[string]Modifier

// Has reports whether a modifier with the given name is present.
func (m Modifiers) Has(name string) bool {
	_, ok := m[strings.ToLower(name)]
	return ok
}

// Names returns the modifier names in sorted order.
func (m Modifiers) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lower(s string) string {
	return strings.ToLower(s)
}
