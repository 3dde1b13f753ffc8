// Package rules maps CQL index names to backend fields and their search behaviour.
package rules

import (
	"fmt"
	"strings"

	"github.com/nlstn/go-cql/internal/parser"
)

// FieldType is the value type of a backend field.
type FieldType int

const (
	TypeText FieldType = iota
	TypePhrase
	TypeNumber
	TypeDate
)

func (t FieldType) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypePhrase:
		return "phrase"
	case TypeNumber:
		return "number"
	case TypeDate:
		return "date"
	}
	return "unknown"
}

// ParseFieldType parses a type name as written in rules configuration. An empty name is text.
func ParseFieldType(name string) (FieldType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text":
		return TypeText, nil
	case "phrase":
		return TypePhrase, nil
	case "number":
		return TypeNumber, nil
	case "date":
		return TypeDate, nil
	}
	return TypeText, fmt.Errorf("unknown field type %q", name)
}

// IsRange reports whether range relations apply to the type.
func (t FieldType) IsRange() bool {
	return t == TypeNumber || t == TypeDate
}

// FieldSpec is the resolved configuration of one index. FieldSpecs are shared
// between compilations and must not be modified.
type FieldSpec struct {
	// Name is the backend field name; empty means the backend's default field.
	Name        string
	Type        FieldType
	NestedGroup string
	FilterQuery string
	// NestedQueryTemplate renders the reference to a nested sub-query; "%s" is
	// replaced with the sub-query parameter name.
	NestedQueryTemplate string
	// NestedRule is a clause every nested sub-query of the group must also match.
	NestedRule parser.Node
	// NestedFilterQuery, when set, is the filter query of nested sub-queries of the group.
	NestedFilterQuery string
}

// CanNest reports whether the field belongs to a nested group.
func (s *FieldSpec) CanNest() bool {
	return s != nil && s.NestedGroup != ""
}

// SameNestedGroup reports whether both specs belong to the same nested group.
func (s *FieldSpec) SameNestedGroup(other *FieldSpec) bool {
	return s.CanNest() && other.CanNest() && s.NestedGroup == other.NestedGroup
}
