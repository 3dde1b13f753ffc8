package cql

import (
	"github.com/nlstn/go-cql/internal/diag"
	"github.com/nlstn/go-cql/internal/flat"
)

// Error is a rejected query. It carries an SRU diagnostic code, a detail message and the
// position of the offending input. Use errors.As to inspect it, or errors.Is with a Code.
type Error = diag.Error

// Code is an SRU diagnostic code.
type Code = diag.Code

// Position locates an error inside a query.
type Position = diag.Position

// ErrMalformedQuery reports an internal failure of the compiler, never bad input.
var ErrMalformedQuery = flat.ErrMalformedQuery

// Diagnostics reported by the compiler.
const (
	GeneralSystemError                        = diag.GeneralSystemError
	UnsupportedParameterValue                 = diag.UnsupportedParameterValue
	MandatoryParameterNotSupplied             = diag.MandatoryParameterNotSupplied
	QuerySyntaxError                          = diag.QuerySyntaxError
	InvalidOrUnsupportedUseOfParentheses      = diag.InvalidOrUnsupportedUseOfParentheses
	InvalidOrUnsupportedUseOfQuotes           = diag.InvalidOrUnsupportedUseOfQuotes
	UnsupportedIndex                          = diag.UnsupportedIndex
	UnsupportedCombinationOfIndexes           = diag.UnsupportedCombinationOfIndexes
	UnsupportedRelation                       = diag.UnsupportedRelation
	UnsupportedRelationModifier               = diag.UnsupportedRelationModifier
	UnsupportedCombinationOfRelationModifiers = diag.UnsupportedCombinationOfRelationModifiers
	UnsupportedCombinationOfRelationAndIndex  = diag.UnsupportedCombinationOfRelationAndIndex
	EmptyTermUnsupported                      = diag.EmptyTermUnsupported
	MaskingCharacterNotSupported              = diag.MaskingCharacterNotSupported
	ProximityAndMaskingNotSupported           = diag.ProximityAndMaskingNotSupported
	TermInInvalidFormat                       = diag.TermInInvalidFormat
	UnsupportedBooleanOperator                = diag.UnsupportedBooleanOperator
	ProximityNotSupported                     = diag.ProximityNotSupported
	UnsupportedBooleanModifier                = diag.UnsupportedBooleanModifier
	SortNotSupported                          = diag.SortNotSupported
)

// CodeOf returns the diagnostic of err, or GeneralSystemError for internal failures.
func CodeOf(err error) Code {
	return diag.CodeOf(err)
}
