// Package diag holds the SRU diagnostic table used to report CQL compilation failures.
package diag

import "fmt"

// Code is an SRU diagnostic code. Codes compare equal to any *Error carrying them
// through errors.Is.
type Code int

// SRU diagnostics, info:srw/diagnostic/1/<code>.
const (
	GeneralSystemError                          Code = 1
	SystemTemporarilyUnavailable                Code = 2
	AuthenticationError                         Code = 3
	UnsupportedOperation                        Code = 4
	UnsupportedVersion                          Code = 5
	UnsupportedParameterValue                   Code = 6
	MandatoryParameterNotSupplied               Code = 7
	UnsupportedParameter                        Code = 8
	QuerySyntaxError                            Code = 10
	UnsupportedQueryType                        Code = 11
	TooManyCharactersInQuery                    Code = 12
	InvalidOrUnsupportedUseOfParentheses        Code = 13
	InvalidOrUnsupportedUseOfQuotes             Code = 14
	UnsupportedContextSet                       Code = 15
	UnsupportedIndex                            Code = 16
	UnsupportedCombinationOfIndexAndContextSet  Code = 17
	UnsupportedCombinationOfIndexes             Code = 18
	UnsupportedRelation                         Code = 19
	UnsupportedRelationModifier                 Code = 20
	UnsupportedCombinationOfRelationModifiers   Code = 21
	UnsupportedCombinationOfRelationAndIndex    Code = 22
	TooManyCharactersInTerm                     Code = 23
	UnsupportedCombinationOfRelationAndTerm     Code = 24
	SpecialCharactersNotQuotedInTerm            Code = 25
	NonSpecialCharacterEscapedInTerm            Code = 26
	EmptyTermUnsupported                        Code = 27
	MaskingCharacterNotSupported                Code = 28
	MaskedWordsTooShort                         Code = 29
	TooManyMaskingCharactersInTerm              Code = 30
	AnchoringCharacterNotSupported              Code = 31
	AnchoringCharacterInUnsupportedPosition     Code = 32
	ProximityAndMaskingNotSupported             Code = 33
	ProximityAndAnchoringNotSupported           Code = 34
	TermContainsOnlyStopwords                   Code = 35
	TermInInvalidFormat                         Code = 36
	UnsupportedBooleanOperator                  Code = 37
	TooManyBooleanOperators                     Code = 38
	ProximityNotSupported                       Code = 39
	UnsupportedProximityRelation                Code = 40
	UnsupportedProximityDistance                Code = 41
	UnsupportedProximityUnit                    Code = 42
	UnsupportedProximityOrdering                Code = 43
	UnsupportedCombinationOfProximityModifiers  Code = 44
	PrefixAssignedToMultipleIdentifiers         Code = 45
	UnsupportedBooleanModifier                  Code = 46
	CannotProcessQuery                          Code = 47
	QueryFeatureUnsupported                     Code = 48
	MaskingCharacterInUnsupportedPosition       Code = 49
	ResultSetsNotSupported                      Code = 50
	ResultSetDoesNotExist                       Code = 51
	ResultSetTemporarilyUnavailable             Code = 52
	ResultSetsOnlySupportedForRetrieval         Code = 53
	CombinationOfResultSetsWithTermsUnsupported Code = 55
	OnlySingleResultSetWithTermsSupported       Code = 56
	ResultSetCreatedUnpredictablePartial        Code = 58
	ResultSetCreatedValidPartial                Code = 59
	ResultSetNotCreatedTooManyRecords           Code = 60
	FirstRecordPositionOutOfRange               Code = 61
	RecordTemporarilyUnavailable                Code = 64
	RecordDoesNotExist                          Code = 65
	UnknownSchemaForRetrieval                   Code = 66
	RecordNotAvailableInSchema                  Code = 67
	NotAuthorisedToSendRecord                   Code = 68
	NotAuthorisedToSendRecordInSchema           Code = 69
	RecordTooLargeToSend                        Code = 70
	UnsupportedRecordPacking                    Code = 71
	XPathRetrievalUnsupported                   Code = 72
	XPathExpressionUnsupportedFeature           Code = 73
	UnableToEvaluateXPath                       Code = 74
	SortNotSupported                            Code = 80
	UnsupportedSortSequence                     Code = 82
	TooManyRecordsToSort                        Code = 83
	TooManySortKeys                             Code = 84
	CannotSortIncompatibleFormats               Code = 86
	UnsupportedSchemaForSort                    Code = 87
	UnsupportedPathForSort                      Code = 88
	PathUnsupportedForSchema                    Code = 89
	UnsupportedSortDirection                    Code = 90
	UnsupportedSortCase                         Code = 91
	UnsupportedMissingValueAction               Code = 92
	SortEndedMissingValue                       Code = 93
	StylesheetsNotSupported                     Code = 110
	UnsupportedStylesheet                       Code = 111
)

var messages = map[Code]string{
	GeneralSystemError:                          "General system error",
	SystemTemporarilyUnavailable:                "System temporarily unavailable",
	AuthenticationError:                         "Authentication error",
	UnsupportedOperation:                        "Unsupported operation",
	UnsupportedVersion:                          "Unsupported version",
	UnsupportedParameterValue:                   "Unsupported parameter value",
	MandatoryParameterNotSupplied:               "Mandatory parameter not supplied",
	UnsupportedParameter:                        "Unsupported parameter",
	QuerySyntaxError:                            "Query syntax error",
	UnsupportedQueryType:                        "Unsupported query type",
	TooManyCharactersInQuery:                    "Too many characters in query",
	InvalidOrUnsupportedUseOfParentheses:        "Invalid or unsupported use of parentheses",
	InvalidOrUnsupportedUseOfQuotes:             "Invalid or unsupported use of quotes",
	UnsupportedContextSet:                       "Unsupported context set",
	UnsupportedIndex:                            "Unsupported index",
	UnsupportedCombinationOfIndexAndContextSet:  "Unsupported combination of index and context set",
	UnsupportedCombinationOfIndexes:             "Unsupported combination of indexes",
	UnsupportedRelation:                         "Unsupported relation",
	UnsupportedRelationModifier:                 "Unsupported relation modifier",
	UnsupportedCombinationOfRelationModifiers:   "Unsupported combination of relation modifers",
	UnsupportedCombinationOfRelationAndIndex:    "Unsupported combination of relation and index",
	TooManyCharactersInTerm:                     "Too many characters in term",
	UnsupportedCombinationOfRelationAndTerm:     "Unsupported combination of relation and term",
	SpecialCharactersNotQuotedInTerm:            "Special characters not quoted in term",
	NonSpecialCharacterEscapedInTerm:            "Non special character escaped in term",
	EmptyTermUnsupported:                        "Empty term unsupported",
	MaskingCharacterNotSupported:                "Masking character not supported",
	MaskedWordsTooShort:                         "Masked words too short",
	TooManyMaskingCharactersInTerm:              "Too many masking characters in term",
	AnchoringCharacterNotSupported:              "Anchoring character not supported",
	AnchoringCharacterInUnsupportedPosition:     "Anchoring character in unsupported position",
	ProximityAndMaskingNotSupported:             "Combination of proximity/adjacency and masking characters not supported",
	ProximityAndAnchoringNotSupported:           "Combination of proximity/adjacency and anchoring characters not supported",
	TermContainsOnlyStopwords:                   "Term contains only stopwords",
	TermInInvalidFormat:                         "Term in invalid format for index or relation",
	UnsupportedBooleanOperator:                  "Unsupported boolean operator",
	TooManyBooleanOperators:                     "Too many boolean operators in query",
	ProximityNotSupported:                       "Proximity not supported",
	UnsupportedProximityRelation:                "Unsupported proximity relation",
	UnsupportedProximityDistance:                "Unsupported proximity distance",
	UnsupportedProximityUnit:                    "Unsupported proximity unit",
	UnsupportedProximityOrdering:                "Unsupported proximity ordering",
	UnsupportedCombinationOfProximityModifiers:  "Unsupported combination of proximity modifiers",
	PrefixAssignedToMultipleIdentifiers:         "Index set name (prefix) assigned to multiple identifiers",
	UnsupportedBooleanModifier:                  "Unsupported boolean modifier",
	CannotProcessQuery:                          "Cannot process query; reason unknown",
	QueryFeatureUnsupported:                     "Query feature unsupported",
	MaskingCharacterInUnsupportedPosition:       "Masking character in unsupported position",
	ResultSetsNotSupported:                      "Result sets not supported",
	ResultSetDoesNotExist:                       "Result set does not exist",
	ResultSetTemporarilyUnavailable:             "Result set temporarily unavailable",
	ResultSetsOnlySupportedForRetrieval:         "Result sets only supported for retrieval",
	CombinationOfResultSetsWithTermsUnsupported: "Combination of result sets with search terms not supported",
	OnlySingleResultSetWithTermsSupported:       "Only combination of single result set with search terms supported",
	ResultSetCreatedUnpredictablePartial:        "Result set created with unpredictable partial results available",
	ResultSetCreatedValidPartial:                "Result set created with valid partial results available",
	ResultSetNotCreatedTooManyRecords:           "Result set not created: too many matching records",
	FirstRecordPositionOutOfRange:               "First record position out of range",
	RecordTemporarilyUnavailable:                "Record temporarily unavailable",
	RecordDoesNotExist:                          "Record does not exist",
	UnknownSchemaForRetrieval:                   "Unknown schema for retrieval",
	RecordNotAvailableInSchema:                  "Record not available in this schema",
	NotAuthorisedToSendRecord:                   "Not authorised to send record",
	NotAuthorisedToSendRecordInSchema:           "Not authorised to send record in this schema",
	RecordTooLargeToSend:                        "Record too large to send",
	UnsupportedRecordPacking:                    "Unsupported record packing",
	XPathRetrievalUnsupported:                   "XPath retrieval unsupported",
	XPathExpressionUnsupportedFeature:           "XPath expression contains unsupported feature",
	UnableToEvaluateXPath:                       "Unable to evaluate XPath expression",
	SortNotSupported:                            "Sort not supported",
	UnsupportedSortSequence:                     "Unsupported sort sequence",
	TooManyRecordsToSort:                        "Too many records to sort",
	TooManySortKeys:                             "Too many sort keys to sort",
	CannotSortIncompatibleFormats:               "Cannot sort: incompatible record formats",
	UnsupportedSchemaForSort:                    "Unsupported schema for sort",
	UnsupportedPathForSort:                      "Unsupported path for sort",
	PathUnsupportedForSchema:                    "Path unsupported for schema",
	UnsupportedSortDirection:                    "Unsupported direction",
	UnsupportedSortCase:                         "Unsupported case",
	UnsupportedMissingValueAction:               "Unsupported missing value action",
	SortEndedMissingValue:                       "Sort ended due to missing value",
	StylesheetsNotSupported:                     "Stylesheets not supported",
	UnsupportedStylesheet:                       "Unsupported stylesheet",
}

// Message returns the canonical SRU message for the code.
func (c Code) Message() string {
	if m, ok := messages[c]; ok {
		return m
	}
	return fmt.Sprintf("Unknown diagnostic %d", int(c))
}

// URI returns the diagnostic URI, e.g. info:srw/diagnostic/1/10.
func (c Code) URI() string {
	return fmt.Sprintf("info:srw/diagnostic/1/%d", int(c))
}

// Known reports whether the code is part of the diagnostic table.
func (c Code) Known() bool {
	_, ok := messages[c]
	return ok
}

func (c Code) String() string {
	return fmt.Sprintf("%d %s", int(c), c.Message())
}

// Error makes a bare Code usable as an errors.Is target.
func (c Code) Error() string {
	return c.Message()
}
