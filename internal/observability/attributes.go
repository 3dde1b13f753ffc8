// Package observability provides OpenTelemetry-based instrumentation for the CQL compiler.
//
// It supports distributed tracing, metrics collection, and enhanced structured logging.
//
// All observability features are opt-in. When not configured, no-op implementations
// are used with zero performance overhead.
package observability

import "go.opentelemetry.io/otel/attribute"

// Instrumentation identity constants
const (
	// TracerName is the instrumentation name for tracing.
	TracerName = "github.com/nlstn/go-cql"
	// MeterName is the instrumentation name for metrics.
	MeterName = "github.com/nlstn/go-cql"
)

// CQL semantic attribute keys following OpenTelemetry conventions.
const (
	AttrQuery   = "cql.query"
	AttrProfile = "cql.profile"
	AttrStage   = "cql.stage"

	// Result attributes
	AttrNestedCount = "cql.nested.count"
	AttrFilterCount = "cql.filter.count"
	AttrCacheHit    = "cql.cache.hit"

	// Error attributes
	AttrDiagnostic = "cql.diagnostic"
	AttrErrorType  = "error.type"

	// Rules attributes
	AttrRulesSource = "cql.rules.source"
)

// Compilation stages for the cql.stage attribute.
const (
	StageParse          = "parse"
	StageFlatten        = "flatten"
	StageExtractNested  = "extract_nested"
	StageExtractFilters = "extract_filters"
	StageRender         = "render"
)

// Log field keys for structured logging with trace context.
const (
	LogFieldQuery      = "query"
	LogFieldProfile    = "profile"
	LogFieldTraceID    = "trace_id"
	LogFieldSpanID     = "span_id"
	LogFieldRequestID  = "request_id"
	LogFieldDuration   = "duration_ms"
	LogFieldDiagnostic = "diagnostic"
	LogFieldError      = "error"
)

// QueryAttr creates an attribute for the CQL query text.
func QueryAttr(query string) attribute.KeyValue {
	return attribute.String(AttrQuery, query)
}

// ProfileAttr creates an attribute for the result profile.
func ProfileAttr(profile string) attribute.KeyValue {
	return attribute.String(AttrProfile, profile)
}

// StageAttr creates an attribute for a compilation stage.
func StageAttr(stage string) attribute.KeyValue {
	return attribute.String(AttrStage, stage)
}

// NestedCountAttr creates an attribute for the number of nested sub-queries.
func NestedCountAttr(n int) attribute.KeyValue {
	return attribute.Int(AttrNestedCount, n)
}

// FilterCountAttr creates an attribute for the number of filter queries.
func FilterCountAttr(n int) attribute.KeyValue {
	return attribute.Int(AttrFilterCount, n)
}

// CacheHitAttr creates an attribute telling whether a result came from the cache.
func CacheHitAttr(hit bool) attribute.KeyValue {
	return attribute.Bool(AttrCacheHit, hit)
}

// DiagnosticAttr creates an attribute for an SRU diagnostic code.
func DiagnosticAttr(code int) attribute.KeyValue {
	return attribute.Int(AttrDiagnostic, code)
}

// RulesSourceAttr creates an attribute for where rules were loaded from.
func RulesSourceAttr(source string) attribute.KeyValue {
	return attribute.String(AttrRulesSource, source)
}
