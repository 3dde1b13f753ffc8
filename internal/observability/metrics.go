package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the compiler metric instruments.
type Metrics struct {
	compileDuration metric.Float64Histogram
	compileCount    metric.Int64Counter
	nestedCount     metric.Int64Histogram
	cacheLookups    metric.Int64Counter
	errorCount      metric.Int64Counter
	requestDuration metric.Float64Histogram
	dbQueryDuration metric.Float64Histogram
}

// NewMetrics creates a new Metrics instance with the given MeterProvider.
func NewMetrics(mp metric.MeterProvider) *Metrics {
	meter := mp.Meter(MeterName)
	m := &Metrics{}

	// Instrument creation only fails on invalid parameters; fall back to bare instruments.
	var err error

	m.compileDuration, err = meter.Float64Histogram(
		"cql.compile.duration",
		metric.WithDescription("Duration of CQL compilations in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.compileDuration, _ = meter.Float64Histogram("cql.compile.duration")
	}

	m.compileCount, err = meter.Int64Counter(
		"cql.compile.count",
		metric.WithDescription("Total number of CQL compilations"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		m.compileCount, _ = meter.Int64Counter("cql.compile.count")
	}

	m.nestedCount, err = meter.Int64Histogram(
		"cql.nested.count",
		metric.WithDescription("Number of nested sub-queries per compiled query"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		m.nestedCount, _ = meter.Int64Histogram("cql.nested.count")
	}

	m.cacheLookups, err = meter.Int64Counter(
		"cql.cache.lookups",
		metric.WithDescription("Compile cache lookups by outcome"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		m.cacheLookups, _ = meter.Int64Counter("cql.cache.lookups")
	}

	m.errorCount, err = meter.Int64Counter(
		"cql.error.count",
		metric.WithDescription("Total number of rejected CQL queries"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		m.errorCount, _ = meter.Int64Counter("cql.error.count")
	}

	m.requestDuration, err = meter.Float64Histogram(
		"cql.request.duration",
		metric.WithDescription("Duration of compile HTTP requests in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.requestDuration, _ = meter.Float64Histogram("cql.request.duration")
	}

	m.dbQueryDuration, err = meter.Float64Histogram(
		"cql.db.query.duration",
		metric.WithDescription("Duration of rules store queries in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.dbQueryDuration, _ = meter.Float64Histogram("cql.db.query.duration")
	}

	return m
}

// RecordCompile records a successful compilation.
func (m *Metrics) RecordCompile(ctx context.Context, profile string, nested int, duration time.Duration) {
	attrs := metric.WithAttributes(ProfileAttr(profile))
	m.compileDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	m.compileCount.Add(ctx, 1, attrs)
	m.nestedCount.Record(ctx, int64(nested), attrs)
}

// RecordCacheLookup records a compile cache hit or miss.
func (m *Metrics) RecordCacheLookup(ctx context.Context, hit bool) {
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(CacheHitAttr(hit)))
}

// RecordError records a rejected query. code is the SRU diagnostic, errorType separates
// client diagnostics from internal failures.
func (m *Metrics) RecordError(ctx context.Context, code int, errorType string) {
	m.errorCount.Add(ctx, 1, metric.WithAttributes(
		DiagnosticAttr(code),
		attribute.String(AttrErrorType, errorType),
	))
}

// RecordRequest records a completed compile HTTP request.
func (m *Metrics) RecordRequest(ctx context.Context, statusCode int, duration time.Duration) {
	m.requestDuration.Record(ctx, float64(duration.Milliseconds()),
		metric.WithAttributes(attribute.Int("http.status_code", statusCode)))
}

// RecordDBQuery records metrics for a rules store query.
func (m *Metrics) RecordDBQuery(ctx context.Context, operation string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("db.operation", operation))
	m.dbQueryDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}
