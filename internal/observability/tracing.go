package observability

import (
	"context"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps an OpenTelemetry tracer with compiler-specific span creation methods.
type Tracer struct {
	tracer  trace.Tracer
	service []attribute.KeyValue
}

// NewTracer creates a new Tracer using the given TracerProvider. Compile spans carry the
// service name and version when they are set.
func NewTracer(tp trace.TracerProvider, serviceName, serviceVersion string) *Tracer {
	t := &Tracer{tracer: tp.Tracer(TracerName, trace.WithInstrumentationVersion(serviceVersion))}
	if serviceName != "" {
		t.service = append(t.service, attribute.String("service.name", serviceName))
	}
	if serviceVersion != "" {
		t.service = append(t.service, attribute.String("service.version", serviceVersion))
	}
	return t
}

// StartCompile starts a span for one compilation. The query text is only recorded
// when withQuery is set.
func (t *Tracer) StartCompile(ctx context.Context, query, profile string, withQuery bool) (context.Context, trace.Span) {
	attrs := append([]attribute.KeyValue{ProfileAttr(profile)}, t.service...)
	if withQuery {
		attrs = append(attrs, QueryAttr(query))
	}
	return t.tracer.Start(ctx, "cql.compile", trace.WithAttributes(attrs...))
}

// StartStage starts a span for a single compilation stage.
func (t *Tracer) StartStage(ctx context.Context, stage string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "cql."+stage, trace.WithAttributes(StageAttr(stage)))
}

// StartRulesLoad starts a span for loading a rules configuration.
func (t *Tracer) StartRulesLoad(ctx context.Context, source string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "cql.rules.load", trace.WithAttributes(RulesSourceAttr(source)))
}

// StartDBQuery starts a span for a rules store query.
func (t *Tracer) StartDBQuery(ctx context.Context, operation string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "db.query", trace.WithAttributes(
		attribute.String("db.operation", operation),
	))
}

// SetHTTPStatus sets the HTTP status code on the current span.
func (t *Tracer) SetHTTPStatus(ctx context.Context, statusCode int) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.Int("http.status_code", statusCode))
	if statusCode >= 400 {
		span.SetStatus(codes.Error, http.StatusText(statusCode))
	}
}

// RecordError records an error on the span.
func (t *Tracer) RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// RecordDiagnostic marks a span as rejected with an SRU diagnostic. Client input errors
// are recorded as events, not as span errors.
func (t *Tracer) RecordDiagnostic(span trace.Span, code int, message string) {
	span.SetAttributes(DiagnosticAttr(code))
	span.AddEvent("cql.diagnostic", trace.WithAttributes(
		DiagnosticAttr(code),
		attribute.String("message", message),
	))
}

// RecordResult adds the shape of a compile result to a span.
func (t *Tracer) RecordResult(span trace.Span, nested, filters int, cacheHit bool) {
	span.SetAttributes(
		NestedCountAttr(nested),
		FilterCountAttr(filters),
		CacheHitAttr(cacheHit),
	)
}

// LoggerWithTrace returns a logger enriched with trace context.
func LoggerWithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return logger
	}
	return logger.With(
		slog.String(LogFieldTraceID, span.SpanContext().TraceID().String()),
		slog.String(LogFieldSpanID, span.SpanContext().SpanID().String()),
	)
}
