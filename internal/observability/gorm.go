package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	gormSpanKey      = "cql:gorm:span"
	gormStartTimeKey = "cql:gorm:start"
)

// RegisterGORMCallbacks registers GORM callbacks that trace rules store queries.
// It does nothing unless tracing and detailed DB tracing are configured.
func RegisterGORMCallbacks(db *gorm.DB, cfg *Config) error {
	if cfg == nil || cfg.TracerProvider == nil || !cfg.EnableDetailedDBTracing {
		return nil
	}

	tracer := cfg.Tracer()
	before := func(operation string) func(*gorm.DB) {
		return func(db *gorm.DB) { startSpan(db, tracer, operation) }
	}
	after := func(operation string) func(*gorm.DB) {
		return func(db *gorm.DB) { endSpan(db, tracer, cfg, operation) }
	}

	cb := db.Callback()
	if err := cb.Query().Before("gorm:query").Register("cql:before_query", before("SELECT")); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("cql:after_query", after("SELECT")); err != nil {
		return err
	}
	if err := cb.Create().Before("gorm:create").Register("cql:before_create", before("INSERT")); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("cql:after_create", after("INSERT")); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("cql:before_delete", before("DELETE")); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("cql:after_delete", after("DELETE")); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("cql:before_raw", before("RAW")); err != nil {
		return err
	}
	if err := cb.Raw().After("gorm:raw").Register("cql:after_raw", after("RAW")); err != nil {
		return err
	}
	return nil
}

func startSpan(db *gorm.DB, tracer *Tracer, operation string) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := tracer.StartDBQuery(ctx, operation)
	span.SetAttributes(attribute.String("db.system", db.Dialector.Name()))

	db.Statement.Context = ctx
	db.InstanceSet(gormSpanKey, span)
	db.InstanceSet(gormStartTimeKey, time.Now())
}

func endSpan(db *gorm.DB, tracer *Tracer, cfg *Config, operation string) {
	spanVal, ok := db.InstanceGet(gormSpanKey)
	if !ok {
		return
	}

	span, ok := spanVal.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	if db.Statement != nil {
		if table := db.Statement.Table; table != "" {
			span.SetAttributes(attribute.String("db.sql.table", table))
		}
		span.SetAttributes(attribute.Int64("db.rows_affected", db.RowsAffected))
	}

	if db.Error != nil {
		tracer.RecordError(span, db.Error)
		span.SetStatus(codes.Error, db.Error.Error())
	}

	if startTimeVal, ok := db.InstanceGet(gormStartTimeKey); ok {
		if startTime, ok := startTimeVal.(time.Time); ok {
			cfg.Metrics().RecordDBQuery(db.Statement.Context, operation, time.Since(startTime))
		}
	}
}
