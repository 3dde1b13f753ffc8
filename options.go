package cql

import (
	"log/slog"

	"github.com/nlstn/go-cql/internal/observability"
	"github.com/nlstn/go-cql/internal/parser"
)

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger. A nil logger selects slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// WithObservability configures tracing, metrics and Server-Timing.
func WithObservability(opts ...ObservabilityOption) Option {
	return func(c *Compiler) {
		c.obs = observability.NewConfig(opts...)
	}
}

// WithRelations replaces the table of relations and their modifier policies.
// Relations missing from the table are parsed as search terms.
func WithRelations(relations map[string]RelationPolicy) Option {
	return func(c *Compiler) {
		c.relations = relations
	}
}

// WithBooleans replaces the table of boolean operators.
func WithBooleans(booleans map[string]BooleanOp) Option {
	return func(c *Compiler) {
		c.booleans = booleans
	}
}

// WithDefaultProfile sets the profile used by Compile.
func WithDefaultProfile(profile string) Option {
	return func(c *Compiler) {
		c.defaultProfile = profile
	}
}

// WithCacheSize sets the number of cached compile results. Zero disables the cache.
func WithCacheSize(size int) Option {
	return func(c *Compiler) {
		c.cacheSize = size
	}
}

// ObservabilityOption configures observability, see WithObservability.
type ObservabilityOption = observability.Option

// Observability options.
var (
	WithTracerProvider    = observability.WithTracerProvider
	WithMeterProvider     = observability.WithMeterProvider
	WithServiceName       = observability.WithServiceName
	WithServiceVersion    = observability.WithServiceVersion
	WithQueryTracing      = observability.WithQueryTracing
	WithStageTracing      = observability.WithStageTracing
	WithServerTiming      = observability.WithServerTiming
	WithDetailedDBTracing = observability.WithDetailedDBTracing
)

// Relation and boolean policy tables.
type (
	RelationPolicy = parser.Policy
	BooleanOp      = parser.BooleanOp
	BoolKind       = parser.BoolKind
	Modifiers      = parser.Modifiers
	Modifier       = parser.Modifier
)

// Boolean operator kinds.
const (
	BoolAnd  = parser.BoolAnd
	BoolOr   = parser.BoolOr
	BoolNot  = parser.BoolNot
	BoolProx = parser.BoolProx
)

// Policy constructors.
var (
	Unsupported = parser.Unsupported
	NoModifiers = parser.NoModifiers
	FlagsOnly   = parser.FlagsOnly
	Custom      = parser.Custom
)

// DefaultRelations returns a fresh copy of the built-in relation table.
func DefaultRelations() map[string]RelationPolicy {
	return parser.DefaultRelations()
}

// DefaultBooleans returns a fresh copy of the built-in boolean table.
func DefaultBooleans() map[string]BooleanOp {
	return parser.DefaultBooleans()
}
