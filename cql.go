// Package cql compiles Common Query Language (CQL) queries into Solr query strings.
//
// A compilation parses the query, resolves every index against a rules table, moves
// clauses on nested document fields into separate sub-queries, moves clauses tagged for
// filter queries into separate filter queries and renders all of them:
//
//	resolver, err := cql.LoadRules("rules.yaml")
//	compiler, err := cql.NewCompiler(resolver)
//	res, err := compiler.Compile(ctx, `title=dinosaur and year>2000`)
//	params := res.Params() // q, q1..qN, fq
//
// A Compiler is safe for concurrent use.
package cql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/nlstn/go-cql/internal/cache"
	"github.com/nlstn/go-cql/internal/diag"
	"github.com/nlstn/go-cql/internal/flat"
	"github.com/nlstn/go-cql/internal/observability"
	"github.com/nlstn/go-cql/internal/parser"
	"github.com/nlstn/go-cql/internal/render"
	"github.com/nlstn/go-cql/internal/rules"
)

// DefaultCacheSize is the number of compile results kept unless WithCacheSize is used.
const DefaultCacheSize = 1024

// Compiler compiles CQL queries against a rules table.
type Compiler struct {
	resolver       *rules.Resolver
	relations      map[string]parser.Policy
	booleans       map[string]parser.BooleanOp
	defaultProfile string
	cacheSize      int
	cache          *cache.Cache[*Result]
	obs            *observability.Config
	logger         *slog.Logger
}

// NewCompiler creates a compiler for the given rules.
func NewCompiler(resolver *Rules, opts ...Option) (*Compiler, error) {
	if resolver == nil {
		return nil, fmt.Errorf("cql: rules are required")
	}

	c := &Compiler{
		resolver:  resolver,
		relations: parser.DefaultRelations(),
		booleans:  parser.DefaultBooleans(),
		cacheSize: DefaultCacheSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.defaultProfile != "" {
		if _, ok := resolver.Profile(c.defaultProfile); !ok {
			return nil, fmt.Errorf("cql: unknown default profile %q", c.defaultProfile)
		}
	}
	if c.obs == nil {
		c.obs = observability.NewConfig()
	}
	if err := c.obs.Initialize(); err != nil {
		return nil, fmt.Errorf("cql: observability: %w", err)
	}
	c.cache = cache.New[*Result](c.cacheSize)
	return c, nil
}

// Rules returns the rules the compiler resolves indexes with.
func (c *Compiler) Rules() *Rules {
	return c.resolver
}

// Compile compiles query using the default profile.
func (c *Compiler) Compile(ctx context.Context, query string) (*Result, error) {
	return c.CompileWithProfile(ctx, query, c.defaultProfile)
}

// CompileWithProfile compiles query and adds the filter of the named result profile to
// the filter queries. An empty profile adds nothing.
//
// Rejected queries return a *Error carrying an SRU diagnostic. Any other error is an
// internal failure.
func (c *Compiler) CompileWithProfile(ctx context.Context, query, profile string) (*Result, error) {
	start := time.Now()
	tracer := c.obs.Tracer()
	metrics := c.obs.Metrics()

	ctx, span := tracer.StartCompile(ctx, query, profile, c.obs.QueryTracingEnabled())
	defer span.End()
	logger := observability.LoggerWithTrace(ctx, c.logger)

	var profileFilter string
	if profile != "" {
		f, ok := c.resolver.Profile(profile)
		if !ok {
			err := diag.WithQuery(diag.New(diag.UnsupportedParameterValue, 0, "unknown profile %s", profile), query)
			return nil, c.fail(ctx, logger, span, query, profile, err)
		}
		profileFilter = f
	}

	key := cache.Key(strings.ToLower(profile), query)
	if res, ok := c.cache.Get(key); ok {
		metrics.RecordCacheLookup(ctx, true)
		tracer.RecordResult(span, len(res.NestedQueries), len(res.FilterQueries), true)
		return res.clone(), nil
	}
	if c.cache != nil {
		metrics.RecordCacheLookup(ctx, false)
	}

	res, err := c.compile(ctx, query)
	if err != nil {
		return nil, c.fail(ctx, logger, span, query, profile, diag.WithQuery(err, query))
	}
	if profileFilter != "" {
		res.FilterQueries = append(res.FilterQueries, profileFilter)
	}
	c.cache.Put(key, res)

	duration := time.Since(start)
	metrics.RecordCompile(ctx, profile, len(res.NestedQueries), duration)
	tracer.RecordResult(span, len(res.NestedQueries), len(res.FilterQueries), false)
	logger.Debug("Compiled query",
		slog.String(observability.LogFieldQuery, query),
		slog.String(observability.LogFieldProfile, profile),
		slog.String("q", res.MainQuery),
		slog.Int("nested", len(res.NestedQueries)),
		slog.Int("filters", len(res.FilterQueries)),
		slog.Float64(observability.LogFieldDuration, float64(duration.Microseconds())/1000),
	)
	return res.clone(), nil
}

func (c *Compiler) compile(ctx context.Context, query string) (*Result, error) {
	var (
		tree    parser.Node
		root    flat.Node
		nested  []flat.Node
		filters []flat.Node
		res     = &Result{}
	)

	err := c.stage(ctx, observability.StageParse, func() (err error) {
		tree, err = parser.Parse(query, c.relations, c.booleans)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := c.stage(ctx, observability.StageFlatten, func() (err error) {
		root, err = flat.Flatten(c.resolver, tree)
		return err
	}); err != nil {
		return nil, err
	}
	if err := c.stage(ctx, observability.StageExtractNested, func() (err error) {
		root, nested, err = flat.ExtractNested(c.resolver.Internal(), root)
		return err
	}); err != nil {
		return nil, err
	}
	if err := c.stage(ctx, observability.StageExtractFilters, func() (err error) {
		root, filters, err = flat.ExtractFilters(root)
		return err
	}); err != nil {
		return nil, err
	}

	err = c.stage(ctx, observability.StageRender, func() (err error) {
		if res.MainQuery, err = render.Render(root); err != nil {
			return err
		}
		if res.NestedQueries, err = renderAll(nested); err != nil {
			return err
		}
		res.FilterQueries, err = renderAll(filters)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func renderAll(nodes []flat.Node) ([]string, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	out := make([]string, len(nodes))
	for i, n := range nodes {
		s, err := render.Render(n)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// stage runs fn, inside its own span when stage tracing is enabled. The stage is also
// reported in the Server-Timing header when ctx carries one.
func (c *Compiler) stage(ctx context.Context, name string, fn func() error) error {
	timing := observability.StartTiming(ctx, name)
	defer timing.Stop()
	if !c.obs.StageTracingEnabled() {
		return fn()
	}
	_, span := c.obs.Tracer().StartStage(ctx, name)
	defer span.End()
	err := fn()
	var de *diag.Error
	if err != nil && !errors.As(err, &de) {
		c.obs.Tracer().RecordError(span, err)
	}
	return err
}

// fail records a failed compilation. Diagnostics are client errors and logged at debug
// level; anything else is a bug and logged as an error.
func (c *Compiler) fail(ctx context.Context, logger *slog.Logger, span trace.Span, query, profile string, err error) error {
	tracer := c.obs.Tracer()
	var de *diag.Error
	if errors.As(err, &de) {
		c.obs.Metrics().RecordError(ctx, int(de.Code), "diagnostic")
		tracer.RecordDiagnostic(span, int(de.Code), de.Code.Message())
		logger.Debug("Rejected query",
			slog.String(observability.LogFieldQuery, query),
			slog.String(observability.LogFieldProfile, profile),
			slog.Int(observability.LogFieldDiagnostic, int(de.Code)),
			slog.String(observability.LogFieldError, de.Error()),
		)
		return err
	}

	c.obs.Metrics().RecordError(ctx, int(diag.GeneralSystemError), "internal")
	tracer.RecordError(span, err)
	logger.Error("Query compilation failed",
		slog.String(observability.LogFieldQuery, query),
		slog.String(observability.LogFieldProfile, profile),
		slog.String(observability.LogFieldError, err.Error()),
	)
	return err
}
