package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(
		WithServiceName("test-service"),
		WithServiceVersion("1.2.3"),
		WithDetailedDBTracing(),
		WithQueryTracing(),
	)

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected service name 'test-service', got '%s'", cfg.ServiceName)
	}
	if cfg.ServiceVersion != "1.2.3" {
		t.Errorf("expected service version '1.2.3', got '%s'", cfg.ServiceVersion)
	}
	if !cfg.EnableDetailedDBTracing {
		t.Error("expected detailed DB tracing to be enabled")
	}
	if !cfg.QueryTracingEnabled() {
		t.Error("expected query tracing to be enabled")
	}
}

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	if cfg.ServiceName != "cql-compiler" {
		t.Errorf("expected default service name, got '%s'", cfg.ServiceName)
	}
	if cfg.QueryTracingEnabled() {
		t.Error("expected query tracing to be disabled by default")
	}
	if cfg.ServerTimingEnabled() {
		t.Error("expected server timing to be disabled by default")
	}
}

func TestConfigInitialize(t *testing.T) {
	cfg := NewConfig(
		WithTracerProvider(tracenoop.NewTracerProvider()),
		WithMeterProvider(noop.NewMeterProvider()),
	)

	if err := cfg.Initialize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Tracer() == nil {
		t.Error("expected tracer to be initialized")
	}
	if cfg.Metrics() == nil {
		t.Error("expected metrics to be initialized")
	}
}

func TestConfigInitializeNoProviders(t *testing.T) {
	cfg := NewConfig()
	if err := cfg.Initialize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Should get noop implementations
	if cfg.Tracer() == nil {
		t.Error("expected noop tracer to be returned")
	}
	if cfg.Metrics() == nil {
		t.Error("expected noop metrics to be returned")
	}
}

func TestNilConfig(t *testing.T) {
	var cfg *Config
	if cfg.Tracer() == nil || cfg.Metrics() == nil {
		t.Error("expected noop instruments for nil config")
	}
	if cfg.IsEnabled() || cfg.QueryTracingEnabled() || cfg.StageTracingEnabled() || cfg.ServerTimingEnabled() {
		t.Error("expected nil config to disable everything")
	}
}

func TestIsEnabled(t *testing.T) {
	if NewConfig().IsEnabled() {
		t.Error("expected empty config to not be enabled")
	}
	if !NewConfig(WithTracerProvider(tracenoop.NewTracerProvider())).IsEnabled() {
		t.Error("expected config with tracer to be enabled")
	}
	if !NewConfig(WithMeterProvider(noop.NewMeterProvider())).IsEnabled() {
		t.Error("expected config with meter to be enabled")
	}
}

func TestStageTracingNeedsTracer(t *testing.T) {
	if NewConfig(WithStageTracing()).StageTracingEnabled() {
		t.Error("expected stage tracing to require a tracer provider")
	}
	cfg := NewConfig(WithStageTracing(), WithTracerProvider(tracenoop.NewTracerProvider()))
	if !cfg.StageTracingEnabled() {
		t.Error("expected stage tracing to be enabled")
	}
}

func TestNoopMetrics(t *testing.T) {
	metrics := NewNoopMetrics()
	ctx := context.Background()

	// Record methods must not panic
	metrics.RecordCompile(ctx, "public", 2, time.Millisecond)
	metrics.RecordCacheLookup(ctx, true)
	metrics.RecordCacheLookup(ctx, false)
	metrics.RecordError(ctx, 10, "diagnostic")
	metrics.RecordRequest(ctx, http.StatusOK, time.Millisecond)
	metrics.RecordDBQuery(ctx, "SELECT", time.Millisecond)
}

func TestNewMetrics(t *testing.T) {
	if NewMetrics(noop.NewMeterProvider()) == nil {
		t.Fatal("expected metrics")
	}
}

func TestServerTimingOption(t *testing.T) {
	cfg := NewConfig(WithServerTiming())
	if !cfg.ServerTimingEnabled() {
		t.Error("expected ServerTimingEnabled() to return true")
	}
}

func TestStartTimingNoContext(t *testing.T) {
	StartTiming(context.Background(), TimingCompile).Stop()

	var zero Timing
	zero.Stop()
}

func TestServerTimingMiddleware(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		StartTiming(r.Context(), StageParse).Stop()
		StartTiming(r.Context(), "custom").Stop()
		w.WriteHeader(http.StatusOK)
	}

	wrapped := ServerTimingMiddleware(NewConfig(WithServerTiming()))(http.HandlerFunc(handler))
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/compile", nil))
	header := rec.Header().Get("Server-Timing")
	if !strings.Contains(header, "parse;desc=") {
		t.Errorf("expected described parse metric, got %q", header)
	}
	if !strings.Contains(header, "custom") {
		t.Errorf("expected custom metric, got %q", header)
	}

	plain := ServerTimingMiddleware(NewConfig())(http.HandlerFunc(handler))
	rec = httptest.NewRecorder()
	plain.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/compile", nil))
	if rec.Header().Get("Server-Timing") != "" {
		t.Error("expected no Server-Timing header when disabled")
	}
}

func TestHTTPMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, cfg := range []*Config{nil, NewConfig(), NewConfig(WithTracerProvider(tracenoop.NewTracerProvider()))} {
		rec := httptest.NewRecorder()
		HTTPMiddleware(cfg)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/compile", nil))
		if rec.Code != http.StatusTeapot {
			t.Errorf("expected status %d, got %d", http.StatusTeapot, rec.Code)
		}
	}
}

func TestGORMCallbacks(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	cfg := NewConfig(
		WithTracerProvider(tracenoop.NewTracerProvider()),
		WithMeterProvider(noop.NewMeterProvider()),
		WithDetailedDBTracing(),
	)
	if err := cfg.Initialize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := RegisterGORMCallbacks(db, cfg); err != nil {
		t.Fatalf("failed to register callbacks: %v", err)
	}

	type rule struct {
		ID   int `gorm:"primarykey"`
		Name string
	}
	if err := db.AutoMigrate(&rule{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	if err := db.Create(&rule{ID: 1, Name: "title"}).Error; err != nil {
		t.Fatalf("failed to create: %v", err)
	}
	var rules []rule
	if err := db.Find(&rules).Error; err != nil {
		t.Fatalf("failed to find: %v", err)
	}
	if len(rules) != 1 {
		t.Errorf("expected 1 row, got %d", len(rules))
	}
}

func TestGORMCallbacksDisabled(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	if err := RegisterGORMCallbacks(db, NewConfig()); err != nil {
		t.Errorf("expected no error without tracing, got %v", err)
	}
	if err := RegisterGORMCallbacks(db, nil); err != nil {
		t.Errorf("expected no error for nil config, got %v", err)
	}
}
