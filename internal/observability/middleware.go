package observability

import (
	"net/http"

	servertiming "github.com/mitchellh/go-server-timing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPMiddleware returns an HTTP middleware that instruments requests with tracing.
// It uses otelhttp for automatic span propagation and HTTP semantic attributes.
func HTTPMiddleware(cfg *Config) func(http.Handler) http.Handler {
	if cfg == nil || cfg.TracerProvider == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		opts := []otelhttp.Option{otelhttp.WithTracerProvider(cfg.TracerProvider)}
		if cfg.MeterProvider != nil {
			opts = append(opts, otelhttp.WithMeterProvider(cfg.MeterProvider))
		}
		return otelhttp.NewHandler(next, "cql.http", opts...)
	}
}

// ServerTimingMiddleware adds a Server-Timing header to responses when enabled.
func ServerTimingMiddleware(cfg *Config) func(http.Handler) http.Handler {
	if !cfg.ServerTimingEnabled() {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return func(next http.Handler) http.Handler {
		return servertiming.Middleware(next, nil)
	}
}
