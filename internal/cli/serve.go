package cli

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	cql "github.com/nlstn/go-cql"
	"github.com/nlstn/go-cql/internal/observability"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr            string
	Profile         string
	CacheSize       int
	Trace           bool
	ServerTiming    bool
	ShutdownTimeout time.Duration
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the compile endpoint over HTTP",
		Long: `Serve GET /compile?query=...&profile=... over HTTP.

With --trace, spans and metrics go to the global OpenTelemetry providers, including
compile stages and rules database queries.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Addr, "addr", "a", ":8080", "listen address")
	cmd.Flags().StringVarP(&opts.Profile, "profile", "p", "", "default result profile")
	cmd.Flags().IntVar(&opts.CacheSize, "cache-size", cql.DefaultCacheSize, "compile cache size, 0 disables the cache")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "report traces and metrics to the global OpenTelemetry providers")
	cmd.Flags().BoolVar(&opts.ServerTiming, "server-timing", false, "add Server-Timing headers")
	cmd.Flags().DurationVar(&opts.ShutdownTimeout, "shutdown-timeout", 10*time.Second, "graceful shutdown timeout")

	return cmd
}

func (o *ServeOptions) observabilityOptions() []cql.ObservabilityOption {
	opts := []cql.ObservabilityOption{cql.WithServiceName("cqlc")}
	if o.Trace {
		opts = append(opts,
			cql.WithTracerProvider(otel.GetTracerProvider()),
			cql.WithMeterProvider(otel.GetMeterProvider()),
			cql.WithStageTracing(),
			cql.WithDetailedDBTracing(),
		)
	}
	if o.ServerTiming {
		opts = append(opts, cql.WithServerTiming())
	}
	return opts
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	logger := opts.logger(cmd)
	obsOpts := opts.observabilityOptions()

	obs := observability.NewConfig(obsOpts...)
	if err := obs.Initialize(); err != nil {
		return WrapExitError(ExitCommandError, "initializing observability", err)
	}
	r, err := opts.loadRules(cmd.Context(), obs)
	if err != nil {
		return err
	}

	compiler, err := cql.NewCompiler(r,
		cql.WithLogger(logger),
		cql.WithDefaultProfile(opts.Profile),
		cql.WithCacheSize(opts.CacheSize),
		cql.WithObservability(obsOpts...),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "creating compiler", err)
	}

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return WrapExitError(ExitCommandError, "listening", err)
	}
	srv := &http.Server{
		Handler:           compiler.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info("Serving CQL compiler",
		slog.String("addr", ln.Addr().String()),
		slog.Bool("telemetry", obs.IsEnabled()),
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return WrapExitError(ExitCommandError, "server failed", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitCommandError, "shutting down", err)
	}
	return nil
}
