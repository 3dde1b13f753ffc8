// Package cli implements the cqlc command line tool.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	cql "github.com/nlstn/go-cql"
	"github.com/nlstn/go-cql/internal/observability"
	"github.com/nlstn/go-cql/internal/rules"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Rules   string // YAML rules file
	DB      string // rules store DSN
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for cqlc.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "cqlc",
		Short: "cqlc - CQL to Solr query compiler",
		Long: `Compile CQL queries into Solr query strings.

Indexes are resolved against a rules table, read from a YAML file (--rules)
or a rules database (--db, a sqlite path or a postgres:// URL).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Rules, "rules", "r", "", "rules YAML file")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "rules database DSN")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewRulesCommand(opts))

	return cmd
}

// Execute runs cqlc with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if !IsReported(err) {
			fmt.Fprintln(stderr, "Error:", err)
		}
		return GetExitCode(err)
	}
	return ExitSuccess
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// logger writes text logs to the command's error output.
func (o *RootOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// loadRules loads the rules selected by --rules or --db. obs may be nil.
func (o *RootOptions) loadRules(ctx context.Context, obs *observability.Config) (*cql.Rules, error) {
	tracer := obs.Tracer()

	switch {
	case o.Rules != "" && o.DB != "":
		return nil, NewExitError(ExitCommandError, "--rules and --db cannot be used together")

	case o.Rules != "":
		_, span := tracer.StartRulesLoad(ctx, "file")
		defer span.End()
		r, err := cql.LoadRules(o.Rules)
		if err != nil {
			tracer.RecordError(span, err)
			return nil, WrapExitError(ExitCommandError, "loading rules", err)
		}
		return r, nil

	case o.DB != "":
		ctx, span := tracer.StartRulesLoad(ctx, "db")
		defer span.End()
		store, err := rules.OpenStore(o.DB)
		if err != nil {
			tracer.RecordError(span, err)
			return nil, WrapExitError(ExitCommandError, "opening rules store", err)
		}
		defer func() { _ = store.Close() }()

		if err := observability.RegisterGORMCallbacks(store.DB(), obs); err != nil {
			return nil, WrapExitError(ExitCommandError, "registering database tracing", err)
		}
		cfg, err := store.Load(ctx)
		if err != nil {
			tracer.RecordError(span, err)
			return nil, WrapExitError(ExitCommandError, "loading rules", err)
		}
		r, err := rules.New(*cfg)
		if err != nil {
			tracer.RecordError(span, err)
			return nil, WrapExitError(ExitCommandError, "loading rules", err)
		}
		return r, nil
	}
	return nil, NewExitError(ExitCommandError, "no rules: use --rules or --db")
}
