package cli

import (
	"errors"

	"github.com/spf13/cobra"

	cql "github.com/nlstn/go-cql"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Profile string
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query>",
		Short: "Compile a CQL query",
		Long: `Compile a CQL query and print the Solr parameters: the main query (q),
nested sub-queries (q1, q2, ...) and filter queries (fq).

A rejected query prints its SRU diagnostic and exits with status 1.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Profile, "profile", "p", "", "result profile")

	return cmd
}

func runCompile(cmd *cobra.Command, opts *CompileOptions, query string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
	}

	r, err := opts.loadRules(cmd.Context(), nil)
	if err != nil {
		return err
	}
	compiler, err := cql.NewCompiler(r,
		cql.WithLogger(opts.logger(cmd)),
		cql.WithCacheSize(0),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "creating compiler", err)
	}

	res, err := compiler.CompileWithProfile(cmd.Context(), query, opts.Profile)
	if err != nil {
		var e *cql.Error
		if !errors.As(err, &e) {
			return WrapExitError(ExitCommandError, "compiling query", err)
		}
		if werr := formatter.Diagnostic(cql.NewDiagnostic(e)); werr != nil {
			return WrapExitError(ExitCommandError, "writing output", werr)
		}
		return &ExitError{Code: ExitFailure, Err: err, Reported: true}
	}

	if err := formatter.Result(res); err != nil {
		return WrapExitError(ExitCommandError, "writing output", err)
	}
	return nil
}
