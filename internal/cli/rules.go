package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nlstn/go-cql/internal/rules"
)

// RulesSummary counts the entries of a rules table.
type RulesSummary struct {
	Indexes  int `json:"indexes"`
	Nested   int `json:"nested"`
	Profiles int `json:"profiles"`
}

func summarize(cfg rules.Config) RulesSummary {
	return RulesSummary{
		Indexes:  len(cfg.Indexes),
		Nested:   len(cfg.Nested),
		Profiles: len(cfg.Profiles),
	}
}

// NewRulesCommand creates the rules command and its subcommands.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage rules tables",
	}

	cmd.AddCommand(newRulesImportCommand(rootOpts))
	cmd.AddCommand(newRulesExportCommand(rootOpts))
	cmd.AddCommand(newRulesCheckCommand(rootOpts))

	return cmd
}

func newRulesImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a YAML rules file into the rules database",
		Long: `Validate a YAML rules file and store it in the rules database given by --db.
The stored rules replace any rules already in the database.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.DB == "" {
				return NewExitError(ExitCommandError, "rules import requires --db")
			}
			cfg, err := rules.LoadFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "reading rules", err)
			}
			if _, err := rules.New(*cfg); err != nil {
				return WrapExitError(ExitCommandError, "invalid rules", err)
			}

			store, err := rules.OpenStore(opts.DB)
			if err != nil {
				return WrapExitError(ExitCommandError, "opening rules store", err)
			}
			defer func() { _ = store.Close() }()

			ctx := cmd.Context()
			if err := store.Migrate(ctx); err != nil {
				return WrapExitError(ExitCommandError, "migrating rules store", err)
			}
			if err := store.Save(ctx, cfg); err != nil {
				return WrapExitError(ExitCommandError, "saving rules", err)
			}
			opts.logger(cmd).Debug("Imported rules", slog.String("file", args[0]))

			return writeSummary(cmd, opts, "Imported", summarize(*cfg))
		},
	}
}

func newRulesExportCommand(opts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the rules database as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.DB == "" {
				return NewExitError(ExitCommandError, "rules export requires --db")
			}
			store, err := rules.OpenStore(opts.DB)
			if err != nil {
				return WrapExitError(ExitCommandError, "opening rules store", err)
			}
			defer func() { _ = store.Close() }()

			cfg, err := store.Load(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "loading rules", err)
			}
			data, err := rules.MarshalYAML(cfg)
			if err != nil {
				return WrapExitError(ExitCommandError, "encoding rules", err)
			}

			if output == "" {
				if _, err := cmd.OutOrStdout().Write(data); err != nil {
					return WrapExitError(ExitCommandError, "writing output", err)
				}
				return nil
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return WrapExitError(ExitCommandError, "writing output file", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path")

	return cmd
}

func newRulesCheckCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the rules given by --rules or --db",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.loadRules(cmd.Context(), nil)
			if err != nil {
				return err
			}
			return writeSummary(cmd, opts, "Valid", summarize(r.Config()))
		},
	}
}

func writeSummary(cmd *cobra.Command, opts *RootOptions, verb string, s RulesSummary) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr()}
	if opts.Format == "json" {
		return formatter.JSON(s)
	}
	_, err := fmt.Fprintf(formatter.Writer, "%s: %d indexes, %d nested groups, %d profiles\n",
		verb, s.Indexes, s.Nested, s.Profiles)
	return err
}
