package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	cql "github.com/nlstn/go-cql"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Query rejected
	ExitCommandError = 2 // Command error (bad flags, unreadable rules, database errors)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
	// Reported is set when the command already wrote the failure to its output.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		if e.Message == "" {
			return e.Err.Error()
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// IsReported reports whether err was already written to the command output.
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
}

// JSON writes v as indented JSON.
func (f *OutputFormatter) JSON(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Result writes a compiled query.
func (f *OutputFormatter) Result(res *cql.Result) error {
	if f.Format == "json" {
		return f.JSON(res)
	}
	if _, err := fmt.Fprintf(f.Writer, "q: %s\n", res.MainQuery); err != nil {
		return err
	}
	for i, q := range res.NestedQueries {
		if _, err := fmt.Fprintf(f.Writer, "%s: %s\n", cql.NestedParam(i), q); err != nil {
			return err
		}
	}
	for _, fq := range res.FilterQueries {
		if _, err := fmt.Fprintf(f.Writer, "fq: %s\n", fq); err != nil {
			return err
		}
	}
	return nil
}

// Diagnostic writes a rejected query. Text goes to the error writer, JSON to the output.
func (f *OutputFormatter) Diagnostic(d cql.Diagnostic) error {
	if f.Format == "json" {
		return f.JSON(struct {
			Diagnostic cql.Diagnostic `json:"diagnostic"`
		}{d})
	}
	msg := fmt.Sprintf("diagnostic %d: %s", d.Code, d.Message)
	if d.Details != "" {
		msg += ": " + d.Details
	}
	if _, err := fmt.Fprintln(f.ErrWriter, msg); err != nil {
		return err
	}
	if d.Excerpt != "" {
		if _, err := fmt.Fprintf(f.ErrWriter, "  %s\n", d.Excerpt); err != nil {
			return err
		}
	}
	return nil
}
