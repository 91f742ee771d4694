package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/matthiasprobst/hdfconv/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// attrFlag collects repeated -attr key=value pairs.
type attrFlag map[string]string

func (a attrFlag) String() string {
	pairs := make([]string, 0, len(a))
	for k, v := range a {
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, ",")
}

func (a attrFlag) Set(raw string) error {
	key, value, found := strings.Cut(raw, "=")
	if !found || key == "" {
		return fmt.Errorf("attribute %q is not of the form key=value", raw)
	}
	a[key] = value
	return nil
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("hdfconv", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
hdfconv - convention tooling for HDF5-style metadata.

Usage:
  hdfconv [options] COMMAND [ARGS]

Commands:
  summary            Print the attributes a convention document declares, per operation.
  check              Load one document (or a directory of them) and report construction errors.
  lookup NAME        Resolve a standard name in the convention's (or -table's) name table.
  dryrun OPERATION   Apply one operation (init, create_group, create_dataset) to an
                     empty in-memory container with the supplied -attr values.

Options:
`)
		flagSet.PrintDefaults()
	}

	documentFlag := flagSet.String("document", "", "Path to a convention document or a directory of documents.")
	dFlag := flagSet.String("d", "", "Path to a convention document (shorthand).")
	tableFlag := flagSet.String("table", "", "Path or URL of a standard-name table (for lookup without a document).")
	attrs := attrFlag{}
	flagSet.Var(attrs, "attr", "Attribute to supply in a dryrun, as key=value. Repeatable.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() == 0 {
		slog.Debug("No command provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}
	command := flagSet.Arg(0)
	commandArgs := flagSet.Args()[1:]

	document := *documentFlag
	if document == "" {
		document = *dFlag
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		Command:      command,
		Args:         commandArgs,
		DocumentPath: document,
		TablePath:    *tableFlag,
		Attrs:        attrs,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "command", command)
	return config, false, nil
}
