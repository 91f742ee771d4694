package app

import (
	"errors"
	"fmt"
)

// Command names accepted on the command line.
const (
	CmdSummary = "summary"
	CmdCheck   = "check"
	CmdLookup  = "lookup"
	CmdDryRun  = "dryrun"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// Command selects what to do: summary, check, lookup, or dryrun.
	Command string
	// Args are the command's positional arguments (the name to look up,
	// the operation to dry-run).
	Args []string

	// DocumentPath points at a convention document or a directory of them.
	DocumentPath string
	// TablePath optionally points at a standard-name table, for lookups
	// without a convention document.
	TablePath string
	// Attrs are the attribute values a dryrun supplies, as raw strings.
	Attrs map[string]string

	LogFormat string
	LogLevel  string
}

// NewConfig validates a parsed configuration.
func NewConfig(cfg Config) (*Config, error) {
	switch cfg.Command {
	case CmdSummary, CmdCheck, CmdDryRun:
		if cfg.DocumentPath == "" {
			return nil, fmt.Errorf("%s needs a convention document (-document)", cfg.Command)
		}
	case CmdLookup:
		if cfg.DocumentPath == "" && cfg.TablePath == "" {
			return nil, errors.New("lookup needs a convention document (-document) or a name table (-table)")
		}
		if len(cfg.Args) != 1 {
			return nil, errors.New("lookup takes exactly one standard name")
		}
	case "":
		return nil, errors.New("no command given")
	default:
		return nil, fmt.Errorf("unknown command %q", cfg.Command)
	}

	if cfg.Command == CmdDryRun && len(cfg.Args) != 1 {
		return nil, errors.New("dryrun takes exactly one operation (init, create_group, or create_dataset)")
	}

	return &cfg, nil
}
