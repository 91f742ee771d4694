package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/matthiasprobst/hdfconv/internal/binding"
	"github.com/matthiasprobst/hdfconv/internal/container"
	"github.com/matthiasprobst/hdfconv/internal/convention"
	"github.com/matthiasprobst/hdfconv/internal/ctxlog"
	"github.com/matthiasprobst/hdfconv/internal/fsutil"
	"github.com/matthiasprobst/hdfconv/internal/load"
	"github.com/matthiasprobst/hdfconv/internal/memcontainer"
	"github.com/matthiasprobst/hdfconv/internal/nametable"
	"github.com/matthiasprobst/hdfconv/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle. Each App carries its own logger and convention registry, so
// tests and embedders stay isolated from process-global state.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
}

// NewApp is the constructor for the main application.
func NewApp(outW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	logger.Debug("Logger configured successfully.")
	return &App{
		outW:     outW,
		logger:   logger,
		registry: registry.New(),
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Run executes the configured command.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	switch cfg.Command {
	case CmdSummary:
		return a.runSummary(ctx, cfg)
	case CmdCheck:
		return a.runCheck(ctx, cfg)
	case CmdLookup:
		return a.runLookup(ctx, cfg)
	case CmdDryRun:
		return a.runDryRun(ctx, cfg)
	default:
		return fmt.Errorf("unknown command %q", cfg.Command)
	}
}

// documents expands the configured document path: a directory is searched
// recursively, a file stands alone.
func (a *App) documents(cfg *Config) ([]string, error) {
	info, err := os.Stat(cfg.DocumentPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{cfg.DocumentPath}, nil
	}
	paths, err := fsutil.FindDocuments(cfg.DocumentPath)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no convention documents found under %s", cfg.DocumentPath)
	}
	return paths, nil
}

// runSummary loads each document and prints its per-operation attribute
// listing.
func (a *App) runSummary(ctx context.Context, cfg *Config) error {
	paths, err := a.documents(cfg)
	if err != nil {
		return err
	}
	for _, path := range paths {
		c, err := load.FromDocument(ctx, path)
		if err != nil {
			return err
		}
		fmt.Fprint(a.outW, c.String())
		if table := c.Table(); table != nil {
			fmt.Fprintf(a.outW, "  name table: %s %s (%d names)\n",
				table.Name(), table.Version(), len(table.Names()))
		}
	}
	return nil
}

// runCheck loads each document and reports whether it constructs cleanly.
// The first broken document fails the run.
func (a *App) runCheck(ctx context.Context, cfg *Config) error {
	paths, err := a.documents(cfg)
	if err != nil {
		return err
	}
	for _, path := range paths {
		c, err := load.FromDocument(ctx, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintf(a.outW, "ok: %s (%q, %d attributes)\n", path, c.Name(), len(c.AttributeNames()))
	}
	return nil
}

// runLookup resolves one standard name, either in a directly given table
// or in the table of the configured convention document.
func (a *App) runLookup(ctx context.Context, cfg *Config) error {
	table, err := a.lookupTable(ctx, cfg)
	if err != nil {
		return err
	}

	name := cfg.Args[0]
	entry, err := table.Lookup(name)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.outW, "%s\n  units: %s\n  description: %s\n", entry.Name, entry.Unit, entry.Description)
	return nil
}

func (a *App) lookupTable(ctx context.Context, cfg *Config) (*nametable.Table, error) {
	if cfg.TablePath != "" {
		return load.TableFromPath(cfg.TablePath)
	}
	c, err := load.FromDocument(ctx, cfg.DocumentPath)
	if err != nil {
		return nil, err
	}
	if c.Table() == nil {
		return nil, fmt.Errorf("convention %q declares no name table", c.Name())
	}
	return c.Table(), nil
}

// runDryRun applies one operation of the document's convention to a fresh
// in-memory container and prints the attributes that would be written.
func (a *App) runDryRun(ctx context.Context, cfg *Config) error {
	c, err := load.Register(ctx, a.registry, cfg.DocumentPath)
	if err != nil {
		return err
	}
	op, err := convention.ParseOperation(cfg.Args[0])
	if err != nil {
		return err
	}
	if err := a.registry.Activate(c.Name()); err != nil {
		return err
	}

	supplied := make(map[string]any, len(cfg.Attrs))
	for k, v := range cfg.Attrs {
		supplied[k] = v
	}

	session := binding.New(memcontainer.New(), a.registry)
	var node container.Node
	switch op {
	case convention.OpInit:
		err = session.Init(ctx, supplied)
		node = session.Root()
	case convention.OpCreateGroup:
		grp, gerr := session.CreateGroup(ctx, session.Root(), "probe", supplied)
		err, node = gerr, grp
	case convention.OpCreateDataset:
		ds, derr := session.CreateDataset(ctx, session.Root(), "probe", nil, supplied)
		err, node = derr, ds
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(a.outW, "%s would succeed under convention %q:\n", op, c.Name())
	names := node.Attrs()
	sort.Strings(names)
	for _, n := range names {
		v, _ := node.GetAttr(n)
		fmt.Fprintf(a.outW, "  %s = %v\n", n, v)
	}
	return nil
}
