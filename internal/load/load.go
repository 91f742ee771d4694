// Package load wires the format-specific document loaders, the name-table
// loaders, and the convention constructor into one entry point. Callers
// hand it a document path and get back a ready-to-register convention.
package load

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/matthiasprobst/hdfconv/internal/convdoc"
	"github.com/matthiasprobst/hdfconv/internal/convention"
	"github.com/matthiasprobst/hdfconv/internal/ctxlog"
	"github.com/matthiasprobst/hdfconv/internal/hcldoc"
	"github.com/matthiasprobst/hdfconv/internal/nametable"
	"github.com/matthiasprobst/hdfconv/internal/registry"
	"github.com/matthiasprobst/hdfconv/internal/yamldoc"
)

// LoaderFor returns the document loader matching a path's extension.
func LoaderFor(path string) (convdoc.Loader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return hcldoc.NewLoader(), nil
	case ".yaml", ".yml":
		return yamldoc.NewLoader(), nil
	default:
		return nil, fmt.Errorf("unsupported convention document %q (want .hcl, .yaml, or .yml)", path)
	}
}

// Table resolves a name-table reference from a convention document: an
// http(s) source is fetched, anything else is read as a file path
// relative to the document's directory.
func Table(ref, documentPath string) (*nametable.Table, error) {
	if isURL(ref) {
		return nametable.FromURL(ref, nil)
	}
	if !filepath.IsAbs(ref) {
		ref = filepath.Join(filepath.Dir(documentPath), ref)
	}
	return nametable.FromFile(ref)
}

// TableFromPath loads a name table from a directly given path or URL.
// Unlike Table, a relative path is taken as-is, relative to the working
// directory; there is no convention document to anchor it to.
func TableFromPath(ref string) (*nametable.Table, error) {
	if isURL(ref) {
		return nametable.FromURL(ref, nil)
	}
	return nametable.FromFile(ref)
}

func isURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// FromDocument loads a convention document (HCL or YAML, by extension),
// resolves its name table if it declares one, and constructs the
// convention.
func FromDocument(ctx context.Context, path string) (*convention.Convention, error) {
	logger := ctxlog.FromContext(ctx)

	loader, err := LoaderFor(path)
	if err != nil {
		return nil, err
	}
	model, err := loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("loading convention document %q: %w", path, err)
	}

	var table *nametable.Table
	if model.NameTable != "" {
		table, err = Table(model.NameTable, path)
		if err != nil {
			return nil, fmt.Errorf("convention %q: name table %q: %w", model.Name, model.NameTable, err)
		}
		logger.Debug("Name table resolved.", "table", table.Name(), "version", table.Version())
	}

	return convention.FromModel(ctx, model, table)
}

// Register loads a convention document and registers the result.
func Register(ctx context.Context, reg *registry.Registry, path string) (*convention.Convention, error) {
	c, err := FromDocument(ctx, path)
	if err != nil {
		return nil, err
	}
	reg.Register(c)
	ctxlog.FromContext(ctx).Debug("Convention registered.", "convention", c.Name())
	return c, nil
}
