// Package binding wraps the creation operations of a container so that
// every call consults the currently active convention.
//
// The interceptor creates the node first (attributes can only be attached
// to an existing node), then runs the convention's validate-and-set
// protocol, and only on success writes attributes. A validation failure
// rolls the structural creation back, so a failed call never leaves a
// semantically-unannotated node behind. Non-convention parameters and the
// wrapped operation's return value pass through unchanged.
package binding

import (
	"context"
	"fmt"

	"github.com/matthiasprobst/hdfconv/internal/container"
	"github.com/matthiasprobst/hdfconv/internal/convention"
	"github.com/matthiasprobst/hdfconv/internal/ctxlog"
	"github.com/matthiasprobst/hdfconv/internal/registry"
)

// Session binds a container to a registry. All creation calls go through
// it; the active convention is read fresh on every call.
type Session struct {
	container container.Container
	registry  *registry.Registry
}

// New wraps a container. A nil registry binds to the process-wide one.
func New(c container.Container, reg *registry.Registry) *Session {
	if reg == nil {
		reg = registry.Default()
	}
	return &Session{container: c, registry: reg}
}

// Root returns the wrapped container's root group.
func (s *Session) Root() container.Group {
	return s.container.Root()
}

// Init applies the active convention's container-init attributes to the
// root node. The root already exists, so there is nothing to roll back;
// attributes are only written after the whole protocol has succeeded.
func (s *Session) Init(ctx context.Context, attrs map[string]any) error {
	conv := s.registry.Active()
	root := s.container.Root()

	if conv.IsNoop() {
		return writeAll(root, attrs)
	}

	resolved, err := conv.Apply(ctx, convention.OpInit, root, attrs)
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Convention applied to container init.",
		"convention", conv.Name(), "attributes", len(resolved))
	return writeResolved(root, resolved, attrs)
}

// CreateGroup creates a child group under parent with the supplied
// attributes, validated against the active convention.
func (s *Session) CreateGroup(ctx context.Context, parent container.Group, name string, attrs map[string]any) (container.Group, error) {
	conv := s.registry.Active()

	grp, err := parent.CreateGroup(name)
	if err != nil {
		return nil, err
	}

	if conv.IsNoop() {
		if err := writeAll(grp, attrs); err != nil {
			return nil, s.rollback(ctx, parent, name, err)
		}
		return grp, nil
	}

	resolved, err := conv.Apply(ctx, convention.OpCreateGroup, grp, attrs)
	if err != nil {
		return nil, s.rollback(ctx, parent, name, err)
	}
	if err := writeResolved(grp, resolved, attrs); err != nil {
		return nil, s.rollback(ctx, parent, name, err)
	}
	return grp, nil
}

// CreateDataset creates a child dataset under parent with the supplied
// attributes, validated against the active convention.
func (s *Session) CreateDataset(ctx context.Context, parent container.Group, name string, shape []int, attrs map[string]any) (container.Dataset, error) {
	conv := s.registry.Active()

	ds, err := parent.CreateDataset(name, shape)
	if err != nil {
		return nil, err
	}

	if conv.IsNoop() {
		if err := writeAll(ds, attrs); err != nil {
			return nil, s.rollback(ctx, parent, name, err)
		}
		return ds, nil
	}

	resolved, err := conv.Apply(ctx, convention.OpCreateDataset, ds, attrs)
	if err != nil {
		return nil, s.rollback(ctx, parent, name, err)
	}
	if err := writeResolved(ds, resolved, attrs); err != nil {
		return nil, s.rollback(ctx, parent, name, err)
	}
	return ds, nil
}

// rollback deletes a structurally created node after a failed convention
// application and propagates the original error. A failing delete is
// reported alongside it; the validation failure stays primary.
func (s *Session) rollback(ctx context.Context, parent container.Group, name string, cause error) error {
	if delErr := parent.Delete(name); delErr != nil {
		ctxlog.FromContext(ctx).Warn("Rollback of half-initialized node failed.",
			"name", name, "error", delErr)
		return fmt.Errorf("%w (additionally, rollback of %q failed: %v)", cause, name, delErr)
	}
	ctxlog.FromContext(ctx).Debug("Rolled back node after failed validation.", "name", name)
	return cause
}

// writeResolved writes the convention-normalized attributes, then passes
// through any supplied attributes the convention did not claim.
func writeResolved(n container.Node, resolved, supplied map[string]any) error {
	for name, value := range resolved {
		if err := n.SetAttr(name, value); err != nil {
			return fmt.Errorf("writing attribute %q: %w", name, err)
		}
	}
	for name, value := range supplied {
		if _, claimed := resolved[name]; claimed {
			continue
		}
		if err := n.SetAttr(name, value); err != nil {
			return fmt.Errorf("writing attribute %q: %w", name, err)
		}
	}
	return nil
}

// writeAll writes supplied attributes unchanged (no-op convention path).
func writeAll(n container.Node, attrs map[string]any) error {
	for name, value := range attrs {
		if err := n.SetAttr(name, value); err != nil {
			return fmt.Errorf("writing attribute %q: %w", name, err)
		}
	}
	return nil
}
