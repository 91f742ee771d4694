// Package convention implements the aggregate at the heart of the engine:
// a named set of standard attributes indexed by creation operation,
// ordered so that obligatory attributes precede optional ones and
// requirement links are respected, with the validate-and-set protocol
// that runs whenever an intercepted operation executes.
package convention

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/matthiasprobst/hdfconv/internal/container"
	"github.com/matthiasprobst/hdfconv/internal/convdoc"
	"github.com/matthiasprobst/hdfconv/internal/ctxlog"
	"github.com/matthiasprobst/hdfconv/internal/dag"
	"github.com/matthiasprobst/hdfconv/internal/nametable"
	"github.com/matthiasprobst/hdfconv/internal/validator"
)

// Convention is a named, registered set of standard attributes governing
// the three creation operations. Construct via New or FromModel; a
// convention is immutable once built (Without derives a new one).
type Convention struct {
	name        string
	institution string
	contact     string
	table       *nametable.Table
	attrs       map[string]*StandardAttribute
	byOp        map[Operation][]*StandardAttribute
}

// New builds a convention from parsed standard attributes. The
// per-operation order is fixed here: requirement edges are sorted
// topologically (a cycle is a construction error, never a runtime one),
// and among unconstrained attributes obligatory ones come first, then
// document order.
func New(name string, attrs []*StandardAttribute) (*Convention, error) {
	if name == "" {
		return nil, fmt.Errorf("convention needs a name")
	}
	c := &Convention{
		name:  name,
		attrs: make(map[string]*StandardAttribute, len(attrs)),
		byOp:  make(map[Operation][]*StandardAttribute),
	}

	docOrder := make(map[string]int, len(attrs))
	for i, a := range attrs {
		if a.Name == "" {
			return nil, fmt.Errorf("convention %q: attribute with empty name", name)
		}
		if _, dup := c.attrs[a.Name]; dup {
			return nil, fmt.Errorf("convention %q: duplicate attribute %q", name, a.Name)
		}
		if a.Validator == nil {
			return nil, fmt.Errorf("convention %q: attribute %q has no validator", name, a.Name)
		}
		c.attrs[a.Name] = a
		docOrder[a.Name] = i
	}

	for _, a := range attrs {
		if a.Alternative == "" {
			continue
		}
		if _, ok := c.attrs[a.Alternative]; !ok {
			return nil, fmt.Errorf("convention %q: attribute %q names unknown alternative %q",
				name, a.Name, a.Alternative)
		}
	}

	for _, op := range Operations {
		ordered, err := c.orderForOperation(op, docOrder)
		if err != nil {
			return nil, fmt.Errorf("convention %q: %s: %w", name, op, err)
		}
		if len(ordered) > 0 {
			c.byOp[op] = ordered
		}
	}
	return c, nil
}

// orderForOperation computes the fixed attribute order of one operation.
func (c *Convention) orderForOperation(op Operation, docOrder map[string]int) ([]*StandardAttribute, error) {
	graph := dag.New()
	members := map[string]*StandardAttribute{}
	for n, a := range c.attrs {
		if a.TargetsOperation(op) {
			graph.AddNode(n)
			members[n] = a
		}
	}
	for n, a := range members {
		for _, req := range a.Requires {
			// Requirements naming attributes outside this operation (or
			// outside the convention entirely) are checked at apply time
			// against the node; only same-operation members constrain
			// the order.
			if _, ok := members[req]; !ok {
				continue
			}
			if err := graph.AddEdge(req, n); err != nil {
				return nil, err
			}
		}
	}

	names, err := graph.TopoSort(func(a, b string) bool {
		ao, bo := members[a].Obligatory(), members[b].Obligatory()
		if ao != bo {
			return ao
		}
		return docOrder[a] < docOrder[b]
	})
	if err != nil {
		return nil, err
	}

	ordered := make([]*StandardAttribute, len(names))
	for i, n := range names {
		ordered[i] = members[n]
	}
	return ordered, nil
}

// FromModel builds a convention from a loaded document model. The name
// table (already constructed from the document's name_table source, may
// be nil) is handed to the validators that need it. Header metadata is
// itself validated: the institution must be a URL and the contact an
// ORCID.
func FromModel(ctx context.Context, m *convdoc.Model, table *nametable.Table) (*Convention, error) {
	logger := ctxlog.FromContext(ctx)

	if m.Institution != "" {
		if _, err := (&validator.URL{}).Validate(ctx, m.Institution, validator.Context{}); err != nil {
			return nil, fmt.Errorf("convention %q: institution: %w", m.Name, err)
		}
	}
	contact := m.Contact
	if contact != "" {
		normalized, err := (&validator.ORCID{}).Validate(ctx, contact, validator.Context{})
		if err != nil {
			return nil, fmt.Errorf("convention %q: contact: %w", m.Name, err)
		}
		contact = normalized.(string)
	}

	deps := validator.Deps{Table: table}
	attrs := make([]*StandardAttribute, 0, len(m.Attributes))
	for _, def := range m.Attributes {
		v, err := validator.Build(def.Validator, deps)
		if err != nil {
			return nil, fmt.Errorf("convention %q: attribute %q: %w", m.Name, def.Name, err)
		}
		var targets []Operation
		for _, t := range def.Targets {
			op, err := ParseOperation(t)
			if err != nil {
				return nil, fmt.Errorf("convention %q: attribute %q: %w", m.Name, def.Name, err)
			}
			targets = append(targets, op)
		}
		attrs = append(attrs, &StandardAttribute{
			Name:        def.Name,
			Validator:   v,
			Targets:     targets,
			Default:     def.Default,
			Requires:    def.Requires,
			Alternative: def.Alternative,
			Description: def.Description,
		})
	}

	c, err := New(m.Name, attrs)
	if err != nil {
		return nil, err
	}
	c.institution = m.Institution
	c.contact = contact
	c.table = table

	logger.Debug("Convention constructed from document model.",
		"convention", c.name, "attributes", len(c.attrs))
	return c, nil
}

// Name returns the convention's registration name.
func (c *Convention) Name() string { return c.name }

// Institution returns the maintaining institution's URL, if declared.
func (c *Convention) Institution() string { return c.institution }

// Contact returns the maintainer's ORCID in URL form, if declared.
func (c *Convention) Contact() string { return c.contact }

// Table returns the name table the convention resolves standard names
// against, or nil.
func (c *Convention) Table() *nametable.Table { return c.table }

// Attribute returns a standard attribute by name.
func (c *Convention) Attribute(name string) (*StandardAttribute, bool) {
	a, ok := c.attrs[name]
	return a, ok
}

// AttributesFor returns the fixed, dependency-respecting attribute order
// of an operation.
func (c *Convention) AttributesFor(op Operation) []*StandardAttribute {
	return c.byOp[op]
}

// IsNoop reports whether the convention declares no attributes at all and
// the interceptor can delegate unchanged.
func (c *Convention) IsNoop() bool { return len(c.attrs) == 0 }

// Apply runs the validate-and-set protocol for one intercepted operation
// and returns the normalized attribute values to be written to the node.
// It never writes to the node itself. The first failure aborts the call
// (fail-fast); callers must not finalize a node whose mandatory metadata
// failed.
//
// The node may be nil when validation runs before structural creation.
func (c *Convention) Apply(ctx context.Context, op Operation, node container.Node, supplied map[string]any) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx)
	resolved := map[string]any{}

	for _, attr := range c.byOp[op] {
		raw, providedOK := supplied[attr.Name]

		if !providedOK {
			if c.satisfiedByAlternative(attr, node, supplied) {
				logger.Debug("Attribute satisfied via alternative.",
					"convention", c.name, "attribute", attr.Name, "alternative", attr.Alternative)
				continue
			}
			switch attr.Default.Policy {
			case convdoc.DefaultObligatory:
				return nil, &MissingObligatoryAttributeError{
					Attribute:   attr.Name,
					Alternative: attr.Alternative,
					Operation:   op,
					Convention:  c.name,
				}
			case convdoc.DefaultOmit:
				continue
			case convdoc.DefaultLiteral:
				raw = attr.Default.Literal
			}
		}

		if missing, ok := c.missingPrerequisite(attr, node, resolved, supplied); ok {
			return nil, &MissingPrerequisiteError{
				Attribute:  attr.Name,
				Missing:    missing,
				Operation:  op,
				Convention: c.name,
			}
		}

		vctx := validator.Context{
			Attribute: attr.Name,
			Node:      node,
			Siblings:  resolved,
		}
		normalized, err := attr.Validator.Validate(ctx, raw, vctx)
		if err != nil {
			return nil, &ValidationFailedError{
				Attribute:  attr.Name,
				Value:      fmt.Sprintf("%v", raw),
				Rule:       attr.Validator.Kind(),
				Operation:  op,
				Convention: c.name,
				Err:        err,
			}
		}
		resolved[attr.Name] = normalized
	}

	return resolved, nil
}

// satisfiedByAlternative reports whether an unsupplied attribute is
// covered by its declared alternative, either supplied in the same call
// or already present on the node. The alternative's own validity is
// enforced at its own position in the order; fail-fast semantics keep
// the overall call honest.
func (c *Convention) satisfiedByAlternative(attr *StandardAttribute, node container.Node, supplied map[string]any) bool {
	if attr.Alternative == "" {
		return false
	}
	if _, ok := supplied[attr.Alternative]; ok {
		return true
	}
	return node != nil && node.HasAttr(attr.Alternative)
}

// missingPrerequisite returns the first requires-linked name that is
// neither resolved in this call, supplied alongside it, nor already
// present on the node.
func (c *Convention) missingPrerequisite(attr *StandardAttribute, node container.Node, resolved, supplied map[string]any) (string, bool) {
	for _, req := range attr.Requires {
		if _, ok := resolved[req]; ok {
			continue
		}
		if _, ok := supplied[req]; ok {
			continue
		}
		if node != nil && node.HasAttr(req) {
			continue
		}
		return req, true
	}
	return "", false
}

// Without derives a new convention lacking the named attributes. The
// receiver is not mutated; requirement links and alternatives pointing at
// removed attributes are dropped from the copies.
func (c *Convention) Without(names ...string) (*Convention, error) {
	removed := make(map[string]struct{}, len(names))
	for _, n := range names {
		removed[n] = struct{}{}
	}

	// Rebuild from per-operation order so document order survives into
	// the derived convention.
	kept := make([]*StandardAttribute, 0, len(c.attrs))
	seen := map[string]struct{}{}
	for _, op := range Operations {
		for _, a := range c.byOp[op] {
			if _, drop := removed[a.Name]; drop {
				continue
			}
			if _, dup := seen[a.Name]; dup {
				continue
			}
			seen[a.Name] = struct{}{}

			cp := *a
			if _, gone := removed[cp.Alternative]; gone {
				cp.Alternative = ""
			}
			var reqs []string
			for _, r := range cp.Requires {
				if _, gone := removed[r]; !gone {
					reqs = append(reqs, r)
				}
			}
			cp.Requires = reqs
			kept = append(kept, &cp)
		}
	}

	derived, err := New(c.name, kept)
	if err != nil {
		return nil, err
	}
	derived.institution = c.institution
	derived.contact = c.contact
	derived.table = c.table
	return derived, nil
}

// String renders a per-operation summary of the convention: each
// attribute's name, whether it is obligatory, and its description. Meant
// for introspection and debugging, not for parsing.
func (c *Convention) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Convention %q", c.name)
	if c.institution != "" {
		fmt.Fprintf(&b, " (%s)", c.institution)
	}
	b.WriteString("\n")

	for _, op := range Operations {
		attrs := c.byOp[op]
		if len(attrs) == 0 {
			continue
		}
		fmt.Fprintf(&b, "  %s:\n", op)
		for _, a := range attrs {
			kind := "optional"
			if a.Obligatory() {
				kind = "obligatory"
			}
			fmt.Fprintf(&b, "    %s (%s)", a.Name, kind)
			if a.Description != "" {
				fmt.Fprintf(&b, ": %s", a.Description)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// AttributeNames returns all attribute names, sorted. Used by summaries
// and tests.
func (c *Convention) AttributeNames() []string {
	names := make([]string, 0, len(c.attrs))
	for n := range c.attrs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
