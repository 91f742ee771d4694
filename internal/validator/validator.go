// Package validator defines the pluggable rule unit of the convention
// engine and its built-in rule kinds.
//
// A Validator accepts a raw attribute value plus contextual information
// (the target node, sibling attributes already resolved in the same call)
// and returns either a normalized value or a failure describing the rule
// that rejected it. Validators are deterministic, side-effect free, and
// never write to the target node themselves; the convention performs all
// writes.
package validator

import (
	"context"
	"sort"

	"github.com/matthiasprobst/hdfconv/internal/container"
)

// Context carries the surroundings of a single validation: which attribute
// is being validated, the node it will be written to (nil when validation
// runs before structural creation), and the sibling attributes resolved
// earlier in the same convention application.
type Context struct {
	// Attribute is the standard-attribute name under validation.
	Attribute string
	// Node is the target node, or nil during pre-creation validation.
	Node container.Node
	// Siblings maps attribute names to normalized values resolved earlier
	// in the same convention application.
	Siblings map[string]any
}

// Sibling returns a sibling attribute value, preferring values resolved in
// the current call over values already present on the node.
func (c Context) Sibling(name string) (any, bool) {
	if v, ok := c.Siblings[name]; ok {
		return v, true
	}
	if c.Node != nil {
		if v, ok := c.Node.GetAttr(name); ok {
			return v, true
		}
	}
	return nil, false
}

// SiblingNames returns the names visible through Sibling, sorted. Used in
// error messages and debug logs.
func (c Context) SiblingNames() []string {
	seen := map[string]struct{}{}
	for name := range c.Siblings {
		seen[name] = struct{}{}
	}
	if c.Node != nil {
		for _, name := range c.Node.Attrs() {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validator is a named rule. Validate returns the normalized value on
// success; on failure the error states the specific rule that was
// violated, not just "invalid". Implementations must be deterministic for
// a given (raw, vctx) pair so dry runs can re-run them safely.
type Validator interface {
	// Kind returns the symbolic rule name used in documents and errors.
	Kind() string
	// Validate checks and normalizes a raw value.
	Validate(ctx context.Context, raw any, vctx Context) (any, error)
}
