// Package convdoc defines the format-agnostic representation of a
// convention document, together with the Loader interface implemented by
// the format-specific adapters (HCL in package hcldoc, YAML in package
// yamldoc). All construction sources converge on this one in-memory shape
// before a convention is built from it.
package convdoc

import (
	"context"

	"github.com/matthiasprobst/hdfconv/internal/validator"
)

// Operation names a creation operation a standard attribute can target.
// The convention package interprets them; loaders only carry them through.
const (
	OpInit          = "init"
	OpCreateGroup   = "create_group"
	OpCreateDataset = "create_dataset"
)

// DefaultPolicy determines what happens when an attribute is not supplied.
type DefaultPolicy int

const (
	// DefaultObligatory means the attribute must be supplied; there is no
	// default value.
	DefaultObligatory DefaultPolicy = iota
	// DefaultLiteral means a declared literal is written when the caller
	// supplies nothing.
	DefaultLiteral
	// DefaultOmit means an unsupplied attribute is skipped entirely.
	DefaultOmit
)

// String returns the document-level keyword of the policy.
func (p DefaultPolicy) String() string {
	switch p {
	case DefaultObligatory:
		return "obligatory"
	case DefaultLiteral:
		return "literal"
	case DefaultOmit:
		return "omit"
	default:
		return "unknown"
	}
}

// Default pairs a policy with its literal value (meaningful only for
// DefaultLiteral).
type Default struct {
	Policy  DefaultPolicy
	Literal any
}

// AttributeDefinition is the format-agnostic representation of one
// attribute block of a convention document.
type AttributeDefinition struct {
	// Name is the attribute name as written to the container.
	Name string
	// Validator references the rule that checks supplied values.
	Validator validator.Spec
	// Targets lists the operations the attribute binds to (OpInit,
	// OpCreateGroup, OpCreateDataset).
	Targets []string
	// Description explains the attribute for summaries and errors.
	Description string
	// Default is the optionality/default policy.
	Default Default
	// Requires lists attributes that must be resolved before this one.
	Requires []string
	// Alternative names an attribute that may satisfy this one's
	// obligation in its place.
	Alternative string
}

// Model is the unified representation of an entire convention document:
// the convention-level header consumed once at construction time, plus
// the ordered attribute definitions.
type Model struct {
	// Name is the convention name used for registration.
	Name string
	// Institution is the maintaining institution's URL.
	Institution string
	// Contact is the maintainer's ORCID.
	Contact string
	// NameTable optionally points at the standard-name table document
	// (path or URL) the standard_name validator resolves against.
	NameTable string
	// Attributes holds the attribute definitions in document order.
	Attributes []*AttributeDefinition
}

// Loader is the interface for a format-specific document loader. Loaders
// translate a source document into the Model; they perform no validation
// beyond structural well-formedness.
type Loader interface {
	// Load reads a convention document from a local path.
	Load(ctx context.Context, path string) (*Model, error)
}
