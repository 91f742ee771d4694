package convention

import (
	"github.com/matthiasprobst/hdfconv/internal/convdoc"
	"github.com/matthiasprobst/hdfconv/internal/validator"
)

// StandardAttribute is the declarative unit of a convention: a named,
// validated, possibly-obligatory metadata field bound to one or more
// creation operations. Attributes are created when a convention document
// is parsed and are immutable afterwards; each is owned exclusively by
// its convention.
type StandardAttribute struct {
	// Name is the attribute name as written to the container node.
	Name string
	// Validator checks and normalizes supplied values.
	Validator validator.Validator
	// Targets are the operations the attribute binds to.
	Targets []Operation
	// Default is the optionality/default policy.
	Default convdoc.Default
	// Requires lists attribute names that must be resolved (in the same
	// call) or already present on the node before this one runs.
	Requires []string
	// Alternative optionally names an attribute that satisfies this
	// one's obligation in its place.
	Alternative string
	// Description explains the attribute in summaries and errors.
	Description string
}

// Obligatory reports whether the attribute must be supplied (no default).
func (a *StandardAttribute) Obligatory() bool {
	return a.Default.Policy == convdoc.DefaultObligatory
}

// TargetsOperation reports whether the attribute binds to the operation.
func (a *StandardAttribute) TargetsOperation(op Operation) bool {
	for _, t := range a.Targets {
		if t == op {
			return true
		}
	}
	return false
}
