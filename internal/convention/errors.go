package convention

import "fmt"

// MissingObligatoryAttributeError reports that an obligatory standard
// attribute was neither supplied nor satisfied through its alternative.
type MissingObligatoryAttributeError struct {
	// Attribute is the obligatory attribute's name.
	Attribute string
	// Alternative names the substitute attribute, if one is declared.
	Alternative string
	// Operation is the creation operation that was intercepted.
	Operation Operation
	// Convention is the name of the active convention.
	Convention string
}

func (e *MissingObligatoryAttributeError) Error() string {
	if e.Alternative != "" {
		return fmt.Sprintf("convention %q: %s requires attribute %q (or its alternative %q), but neither was supplied",
			e.Convention, e.Operation, e.Attribute, e.Alternative)
	}
	return fmt.Sprintf("convention %q: %s requires attribute %q, but it was not supplied",
		e.Convention, e.Operation, e.Attribute)
}

// MissingPrerequisiteError reports that a requires-linked attribute was
// not available when a dependent attribute needed it. It is distinct from
// a validation failure: the dependent attribute's value was never
// examined.
type MissingPrerequisiteError struct {
	// Attribute is the dependent attribute.
	Attribute string
	// Missing is the prerequisite that was not set.
	Missing string
	// Operation is the creation operation that was intercepted.
	Operation Operation
	// Convention is the name of the active convention.
	Convention string
}

func (e *MissingPrerequisiteError) Error() string {
	return fmt.Sprintf("convention %q: attribute %q on %s requires %q to be set first",
		e.Convention, e.Attribute, e.Operation, e.Missing)
}

// ValidationFailedError reports that a supplied value was rejected by an
// attribute's validator. It carries the attribute, the offending value,
// and the specific rule that failed.
type ValidationFailedError struct {
	// Attribute is the standard attribute whose validator rejected.
	Attribute string
	// Value is the rejected value, stringified.
	Value string
	// Rule is the validator kind that rejected, e.g. "units".
	Rule string
	// Operation is the creation operation that was intercepted.
	Operation Operation
	// Convention is the name of the active convention.
	Convention string
	// Err is the validator's reason.
	Err error
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("convention %q: attribute %q on %s rejected value %q (rule %s): %v",
		e.Convention, e.Attribute, e.Operation, e.Value, e.Rule, e.Err)
}

// Unwrap exposes the validator's reason, so table-lookup failures and
// similar causes stay addressable via errors.As.
func (e *ValidationFailedError) Unwrap() error { return e.Err }
