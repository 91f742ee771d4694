package nametable

import "fmt"

// UnknownNameError reports that a name resolves neither to a literal table
// entry nor through any registered transformation.
type UnknownNameError struct {
	// Name is the symbolic name that failed to resolve.
	Name string
	// Table is the name of the table that was consulted.
	Table string
}

func (e *UnknownNameError) Error() string {
	return fmt.Sprintf("name %q not found in table %q: no literal entry and no transformation matched", e.Name, e.Table)
}

// DerivationFailedError reports that a transformation pattern matched a
// candidate name but could not produce a valid derived entry, typically
// because a referenced base name did not resolve.
type DerivationFailedError struct {
	// Name is the candidate name whose derivation failed.
	Name string
	// Transformation identifies the rule that matched.
	Transformation string
	// Cause explains the failure, e.g. the unresolved sub-name.
	Cause error
}

func (e *DerivationFailedError) Error() string {
	return fmt.Sprintf("cannot derive %q via transformation %q: %v", e.Name, e.Transformation, e.Cause)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *DerivationFailedError) Unwrap() error { return e.Cause }
