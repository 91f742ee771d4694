package validator

import (
	"fmt"
	"sort"
	"sync"

	"github.com/matthiasprobst/hdfconv/internal/nametable"
)

// Spec is the symbolic rule reference as it appears in convention
// documents: a kind plus the kind-specific configuration.
type Spec struct {
	// Kind selects the rule, e.g. "regex", "units", "standard_name".
	Kind string
	// Pattern configures the regex kind.
	Pattern string
	// Choices configures the oneof kind.
	Choices []string
}

// Deps are the external collaborators a factory may need.
type Deps struct {
	// Table is the active name table, required by standard_name.
	Table *nametable.Table
}

// Factory builds a validator from its document spec.
type Factory func(spec Spec, deps Deps) (Validator, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[string]Factory{}
)

// Register makes a validator kind available to document loaders. It
// panics on duplicate registration, mirroring the fail-early policy for
// wiring mistakes.
func Register(kind string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("validator kind %q already registered", kind))
	}
	factories[kind] = f
}

// Kinds returns the registered kinds, sorted. Used by document loaders for
// error messages.
func Kinds() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Build constructs the validator a document spec refers to.
func Build(spec Spec, deps Deps) (Validator, error) {
	factoriesMu.RLock()
	f, ok := factories[spec.Kind]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown validator kind %q (registered: %v)", spec.Kind, Kinds())
	}
	return f(spec, deps)
}

func init() {
	Register("regex", func(spec Spec, _ Deps) (Validator, error) {
		if spec.Pattern == "" {
			return nil, fmt.Errorf("regex validator requires a pattern")
		}
		return NewRegex(spec.Pattern)
	})
	Register("oneof", func(spec Spec, _ Deps) (Validator, error) {
		if len(spec.Choices) == 0 {
			return nil, fmt.Errorf("oneof validator requires choices")
		}
		return &OneOf{Choices: spec.Choices}, nil
	})
	Register("url", func(Spec, Deps) (Validator, error) {
		return &URL{}, nil
	})
	Register("orcid", func(Spec, Deps) (Validator, error) {
		return &ORCID{}, nil
	})
	Register("units", func(Spec, Deps) (Validator, error) {
		return &Unit{}, nil
	})
	Register("standard_name", func(_ Spec, deps Deps) (Validator, error) {
		return &StandardName{Table: deps.Table}, nil
	})
}
