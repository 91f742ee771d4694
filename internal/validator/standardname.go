package validator

import (
	"context"
	"fmt"
	"regexp"

	"github.com/matthiasprobst/hdfconv/internal/ctxlog"
	"github.com/matthiasprobst/hdfconv/internal/nametable"
	"github.com/matthiasprobst/hdfconv/internal/units"
)

// namePattern is the lexical form of a standard name: lower-case snake
// case starting with a letter.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// StandardName validates a value against a name table: the value must be
// lexically well-formed and resolve (literally or via transformation) to a
// table entry. When a sibling "units" attribute is visible, it must be
// dimensionally compatible with the entry's canonical unit. This is the
// cross-attribute semantic check of the engine.
type StandardName struct {
	Table *nametable.Table

	// UnitsAttribute is the sibling attribute holding the unit of measure.
	// Empty means the conventional name "units".
	UnitsAttribute string
}

// Kind returns "standard_name".
func (v *StandardName) Kind() string { return "standard_name" }

// Validate resolves the name in the table and cross-checks the sibling
// units attribute if one is visible.
func (v *StandardName) Validate(ctx context.Context, raw any, vctx Context) (any, error) {
	s, err := asString(raw)
	if err != nil {
		return nil, err
	}
	if v.Table == nil {
		return nil, fmt.Errorf("no name table is configured for this convention")
	}
	if !namePattern.MatchString(s) {
		return nil, fmt.Errorf("not a well-formed standard name (want lower-case snake_case)")
	}

	entry, err := v.Table.Lookup(s)
	if err != nil {
		return nil, err
	}

	unitsAttr := v.UnitsAttribute
	if unitsAttr == "" {
		unitsAttr = "units"
	}
	sibling, ok := vctx.Sibling(unitsAttr)
	if !ok {
		ctxlog.FromContext(ctx).Debug("standard_name validated without units cross-check",
			"name", s, "units_attribute", unitsAttr)
		return s, nil
	}

	siblingStr, err := asString(sibling)
	if err != nil {
		return nil, fmt.Errorf("sibling attribute %q: %v", unitsAttr, err)
	}
	supplied, err := units.Parse(siblingStr)
	if err != nil {
		return nil, fmt.Errorf("sibling attribute %q: unparseable unit %q", unitsAttr, siblingStr)
	}
	canonical, err := units.Parse(entry.Unit)
	if err != nil {
		return nil, fmt.Errorf("canonical unit %q of %q is unparseable: %v", entry.Unit, s, err)
	}
	if !supplied.Compatible(canonical) {
		return nil, fmt.Errorf("units %q are not dimensionally compatible with canonical unit %q of standard name %q",
			siblingStr, entry.Unit, s)
	}
	return s, nil
}
