package convention

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthiasprobst/hdfconv/internal/convdoc"
	"github.com/matthiasprobst/hdfconv/internal/memcontainer"
	"github.com/matthiasprobst/hdfconv/internal/nametable"
	"github.com/matthiasprobst/hdfconv/internal/validator"
)

// recordingValidator accepts everything and records the order in which
// attributes were validated.
type recordingValidator struct {
	order *[]string
	name  string
}

func (v *recordingValidator) Kind() string { return "recording" }

func (v *recordingValidator) Validate(_ context.Context, raw any, _ validator.Context) (any, error) {
	*v.order = append(*v.order, v.name)
	return raw, nil
}

// rejectingValidator fails every value with a fixed reason.
type rejectingValidator struct{ reason error }

func (v *rejectingValidator) Kind() string { return "rejecting" }

func (v *rejectingValidator) Validate(_ context.Context, _ any, _ validator.Context) (any, error) {
	return nil, v.reason
}

func accept(t *testing.T) validator.Validator {
	t.Helper()
	v, err := validator.NewRegex(`.*`)
	require.NoError(t, err)
	return v
}

func obligatory(t *testing.T, name string, ops ...Operation) *StandardAttribute {
	t.Helper()
	return &StandardAttribute{Name: name, Validator: accept(t), Targets: ops}
}

func optional(t *testing.T, name string, ops ...Operation) *StandardAttribute {
	t.Helper()
	return &StandardAttribute{
		Name:      name,
		Validator: accept(t),
		Targets:   ops,
		Default:   convdoc.Default{Policy: convdoc.DefaultOmit},
	}
}

func TestNewRejectsMalformedConventions(t *testing.T) {
	t.Run("empty name", func(t *testing.T) {
		_, err := New("", nil)
		assert.ErrorContains(t, err, "needs a name")
	})

	t.Run("duplicate attribute", func(t *testing.T) {
		_, err := New("dup", []*StandardAttribute{
			obligatory(t, "title", OpInit),
			obligatory(t, "title", OpInit),
		})
		assert.ErrorContains(t, err, `duplicate attribute "title"`)
	})

	t.Run("attribute without validator", func(t *testing.T) {
		_, err := New("noval", []*StandardAttribute{
			{Name: "title", Targets: []Operation{OpInit}},
		})
		assert.ErrorContains(t, err, "no validator")
	})

	t.Run("alternative naming an unknown attribute", func(t *testing.T) {
		attr := obligatory(t, "title", OpInit)
		attr.Alternative = "headline"
		_, err := New("dangling", []*StandardAttribute{attr})
		assert.ErrorContains(t, err, `unknown alternative "headline"`)
	})

	t.Run("requirement cycle", func(t *testing.T) {
		// Arrange
		a := obligatory(t, "a", OpCreateDataset)
		a.Requires = []string{"b"}
		b := obligatory(t, "b", OpCreateDataset)
		b.Requires = []string{"a"}

		// Act
		_, err := New("cyclic", []*StandardAttribute{a, b})

		// Assert
		require.Error(t, err)
		assert.ErrorContains(t, err, "cycle")
	})
}

func TestAttributeOrder(t *testing.T) {
	t.Run("obligatory before optional, then document order", func(t *testing.T) {
		// Arrange
		c, err := New("ordered", []*StandardAttribute{
			optional(t, "comment", OpCreateDataset),
			obligatory(t, "units", OpCreateDataset),
			optional(t, "long_name", OpCreateDataset),
			obligatory(t, "standard_name", OpCreateDataset),
		})
		require.NoError(t, err)

		// Act
		attrs := c.AttributesFor(OpCreateDataset)

		// Assert
		names := make([]string, len(attrs))
		for i, a := range attrs {
			names[i] = a.Name
		}
		assert.Equal(t, []string{"units", "standard_name", "comment", "long_name"}, names)
	})

	t.Run("requirement edges outrank the obligatory-first rule", func(t *testing.T) {
		// Arrange: the obligatory attribute depends on the optional one.
		dependent := obligatory(t, "standard_name", OpCreateDataset)
		dependent.Requires = []string{"units"}
		c, err := New("edges", []*StandardAttribute{
			dependent,
			optional(t, "units", OpCreateDataset),
		})
		require.NoError(t, err)

		// Act
		attrs := c.AttributesFor(OpCreateDataset)

		// Assert
		require.Len(t, attrs, 2)
		assert.Equal(t, "units", attrs[0].Name)
		assert.Equal(t, "standard_name", attrs[1].Name)
	})
}

func TestApply(t *testing.T) {
	ctx := context.Background()

	t.Run("missing obligatory attribute aborts", func(t *testing.T) {
		// Arrange
		c, err := New("strict", []*StandardAttribute{obligatory(t, "title", OpInit)})
		require.NoError(t, err)

		// Act
		_, err = c.Apply(ctx, OpInit, nil, nil)

		// Assert
		var missing *MissingObligatoryAttributeError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "title", missing.Attribute)
		assert.Equal(t, OpInit, missing.Operation)
		assert.Equal(t, "strict", missing.Convention)
	})

	t.Run("fail-fast: attributes after the failure are never validated", func(t *testing.T) {
		// Arrange
		var order []string
		first := &StandardAttribute{
			Name:      "units",
			Validator: &rejectingValidator{reason: fmt.Errorf("no such unit")},
			Targets:   []Operation{OpCreateDataset},
		}
		second := &StandardAttribute{
			Name:      "long_name",
			Validator: &recordingValidator{order: &order, name: "long_name"},
			Targets:   []Operation{OpCreateDataset},
		}
		c, err := New("failfast", []*StandardAttribute{first, second})
		require.NoError(t, err)

		// Act
		_, err = c.Apply(ctx, OpCreateDataset, nil, map[string]any{
			"units":     "florp",
			"long_name": "pressure at the wall",
		})

		// Assert
		var failed *ValidationFailedError
		require.ErrorAs(t, err, &failed)
		assert.Equal(t, "units", failed.Attribute)
		assert.Empty(t, order, "attributes after the first failure must not run")
	})

	t.Run("invalid prerequisite reports its own failure, not a missing-prerequisite", func(t *testing.T) {
		// Arrange: standard_name requires units; units is supplied but
		// invalid, standard_name is not supplied at all.
		dependent := obligatory(t, "standard_name", OpCreateDataset)
		dependent.Requires = []string{"units"}
		unitsAttr := &StandardAttribute{
			Name:      "units",
			Validator: &rejectingValidator{reason: fmt.Errorf("unparseable unit")},
			Targets:   []Operation{OpCreateDataset},
		}
		c, err := New("chain", []*StandardAttribute{dependent, unitsAttr})
		require.NoError(t, err)

		// Act
		_, err = c.Apply(ctx, OpCreateDataset, nil, map[string]any{"units": "florp"})

		// Assert
		var failed *ValidationFailedError
		require.ErrorAs(t, err, &failed)
		assert.Equal(t, "units", failed.Attribute)
		var prereq *MissingPrerequisiteError
		assert.False(t, errors.As(err, &prereq))
	})

	t.Run("validation failure carries value, rule, and cause", func(t *testing.T) {
		// Arrange
		cause := fmt.Errorf("checksum mismatch")
		c, err := New("details", []*StandardAttribute{{
			Name:      "contact",
			Validator: &rejectingValidator{reason: cause},
			Targets:   []Operation{OpInit},
		}})
		require.NoError(t, err)

		// Act
		_, err = c.Apply(ctx, OpInit, nil, map[string]any{"contact": "nobody"})

		// Assert
		var failed *ValidationFailedError
		require.ErrorAs(t, err, &failed)
		assert.Equal(t, "contact", failed.Attribute)
		assert.Equal(t, "nobody", failed.Value)
		assert.Equal(t, "rejecting", failed.Rule)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("default literal is written and validated", func(t *testing.T) {
		// Arrange
		c, err := New("defaults", []*StandardAttribute{{
			Name:      "data_type",
			Validator: oneOf("experimental", "numerical"),
			Targets:   []Operation{OpInit},
			Default:   convdoc.Default{Policy: convdoc.DefaultLiteral, Literal: "experimental"},
		}})
		require.NoError(t, err)

		// Act
		resolved, err := c.Apply(ctx, OpInit, nil, nil)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "experimental", resolved["data_type"])
	})

	t.Run("invalid default literal is rejected like a supplied value", func(t *testing.T) {
		// Arrange
		c, err := New("baddefault", []*StandardAttribute{{
			Name:      "data_type",
			Validator: oneOf("experimental", "numerical"),
			Targets:   []Operation{OpInit},
			Default:   convdoc.Default{Policy: convdoc.DefaultLiteral, Literal: "simulated"},
		}})
		require.NoError(t, err)

		// Act
		_, err = c.Apply(ctx, OpInit, nil, nil)

		// Assert
		var failed *ValidationFailedError
		assert.ErrorAs(t, err, &failed)
	})

	t.Run("omitted optional attribute is skipped", func(t *testing.T) {
		// Arrange
		c, err := New("lenient", []*StandardAttribute{optional(t, "comment", OpCreateGroup)})
		require.NoError(t, err)

		// Act
		resolved, err := c.Apply(ctx, OpCreateGroup, nil, nil)

		// Assert
		require.NoError(t, err)
		assert.NotContains(t, resolved, "comment")
	})

	t.Run("missing prerequisite is not a validation failure", func(t *testing.T) {
		// Arrange: standard_name requires units, which targets a different
		// operation and is neither supplied nor present on the node.
		dependent := obligatory(t, "standard_name", OpCreateDataset)
		dependent.Requires = []string{"units"}
		c, err := New("prereq", []*StandardAttribute{
			dependent,
			obligatory(t, "units", OpInit),
		})
		require.NoError(t, err)

		// Act
		_, err = c.Apply(ctx, OpCreateDataset, nil, map[string]any{"standard_name": "static_pressure"})

		// Assert
		var missing *MissingPrerequisiteError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "standard_name", missing.Attribute)
		assert.Equal(t, "units", missing.Missing)
		var failed *ValidationFailedError
		assert.False(t, errors.As(err, &failed), "a missing prerequisite must not read as a validation failure")
	})

	t.Run("prerequisite already on the node satisfies the link", func(t *testing.T) {
		// Arrange
		dependent := obligatory(t, "standard_name", OpCreateDataset)
		dependent.Requires = []string{"units"}
		c, err := New("prereq", []*StandardAttribute{
			dependent,
			obligatory(t, "units", OpInit),
		})
		require.NoError(t, err)

		root := memcontainer.New().Root()
		ds, err := root.CreateDataset("p", []int{8})
		require.NoError(t, err)
		require.NoError(t, ds.SetAttr("units", "Pa"))

		// Act
		resolved, err := c.Apply(ctx, OpCreateDataset, ds, map[string]any{"standard_name": "static_pressure"})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "static_pressure", resolved["standard_name"])
	})

	t.Run("re-applying resolved values yields the same result", func(t *testing.T) {
		// Arrange
		c, err := New("idempotent", []*StandardAttribute{
			obligatory(t, "units", OpCreateDataset),
			{
				Name:      "data_type",
				Validator: accept(t),
				Targets:   []Operation{OpCreateDataset},
				Default:   convdoc.Default{Policy: convdoc.DefaultLiteral, Literal: "experimental"},
			},
		})
		require.NoError(t, err)

		// Act
		first, err := c.Apply(ctx, OpCreateDataset, nil, map[string]any{"units": "m/s"})
		require.NoError(t, err)
		second, err := c.Apply(ctx, OpCreateDataset, nil, first)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func oneOf(choices ...string) validator.Validator {
	return &validator.OneOf{Choices: choices}
}

func TestAlternatives(t *testing.T) {
	ctx := context.Background()

	build := func(t *testing.T) *Convention {
		long := obligatory(t, "long_name", OpCreateDataset)
		long.Alternative = "standard_name"
		std := optional(t, "standard_name", OpCreateDataset)
		c, err := New("alt", []*StandardAttribute{long, std})
		require.NoError(t, err)
		return c
	}

	t.Run("supplied alternative satisfies the obligation", func(t *testing.T) {
		// Arrange
		c := build(t)

		// Act
		resolved, err := c.Apply(ctx, OpCreateDataset, nil, map[string]any{"standard_name": "static_pressure"})

		// Assert
		require.NoError(t, err)
		assert.NotContains(t, resolved, "long_name")
		assert.Equal(t, "static_pressure", resolved["standard_name"])
	})

	t.Run("alternative already on the node satisfies the obligation", func(t *testing.T) {
		// Arrange
		c := build(t)
		root := memcontainer.New().Root()
		ds, err := root.CreateDataset("p", nil)
		require.NoError(t, err)
		require.NoError(t, ds.SetAttr("standard_name", "static_pressure"))

		// Act
		_, err = c.Apply(ctx, OpCreateDataset, ds, nil)

		// Assert
		assert.NoError(t, err)
	})

	t.Run("supplying both is not a conflict", func(t *testing.T) {
		// Arrange
		c := build(t)

		// Act
		resolved, err := c.Apply(ctx, OpCreateDataset, nil, map[string]any{
			"long_name":     "pressure at the wall",
			"standard_name": "static_pressure",
		})

		// Assert
		require.NoError(t, err)
		assert.Len(t, resolved, 2)
	})

	t.Run("neither attribute nor alternative reports both names", func(t *testing.T) {
		// Arrange
		c := build(t)

		// Act
		_, err := c.Apply(ctx, OpCreateDataset, nil, nil)

		// Assert
		var missing *MissingObligatoryAttributeError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "long_name", missing.Attribute)
		assert.Equal(t, "standard_name", missing.Alternative)
	})
}

func TestWithout(t *testing.T) {
	ctx := context.Background()

	build := func(t *testing.T) *Convention {
		long := obligatory(t, "long_name", OpCreateDataset)
		long.Alternative = "standard_name"
		std := optional(t, "standard_name", OpCreateDataset)
		std.Requires = []string{"units"}
		units := obligatory(t, "units", OpCreateDataset)
		c, err := New("base", []*StandardAttribute{long, std, units})
		require.NoError(t, err)
		return c
	}

	t.Run("derived convention lacks the removed attributes", func(t *testing.T) {
		// Arrange
		c := build(t)

		// Act
		derived, err := c.Without("long_name")

		// Assert
		require.NoError(t, err)
		_, ok := derived.Attribute("long_name")
		assert.False(t, ok)
		assert.Equal(t, []string{"standard_name", "units"}, derived.AttributeNames())
	})

	t.Run("the receiver is not mutated", func(t *testing.T) {
		// Arrange
		c := build(t)
		before := c.AttributeNames()

		// Act
		_, err := c.Without("units", "standard_name")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, before, c.AttributeNames())
		assert.Len(t, c.AttributesFor(OpCreateDataset), 3)
	})

	t.Run("dangling links into removed attributes are dropped", func(t *testing.T) {
		// Arrange
		c := build(t)

		// Act: removing units and standard_name leaves long_name with a
		// dangling alternative, which must be cleared rather than fail.
		derived, err := c.Without("units", "standard_name")
		require.NoError(t, err)

		// Assert: long_name is now unconditionally obligatory.
		_, applyErr := derived.Apply(ctx, OpCreateDataset, nil, nil)
		var missing *MissingObligatoryAttributeError
		require.ErrorAs(t, applyErr, &missing)
		assert.Empty(t, missing.Alternative)
	})
}

func TestApplyUnitsCrossCheck(t *testing.T) {
	ctx := context.Background()

	table, err := nametable.New("fluid", "v1.0", []nametable.Entry{
		{Name: "static_pressure", Unit: "Pa", Description: "Static pressure."},
		{Name: "velocity", Unit: "m/s", Description: "Velocity.", Affixable: []string{"component"}},
	}, []nametable.Affix{
		{Family: "component", Prefix: "x", Meaning: "X-component of"},
	})
	require.NoError(t, err)

	std := &StandardAttribute{
		Name:      "standard_name",
		Validator: &validator.StandardName{Table: table},
		Targets:   []Operation{OpCreateDataset},
		Requires:  []string{"units"},
	}
	unitsAttr := &StandardAttribute{
		Name:      "units",
		Validator: &validator.Unit{},
		Targets:   []Operation{OpCreateDataset},
	}
	c, err := New("fluid", []*StandardAttribute{std, unitsAttr})
	require.NoError(t, err)

	t.Run("compatible units pass", func(t *testing.T) {
		resolved, err := c.Apply(ctx, OpCreateDataset, nil, map[string]any{
			"standard_name": "x_velocity",
			"units":         "mm/s",
		})
		require.NoError(t, err)
		assert.Equal(t, "x_velocity", resolved["standard_name"])
	})

	t.Run("dimensionally incompatible units are rejected", func(t *testing.T) {
		_, err := c.Apply(ctx, OpCreateDataset, nil, map[string]any{
			"standard_name": "static_pressure",
			"units":         "kg",
		})
		var failed *ValidationFailedError
		require.ErrorAs(t, err, &failed)
		assert.Equal(t, "standard_name", failed.Attribute)
		assert.ErrorContains(t, err, "not dimensionally compatible")
	})

	t.Run("unknown standard name is rejected", func(t *testing.T) {
		_, err := c.Apply(ctx, OpCreateDataset, nil, map[string]any{
			"standard_name": "q_velocity",
			"units":         "m/s",
		})
		var failed *ValidationFailedError
		require.ErrorAs(t, err, &failed)
		var unknown *nametable.UnknownNameError
		assert.ErrorAs(t, err, &unknown)
	})
}

func TestFromModel(t *testing.T) {
	ctx := context.Background()

	model := func() *convdoc.Model {
		return &convdoc.Model{
			Name:        "tutorial",
			Institution: "https://example.org",
			Contact:     "0000-0002-1825-0097",
			Attributes: []*convdoc.AttributeDefinition{
				{
					Name:      "data_type",
					Validator: validator.Spec{Kind: "oneof", Choices: []string{"experimental", "numerical"}},
					Targets:   []string{convdoc.OpInit},
				},
				{
					Name:      "units",
					Validator: validator.Spec{Kind: "units"},
					Targets:   []string{convdoc.OpCreateDataset},
				},
			},
		}
	}

	t.Run("builds validators and normalizes the contact", func(t *testing.T) {
		// Act
		c, err := FromModel(ctx, model(), nil)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "tutorial", c.Name())
		assert.Equal(t, "https://orcid.org/0000-0002-1825-0097", c.Contact())
		assert.Equal(t, []string{"data_type", "units"}, c.AttributeNames())
	})

	t.Run("rejects a malformed institution URL", func(t *testing.T) {
		m := model()
		m.Institution = "not a url"
		_, err := FromModel(ctx, m, nil)
		assert.ErrorContains(t, err, "institution")
	})

	t.Run("rejects a contact with a bad checksum", func(t *testing.T) {
		m := model()
		m.Contact = "0000-0002-1825-0098"
		_, err := FromModel(ctx, m, nil)
		assert.ErrorContains(t, err, "contact")
	})

	t.Run("rejects an unknown validator kind", func(t *testing.T) {
		m := model()
		m.Attributes[0].Validator.Kind = "quux"
		_, err := FromModel(ctx, m, nil)
		assert.ErrorContains(t, err, "quux")
	})

	t.Run("rejects an unknown target operation", func(t *testing.T) {
		m := model()
		m.Attributes[0].Targets = []string{"rename"}
		_, err := FromModel(ctx, m, nil)
		assert.ErrorContains(t, err, "unknown target operation")
	})
}

func TestIsNoop(t *testing.T) {
	empty, err := New("h5py", nil)
	require.NoError(t, err)
	assert.True(t, empty.IsNoop())

	full, err := New("tutorial", []*StandardAttribute{obligatory(t, "title", OpInit)})
	require.NoError(t, err)
	assert.False(t, full.IsNoop())
}

func TestStringSummarizesPerOperation(t *testing.T) {
	c, err := New("tutorial", []*StandardAttribute{
		obligatory(t, "title", OpInit),
		optional(t, "comment", OpCreateGroup),
	})
	require.NoError(t, err)

	s := c.String()
	assert.Contains(t, s, `Convention "tutorial"`)
	assert.Contains(t, s, "title (obligatory)")
	assert.Contains(t, s, "comment (optional)")
}
