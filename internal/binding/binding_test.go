package binding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthiasprobst/hdfconv/internal/container"
	"github.com/matthiasprobst/hdfconv/internal/convdoc"
	"github.com/matthiasprobst/hdfconv/internal/convention"
	"github.com/matthiasprobst/hdfconv/internal/memcontainer"
	"github.com/matthiasprobst/hdfconv/internal/nametable"
	"github.com/matthiasprobst/hdfconv/internal/registry"
	"github.com/matthiasprobst/hdfconv/internal/validator"
)

// tutorialConvention mirrors the walk-through convention: a oneof-checked
// data_type on init, and units plus table-resolved standard_name on
// dataset creation, where units must be set before the name is resolved.
func tutorialConvention(t *testing.T) *convention.Convention {
	t.Helper()

	table, err := nametable.New("fluid", "v1.0", []nametable.Entry{
		{Name: "static_pressure", Unit: "Pa", Description: "Static pressure."},
		{Name: "velocity", Unit: "m/s", Description: "Velocity.", Affixable: []string{"component"}},
	}, []nametable.Affix{
		{Family: "component", Prefix: "x", Meaning: "X-component of"},
	})
	require.NoError(t, err)

	c, err := convention.New("tutorial", []*convention.StandardAttribute{
		{
			Name:      "data_type",
			Validator: &validator.OneOf{Choices: []string{"experimental", "numerical"}},
			Targets:   []convention.Operation{convention.OpInit},
		},
		{
			Name:      "units",
			Validator: &validator.Unit{},
			Targets:   []convention.Operation{convention.OpCreateDataset},
		},
		{
			Name:      "standard_name",
			Validator: &validator.StandardName{Table: table},
			Targets:   []convention.Operation{convention.OpCreateDataset},
			Requires:  []string{"units"},
		},
		{
			Name:      "comment",
			Validator: mustRegex(t, `.+`),
			Targets:   []convention.Operation{convention.OpCreateGroup},
			Default:   convdoc.Default{Policy: convdoc.DefaultOmit},
		},
	})
	require.NoError(t, err)
	return c
}

func mustRegex(t *testing.T, pattern string) validator.Validator {
	t.Helper()
	v, err := validator.NewRegex(pattern)
	require.NoError(t, err)
	return v
}

func newSession(t *testing.T) (*Session, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	reg.Register(tutorialConvention(t))
	return New(memcontainer.New(), reg), reg
}

func TestNoopPassThrough(t *testing.T) {
	// Arrange: nothing activated, the built-in no-op convention governs.
	ctx := context.Background()
	s, _ := newSession(t)

	// Act
	require.NoError(t, s.Init(ctx, map[string]any{"anything": "goes"}))
	grp, err := s.CreateGroup(ctx, s.Root(), "raw", map[string]any{"note": 42})
	require.NoError(t, err)
	ds, err := s.CreateDataset(ctx, grp, "p", []int{16}, map[string]any{"units": "florp"})
	require.NoError(t, err)

	// Assert: attributes pass through without any validation.
	v, _ := s.Root().GetAttr("anything")
	assert.Equal(t, "goes", v)
	v, _ = grp.GetAttr("note")
	assert.Equal(t, 42, v)
	v, _ = ds.GetAttr("units")
	assert.Equal(t, "florp", v)
}

func TestInitValidatesRootAttributes(t *testing.T) {
	ctx := context.Background()

	t.Run("valid data_type is written", func(t *testing.T) {
		// Arrange
		s, reg := newSession(t)
		require.NoError(t, reg.Activate("tutorial"))

		// Act
		err := s.Init(ctx, map[string]any{"data_type": "experimental"})

		// Assert
		require.NoError(t, err)
		v, ok := s.Root().GetAttr("data_type")
		require.True(t, ok)
		assert.Equal(t, "experimental", v)
	})

	t.Run("rejected data_type writes nothing", func(t *testing.T) {
		// Arrange
		s, reg := newSession(t)
		require.NoError(t, reg.Activate("tutorial"))

		// Act
		err := s.Init(ctx, map[string]any{"data_type": "guessed", "extra": "value"})

		// Assert
		var failed *convention.ValidationFailedError
		require.ErrorAs(t, err, &failed)
		assert.False(t, s.Root().HasAttr("data_type"))
		assert.False(t, s.Root().HasAttr("extra"), "no attribute may land on a node whose validation failed")
	})

	t.Run("missing obligatory data_type", func(t *testing.T) {
		s, reg := newSession(t)
		require.NoError(t, reg.Activate("tutorial"))

		err := s.Init(ctx, nil)

		var missing *convention.MissingObligatoryAttributeError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "data_type", missing.Attribute)
	})
}

func TestCreateDataset(t *testing.T) {
	ctx := context.Background()

	activate := func(t *testing.T) *Session {
		s, reg := newSession(t)
		require.NoError(t, reg.Activate("tutorial"))
		require.NoError(t, s.Init(ctx, map[string]any{"data_type": "experimental"}))
		return s
	}

	t.Run("conforming dataset is created with normalized attributes", func(t *testing.T) {
		// Arrange
		s := activate(t)

		// Act
		ds, err := s.CreateDataset(ctx, s.Root(), "p", []int{64}, map[string]any{
			"units":         "Pa",
			"standard_name": "static_pressure",
			"provenance":    "run-17",
		})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []int{64}, ds.Shape())
		v, _ := ds.GetAttr("standard_name")
		assert.Equal(t, "static_pressure", v)
		v, _ = ds.GetAttr("provenance")
		assert.Equal(t, "run-17", v, "attributes the convention does not claim pass through")
	})

	t.Run("affixed standard name resolves against the table", func(t *testing.T) {
		// Arrange
		s := activate(t)

		// Act
		_, err := s.CreateDataset(ctx, s.Root(), "u", []int{64}, map[string]any{
			"units":         "mm/s",
			"standard_name": "x_velocity",
		})

		// Assert
		assert.NoError(t, err)
	})

	t.Run("failed validation rolls the dataset back", func(t *testing.T) {
		// Arrange
		s := activate(t)
		root := s.Root().(interface {
			container.Group
			Children() []string
		})

		// Act: pressure in kilograms is dimensional nonsense.
		_, err := s.CreateDataset(ctx, s.Root(), "p", []int{64}, map[string]any{
			"units":         "kg",
			"standard_name": "static_pressure",
		})

		// Assert
		var failed *convention.ValidationFailedError
		require.ErrorAs(t, err, &failed)
		assert.NotContains(t, root.Children(), "p")
	})

	t.Run("missing obligatory units rolls back too", func(t *testing.T) {
		// Arrange
		s := activate(t)
		root := s.Root().(interface {
			container.Group
			Children() []string
		})

		// Act
		_, err := s.CreateDataset(ctx, s.Root(), "p", []int{64}, nil)

		// Assert
		var missing *convention.MissingObligatoryAttributeError
		require.ErrorAs(t, err, &missing)
		assert.NotContains(t, root.Children(), "p")
	})

	t.Run("structural failure reports without convention involvement", func(t *testing.T) {
		// Arrange
		s := activate(t)
		_, err := s.CreateDataset(ctx, s.Root(), "p", []int{4}, map[string]any{
			"units": "Pa", "standard_name": "static_pressure",
		})
		require.NoError(t, err)

		// Act: duplicate name fails in the container itself.
		_, err = s.CreateDataset(ctx, s.Root(), "p", []int{4}, map[string]any{
			"units": "Pa", "standard_name": "static_pressure",
		})

		// Assert
		require.Error(t, err)
		var failed *convention.ValidationFailedError
		assert.NotErrorAs(t, err, &failed)
	})
}

func TestCreateGroup(t *testing.T) {
	ctx := context.Background()

	t.Run("optional comment is written when supplied", func(t *testing.T) {
		// Arrange
		s, reg := newSession(t)
		require.NoError(t, reg.Activate("tutorial"))

		// Act
		grp, err := s.CreateGroup(ctx, s.Root(), "run", map[string]any{"comment": "first run"})

		// Assert
		require.NoError(t, err)
		v, _ := grp.GetAttr("comment")
		assert.Equal(t, "first run", v)
	})

	t.Run("omitted optional comment creates a bare group", func(t *testing.T) {
		s, reg := newSession(t)
		require.NoError(t, reg.Activate("tutorial"))

		grp, err := s.CreateGroup(ctx, s.Root(), "run", nil)

		require.NoError(t, err)
		assert.Empty(t, grp.Attrs())
	})

	t.Run("rejected comment rolls the group back", func(t *testing.T) {
		// Arrange
		s, reg := newSession(t)
		require.NoError(t, reg.Activate("tutorial"))
		root := s.Root().(interface {
			container.Group
			Children() []string
		})

		// Act: empty string fails the .+ pattern.
		_, err := s.CreateGroup(ctx, s.Root(), "run", map[string]any{"comment": ""})

		// Assert
		require.Error(t, err)
		assert.NotContains(t, root.Children(), "run")
	})
}

func TestScopedActivation(t *testing.T) {
	// Arrange
	ctx := context.Background()
	s, reg := newSession(t)

	// Act: strict rules inside the scope, pass-through outside it.
	err := reg.WithActive("tutorial", func() error {
		_, err := s.CreateDataset(ctx, s.Root(), "strict", nil, nil)
		return err
	})

	// Assert
	var missing *convention.MissingObligatoryAttributeError
	require.ErrorAs(t, err, &missing)

	_, err = s.CreateDataset(ctx, s.Root(), "loose", nil, nil)
	assert.NoError(t, err, "after the scope exits the no-op convention governs again")
}
