package memcontainer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthiasprobst/hdfconv/internal/container"
)

func TestNew(t *testing.T) {
	c := New()
	require.NotNil(t, c.Root())
	assert.Equal(t, "/", c.Root().Path())
	assert.Equal(t, container.KindRoot, c.Root().Kind())
}

func TestCreateGroupAndDataset(t *testing.T) {
	c := New()

	grp, err := c.Root().CreateGroup("measurements")
	require.NoError(t, err)
	assert.Equal(t, "/measurements", grp.Path())
	assert.Equal(t, container.KindGroup, grp.Kind())

	ds, err := grp.CreateDataset("u", []int{100, 3})
	require.NoError(t, err)
	assert.Equal(t, "/measurements/u", ds.Path())
	assert.Equal(t, []int{100, 3}, ds.Shape())
}

func TestCreateChild_Errors(t *testing.T) {
	c := New()

	t.Run("duplicate name", func(t *testing.T) {
		_, err := c.Root().CreateGroup("a")
		require.NoError(t, err)
		_, err = c.Root().CreateGroup("a")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := c.Root().CreateGroup("")
		require.Error(t, err)
	})
}

func TestAttrs(t *testing.T) {
	c := New()
	ds, err := c.Root().CreateDataset("u", []int{4})
	require.NoError(t, err)

	assert.False(t, ds.HasAttr("units"))
	require.NoError(t, ds.SetAttr("units", "m/s"))
	require.NoError(t, ds.SetAttr("long_name", "streamwise velocity"))

	v, ok := ds.GetAttr("units")
	require.True(t, ok)
	assert.Equal(t, "m/s", v)
	assert.Equal(t, []string{"long_name", "units"}, ds.Attrs())
}

func TestDelete(t *testing.T) {
	c := New()
	_, err := c.Root().CreateGroup("scratch")
	require.NoError(t, err)

	require.NoError(t, c.Root().Delete("scratch"))
	require.Error(t, c.Root().Delete("scratch"), "second delete must fail")
}

func TestNodeTokensAreUnique(t *testing.T) {
	c := New()
	a, err := c.Root().CreateGroup("a")
	require.NoError(t, err)
	b, err := c.Root().CreateGroup("b")
	require.NoError(t, err)

	na := a.(*node)
	nb := b.(*node)
	assert.NotEqual(t, na.Token(), nb.Token())
}
