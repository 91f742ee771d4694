package hcldoc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthiasprobst/hdfconv/internal/convdoc"
)

const tutorialHCL = `
convention "tutorial" {
  institution = "https://example.org"
  contact     = "https://orcid.org/0000-0002-1825-0097"
  name_table  = "tutorial-table.yaml"
}

attribute "units" {
  validator   = "units"
  target      = ["create_dataset"]
  description = "Physical unit of measure of the dataset."
  obligatory  = true
}

attribute "standard_name" {
  validator   = "standard_name"
  target      = ["create_dataset"]
  description = "Name resolved against the standard name table."
  requires    = ["units"]
  alternative = "long_name"
  obligatory  = true
}

attribute "long_name" {
  validator   = "regex"
  pattern     = "^[A-Za-z].*"
  target      = ["create_dataset"]
  description = "Free-text name starting with a letter."
}

attribute "data_type" {
  validator     = "oneof"
  choices       = ["experimental", "numerical", "analytical"]
  target        = ["init"]
  description   = "Kind of data stored in the container."
  default_value = "experimental"
}
`

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "convention.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	model, err := NewLoader().Load(context.Background(), writeDoc(t, tutorialHCL))
	require.NoError(t, err)

	assert.Equal(t, "tutorial", model.Name)
	assert.Equal(t, "https://example.org", model.Institution)
	assert.Equal(t, "https://orcid.org/0000-0002-1825-0097", model.Contact)
	assert.Equal(t, "tutorial-table.yaml", model.NameTable)
	require.Len(t, model.Attributes, 4)

	units := model.Attributes[0]
	assert.Equal(t, "units", units.Name)
	assert.Equal(t, "units", units.Validator.Kind)
	assert.Equal(t, convdoc.DefaultObligatory, units.Default.Policy)
	assert.Equal(t, []string{convdoc.OpCreateDataset}, units.Targets)

	sn := model.Attributes[1]
	assert.Equal(t, []string{"units"}, sn.Requires)
	assert.Equal(t, "long_name", sn.Alternative)

	ln := model.Attributes[2]
	assert.Equal(t, "regex", ln.Validator.Kind)
	assert.Equal(t, "^[A-Za-z].*", ln.Validator.Pattern)
	assert.Equal(t, convdoc.DefaultOmit, ln.Default.Policy)

	dt := model.Attributes[3]
	assert.Equal(t, convdoc.DefaultLiteral, dt.Default.Policy)
	assert.Equal(t, "experimental", dt.Default.Literal)
	assert.Equal(t, []string{"experimental", "numerical", "analytical"}, dt.Validator.Choices)
}

func TestLoad_NumericAndListDefaults(t *testing.T) {
	doc := `
convention "defaults" {}

attribute "scale" {
  validator     = "regex"
  pattern       = ".*"
  target        = ["create_dataset"]
  default_value = 2
}

attribute "tags" {
  validator     = "regex"
  pattern       = ".*"
  target        = ["create_group"]
  default_value = ["a", "b"]
}
`
	model, err := NewLoader().Load(context.Background(), writeDoc(t, doc))
	require.NoError(t, err)
	require.Len(t, model.Attributes, 2)

	assert.Equal(t, int64(2), model.Attributes[0].Default.Literal)
	assert.Equal(t, []any{"a", "b"}, model.Attributes[1].Default.Literal)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "nope.hcl"))
		require.Error(t, err)
	})

	t.Run("syntax error", func(t *testing.T) {
		_, err := NewLoader().Load(context.Background(), writeDoc(t, `attribute "x" {`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse")
	})

	t.Run("missing convention block", func(t *testing.T) {
		doc := `
attribute "units" {
  validator = "units"
  target    = ["create_dataset"]
}
`
		_, err := NewLoader().Load(context.Background(), writeDoc(t, doc))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing 'convention' block")
	})

	t.Run("obligatory with default is contradictory", func(t *testing.T) {
		doc := `
convention "bad" {}

attribute "units" {
  validator     = "units"
  target        = ["create_dataset"]
  obligatory    = true
  default_value = "m/s"
}
`
		_, err := NewLoader().Load(context.Background(), writeDoc(t, doc))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot carry a default_value")
	})
}
