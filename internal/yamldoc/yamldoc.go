// Package yamldoc provides the YAML implementation of the convdoc.Loader
// interface. It accepts the same logical document shape as the HCL form
// and converges on the identical in-memory model.
//
// Before field-level decoding, the raw document is checked against an
// embedded JSON Schema, so structural mistakes (a missing name, a
// misspelled key, a scalar where a list belongs) are reported with schema
// positions instead of surfacing later as odd zero values.
package yamldoc

import (
	"context"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/matthiasprobst/hdfconv/internal/convdoc"
	"github.com/matthiasprobst/hdfconv/internal/ctxlog"
	"github.com/matthiasprobst/hdfconv/internal/validator"
)

// documentSchema is the structural contract of a YAML convention document.
const documentSchema = `{
  "type": "object",
  "required": ["convention", "attributes"],
  "properties": {
    "convention": {
      "type": "object",
      "required": ["name"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "institution": {"type": "string"},
        "contact": {"type": "string"},
        "name_table": {"type": "string"}
      },
      "additionalProperties": false
    },
    "attributes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "validator", "target"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "validator": {"type": "string", "minLength": 1},
          "pattern": {"type": "string"},
          "choices": {"type": "array", "items": {"type": "string"}},
          "target": {"type": "array", "items": {"type": "string"}, "minItems": 1},
          "description": {"type": "string"},
          "obligatory": {"type": "boolean"},
          "default_value": {},
          "requires": {"type": "array", "items": {"type": "string"}},
          "alternative": {"type": "string"}
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}`

var compiledSchema = jsonschema.MustCompileString("convention-document.json", documentSchema)

// document mirrors the YAML document shape.
type document struct {
	Convention struct {
		Name        string `yaml:"name"`
		Institution string `yaml:"institution"`
		Contact     string `yaml:"contact"`
		NameTable   string `yaml:"name_table"`
	} `yaml:"convention"`
	Attributes []documentAttribute `yaml:"attributes"`
}

// documentAttribute is one entry of the attributes list.
type documentAttribute struct {
	Name         string   `yaml:"name"`
	Validator    string   `yaml:"validator"`
	Pattern      string   `yaml:"pattern"`
	Choices      []string `yaml:"choices"`
	Target       []string `yaml:"target"`
	Description  string   `yaml:"description"`
	Obligatory   bool     `yaml:"obligatory"`
	DefaultValue any      `yaml:"default_value"`
	Requires     []string `yaml:"requires"`
	Alternative  string   `yaml:"alternative"`
}

// Loader loads YAML convention documents.
type Loader struct{}

// NewLoader creates a new YAML document loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses a convention document from a local path into the
// format-agnostic model.
func (l *Loader) Load(ctx context.Context, path string) (*convdoc.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading YAML convention document.", "path", path)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return l.parse(ctx, path, raw)
}

func (l *Loader) parse(ctx context.Context, path string, raw []byte) (*convdoc.Model, error) {
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := compiledSchema.Validate(generic); err != nil {
		return nil, fmt.Errorf("%s is not a valid convention document: %w", path, err)
	}

	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	model := &convdoc.Model{
		Name:        doc.Convention.Name,
		Institution: doc.Convention.Institution,
		Contact:     doc.Convention.Contact,
		NameTable:   doc.Convention.NameTable,
	}
	for _, attr := range doc.Attributes {
		def, err := translateAttribute(attr)
		if err != nil {
			return nil, fmt.Errorf("%s: attribute %q: %w", path, attr.Name, err)
		}
		model.Attributes = append(model.Attributes, def)
	}

	ctxlog.FromContext(ctx).Debug("YAML convention document loaded.",
		"convention", model.Name, "attributes", len(model.Attributes))
	return model, nil
}

// translateAttribute converts one YAML attribute entry into the agnostic
// model.
func translateAttribute(attr documentAttribute) (*convdoc.AttributeDefinition, error) {
	def := &convdoc.AttributeDefinition{
		Name: attr.Name,
		Validator: validator.Spec{
			Kind:    attr.Validator,
			Pattern: attr.Pattern,
			Choices: attr.Choices,
		},
		Targets:     attr.Target,
		Description: attr.Description,
		Requires:    attr.Requires,
		Alternative: attr.Alternative,
	}

	switch {
	case attr.Obligatory && attr.DefaultValue != nil:
		return nil, fmt.Errorf("obligatory attribute cannot carry a default_value")
	case attr.Obligatory:
		def.Default = convdoc.Default{Policy: convdoc.DefaultObligatory}
	case attr.DefaultValue != nil:
		def.Default = convdoc.Default{Policy: convdoc.DefaultLiteral, Literal: attr.DefaultValue}
	default:
		def.Default = convdoc.Default{Policy: convdoc.DefaultOmit}
	}
	return def, nil
}
