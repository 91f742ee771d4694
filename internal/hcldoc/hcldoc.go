// Package hcldoc provides the HCL implementation of the convdoc.Loader
// interface. A convention document consists of a single `convention`
// block carrying the header metadata and any number of `attribute` blocks
// declaring the standard attributes.
//
// Default values are written as native HCL expressions and evaluated to
// cty values at load time, so documents can declare string, number, bool,
// and list defaults without format-specific quoting rules.
package hcldoc

import (
	"context"
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/matthiasprobst/hdfconv/internal/convdoc"
	"github.com/matthiasprobst/hdfconv/internal/ctxlog"
	"github.com/matthiasprobst/hdfconv/internal/validator"
)

// conventionBlock is the HCL schema of the `convention` header block.
type conventionBlock struct {
	Name        string `hcl:"name,label"`
	Institution string `hcl:"institution,optional"`
	Contact     string `hcl:"contact,optional"`
	NameTable   string `hcl:"name_table,optional"`
}

// attributeBlock is the HCL schema of one `attribute` block.
type attributeBlock struct {
	Name         string         `hcl:"name,label"`
	Validator    string         `hcl:"validator"`
	Pattern      string         `hcl:"pattern,optional"`
	Choices      []string       `hcl:"choices,optional"`
	Target       []string       `hcl:"target"`
	Description  string         `hcl:"description,optional"`
	Obligatory   bool           `hcl:"obligatory,optional"`
	DefaultValue hcl.Expression `hcl:"default_value,optional"`
	Requires     []string       `hcl:"requires,optional"`
	Alternative  string         `hcl:"alternative,optional"`
}

// documentConfig is the top-level structure of a convention document file.
type documentConfig struct {
	Convention *conventionBlock  `hcl:"convention,block"`
	Attributes []*attributeBlock `hcl:"attribute,block"`
}

// Loader loads HCL convention documents.
type Loader struct{}

// NewLoader creates a new HCL document loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses a convention document from a local path into the
// format-agnostic model.
func (l *Loader) Load(ctx context.Context, path string) (*convdoc.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading HCL convention document.", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %w", path, diags)
	}

	var doc documentConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &doc); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode %s: %w", path, diags)
	}
	if doc.Convention == nil {
		return nil, fmt.Errorf("%s: missing 'convention' block", path)
	}

	model := &convdoc.Model{
		Name:        doc.Convention.Name,
		Institution: doc.Convention.Institution,
		Contact:     doc.Convention.Contact,
		NameTable:   doc.Convention.NameTable,
	}

	for _, blk := range doc.Attributes {
		def, err := translateAttribute(blk)
		if err != nil {
			return nil, fmt.Errorf("%s: attribute %q: %w", path, blk.Name, err)
		}
		model.Attributes = append(model.Attributes, def)
	}

	logger.Debug("HCL convention document loaded.",
		"convention", model.Name, "attributes", len(model.Attributes))
	return model, nil
}

// translateAttribute converts one HCL attribute block into the agnostic
// model, resolving the default-value expression and the optionality
// policy.
func translateAttribute(blk *attributeBlock) (*convdoc.AttributeDefinition, error) {
	def := &convdoc.AttributeDefinition{
		Name: blk.Name,
		Validator: validator.Spec{
			Kind:    blk.Validator,
			Pattern: blk.Pattern,
			Choices: blk.Choices,
		},
		Targets:     blk.Target,
		Description: blk.Description,
		Requires:    blk.Requires,
		Alternative: blk.Alternative,
	}

	var literal *cty.Value
	if blk.DefaultValue != nil {
		val, diags := blk.DefaultValue.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid default_value: %w", diags)
		}
		if !val.IsNull() {
			literal = &val
		}
	}

	switch {
	case blk.Obligatory && literal != nil:
		return nil, fmt.Errorf("obligatory attribute cannot carry a default_value")
	case blk.Obligatory:
		def.Default = convdoc.Default{Policy: convdoc.DefaultObligatory}
	case literal != nil:
		goVal, err := ctyToGo(*literal)
		if err != nil {
			return nil, fmt.Errorf("default_value: %w", err)
		}
		def.Default = convdoc.Default{Policy: convdoc.DefaultLiteral, Literal: goVal}
	default:
		def.Default = convdoc.Default{Policy: convdoc.DefaultOmit}
	}

	return def, nil
}

// ctyToGo converts an evaluated cty literal into its native Go value.
func ctyToGo(val cty.Value) (any, error) {
	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), nil
	case ty == cty.Bool:
		return val.True(), nil
	case ty == cty.Number:
		bf := val.AsBigFloat()
		if i, acc := bf.Int64(); acc == big.Exact {
			return i, nil
		}
		f, _ := bf.Float64()
		return f, nil
	case ty.IsTupleType() || ty.IsListType():
		var out []any
		for it := val.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			gv, err := ctyToGo(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, gv)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported default value type %s", ty.FriendlyName())
	}
}
