// Package nametable implements the standard-name registry consulted by the
// standard_name validator: an ordered mapping of symbolic names to canonical
// unit and description, extended by derivation rules that recognize
// composite names (affixed components, derivatives, means, ...) that are
// not literally listed.
//
// A table is built once from a document (local YAML file, reader, or
// remote URL) and is read-only afterwards, with one exception: new
// transformations may be appended at runtime via AddTransformation. Lookup
// is safe for concurrent readers.
package nametable

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/matthiasprobst/hdfconv/internal/units"
)

// Entry is one resolved standard name: its canonical unit and its
// human-readable description. Entries are immutable once loaded.
type Entry struct {
	// Name is the symbolic name, e.g. "static_pressure".
	Name string
	// Unit is the canonical unit of measure, e.g. "Pa".
	Unit string
	// Description explains the quantity.
	Description string
	// Affixable lists the affix families (e.g. "component") whose
	// prefixes may be applied to this name.
	Affixable []string
}

// AffixableFor reports whether the entry accepts prefixes of the given
// affix family.
func (e Entry) AffixableFor(family string) bool {
	for _, f := range e.Affixable {
		if f == family {
			return true
		}
	}
	return false
}

// DeriveFunc builds a derived entry from a pattern match. The match slice
// is the full regexp submatch (index 0 is the whole name). The resolver
// re-enters the table for base names; implementations must resolve every
// referenced base name through it before composing the result.
type DeriveFunc func(match []string, resolve func(name string) (Entry, error)) (Entry, error)

// Transformation is a pattern plus derivation rule that extends a table to
// recognize composite names not literally listed.
type Transformation struct {
	// Name identifies the rule in errors and summaries.
	Name string
	// Pattern is matched against the candidate name after literal lookup
	// has failed. First registered match wins.
	Pattern *regexp.Regexp
	// Derive builds the derived entry from the match.
	Derive DeriveFunc
}

// Affix is one registered prefix of an affix family, e.g. component "x".
type Affix struct {
	// Family is the affix family, e.g. "component".
	Family string
	// Prefix is the literal prefix without the separating underscore.
	Prefix string
	// Meaning qualifies the base description, e.g. "X-component of".
	Meaning string
}

// Table is an ordered mapping name -> Entry plus the transformation rules
// that derive composite names. Construct via New or one of the loaders in
// this package.
type Table struct {
	mu         sync.RWMutex
	name       string
	version    string
	entries    map[string]Entry
	order      []string
	affixes    map[string]Affix // key: prefix
	transforms []Transformation
}

// New creates a table with the given identity, literal entries, and affix
// vocabulary. The operator transformations (derivative, square, mean, ...)
// and the affix transformation are registered up front; additional rules
// can be appended later via AddTransformation.
func New(name, version string, entries []Entry, affixes []Affix) (*Table, error) {
	t := &Table{
		name:    name,
		version: version,
		entries: make(map[string]Entry, len(entries)),
		affixes: make(map[string]Affix, len(affixes)),
	}
	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("table %q: entry with empty name", name)
		}
		if _, dup := t.entries[e.Name]; dup {
			return nil, fmt.Errorf("table %q: duplicate entry %q", name, e.Name)
		}
		t.entries[e.Name] = e
		t.order = append(t.order, e.Name)
	}
	for _, a := range affixes {
		if _, dup := t.affixes[a.Prefix]; dup {
			return nil, fmt.Errorf("table %q: duplicate affix prefix %q", name, a.Prefix)
		}
		t.affixes[a.Prefix] = a
	}

	if tr, ok := t.affixTransformation(); ok {
		t.transforms = append(t.transforms, tr)
	}
	t.transforms = append(t.transforms, operatorTransformations()...)
	return t, nil
}

// Name returns the table's identity.
func (t *Table) Name() string { return t.name }

// Version returns the table's version string.
func (t *Table) Version() string { return t.version }

// Names returns the literal entry names in document order.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Lookup resolves a name to an entry. Literal entries win; otherwise the
// transformations are tried in registration order and the first matching
// pattern decides the outcome. A matching pattern whose derivation fails
// yields a DerivationFailedError, never a silent fallthrough; if nothing
// matches, the result is an UnknownNameError.
func (t *Table) Lookup(name string) (Entry, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lookupLocked(name)
}

// lookupLocked requires t.mu to be held (read or write). Derivation
// re-enters it for base names, so transformations recurse without touching
// the lock again.
func (t *Table) lookupLocked(name string) (Entry, error) {
	if e, ok := t.entries[name]; ok {
		return e, nil
	}
	for _, tr := range t.transforms {
		match := tr.Pattern.FindStringSubmatch(name)
		if match == nil {
			continue
		}
		e, err := tr.Derive(match, t.lookupLocked)
		if err != nil {
			if _, already := err.(*DerivationFailedError); already {
				return Entry{}, err
			}
			return Entry{}, &DerivationFailedError{Name: name, Transformation: tr.Name, Cause: err}
		}
		if e.Name == "" || e.Unit == "" && e.Description == "" {
			return Entry{}, &DerivationFailedError{
				Name:           name,
				Transformation: tr.Name,
				Cause:          fmt.Errorf("transformation produced an incomplete entry"),
			}
		}
		return e, nil
	}
	return Entry{}, &UnknownNameError{Name: name, Table: t.name}
}

// AddTransformation appends a rule to the end of the transformation list.
// It is the only permitted mutation of a constructed table and must be
// externally coordinated with concurrent lookups only in the sense that
// the rule becomes visible atomically.
func (t *Table) AddTransformation(tr Transformation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.transforms = append(t.transforms, tr)
}

// affixTransformation builds the single pattern covering all registered
// affix prefixes, e.g. ^(x|y|z)_(.+)$ for the component family.
func (t *Table) affixTransformation() (Transformation, bool) {
	if len(t.affixes) == 0 {
		return Transformation{}, false
	}
	prefixes := make([]string, 0, len(t.affixes))
	for p := range t.affixes {
		prefixes = append(prefixes, regexp.QuoteMeta(p))
	}
	sort.Strings(prefixes)
	pattern := regexp.MustCompile("^(" + strings.Join(prefixes, "|") + ")_(.+)$")

	return Transformation{
		Name:    "affix",
		Pattern: pattern,
		Derive: func(match []string, resolve func(string) (Entry, error)) (Entry, error) {
			affix := t.affixes[match[1]]
			base, err := resolve(match[2])
			if err != nil {
				return Entry{}, err
			}
			if !base.AffixableFor(affix.Family) {
				return Entry{}, fmt.Errorf("base name %q does not accept %s affixes", base.Name, affix.Family)
			}
			return Entry{
				Name:        match[0],
				Unit:        base.Unit,
				Description: qualify(affix.Meaning, base.Description),
			}, nil
		},
	}, true
}

// qualify prepends an affix meaning to a base description.
func qualify(meaning, base string) string {
	meaning = strings.TrimSuffix(strings.TrimSpace(meaning), ".")
	base = strings.TrimSpace(base)
	if base == "" {
		return meaning + "."
	}
	return meaning + " " + lowerFirst(base)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// operatorTransformations returns the built-in operator rules. Each
// operator resolves every referenced base name first and applies its own
// unit-transformation rule.
func operatorTransformations() []Transformation {
	unary := func(name, pattern, descFormat string, rewrite func(units.Unit) units.Unit) Transformation {
		re := regexp.MustCompile(pattern)
		return Transformation{
			Name:    name,
			Pattern: re,
			Derive: func(match []string, resolve func(string) (Entry, error)) (Entry, error) {
				base, err := resolve(match[1])
				if err != nil {
					return Entry{}, err
				}
				u, err := units.Parse(base.Unit)
				if err != nil {
					return Entry{}, fmt.Errorf("canonical unit %q of base name %q is unparseable: %w", base.Unit, base.Name, err)
				}
				return Entry{
					Name:        match[0],
					Unit:        rewrite(u).String(),
					Description: fmt.Sprintf(descFormat, base.Name),
				}, nil
			},
		}
	}
	binary := func(name, pattern, descFormat string, rewrite func(a, b units.Unit) units.Unit) Transformation {
		re := regexp.MustCompile(pattern)
		return Transformation{
			Name:    name,
			Pattern: re,
			Derive: func(match []string, resolve func(string) (Entry, error)) (Entry, error) {
				a, err := resolve(match[1])
				if err != nil {
					return Entry{}, err
				}
				b, err := resolve(match[2])
				if err != nil {
					return Entry{}, err
				}
				ua, err := units.Parse(a.Unit)
				if err != nil {
					return Entry{}, fmt.Errorf("canonical unit %q of base name %q is unparseable: %w", a.Unit, a.Name, err)
				}
				ub, err := units.Parse(b.Unit)
				if err != nil {
					return Entry{}, fmt.Errorf("canonical unit %q of base name %q is unparseable: %w", b.Unit, b.Name, err)
				}
				return Entry{
					Name:        match[0],
					Unit:        rewrite(ua, ub).String(),
					Description: fmt.Sprintf(descFormat, a.Name, b.Name),
				}, nil
			},
		}
	}

	identity := func(u units.Unit) units.Unit { return u }
	return []Transformation{
		binary("derivative_of", `^derivative_of_(.+?)_wrt_(.+)$`,
			"Derivative of %s with respect to %s.",
			func(a, b units.Unit) units.Unit { return a.Div(b) }),
		unary("square_of", `^square_of_(.+)$`,
			"Square of %s.",
			func(u units.Unit) units.Unit { return u.Pow(2) }),
		unary("arithmetic_mean_of", `^arithmetic_mean_of_(.+)$`,
			"Arithmetic mean of %s.", identity),
		unary("standard_deviation_of", `^standard_deviation_of_(.+)$`,
			"Standard deviation of %s.", identity),
		unary("magnitude_of", `^magnitude_of_(.+)$`,
			"Magnitude of %s.", identity),
		binary("product_of", `^product_of_(.+?)_and_(.+)$`,
			"Product of %s and %s.",
			func(a, b units.Unit) units.Unit { return a.Mul(b) }),
		binary("ratio_of", `^ratio_of_(.+?)_and_(.+)$`,
			"Ratio of %s and %s.",
			func(a, b units.Unit) units.Unit { return a.Div(b) }),
	}
}
