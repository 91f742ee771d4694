// Package units implements parsing and dimensional analysis for units of
// measure as they appear in container attributes ("m/s", "kg m-2", "Pa").
//
// The engine needs exactly two capabilities from a unit system: decide
// whether a string parses as a unit at all, and decide whether two units
// are dimensionally compatible (the standard-name cross-check compares a
// supplied "units" attribute against a name table's canonical unit).
// Magnitude conversion is out of scope; "km/h" and "m/s" are compatible
// without any factor being computed.
//
// A unit is reduced to a vector of exponents over the seven SI base
// dimensions. Derived symbols (Hz, N, Pa, J, W, ...) expand to base
// dimensions during parsing, and SI prefixes are recognized in front of
// any symbol.
package units

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Dimension is an exponent vector over the SI base dimensions, in the
// order: length, mass, time, electric current, temperature, amount of
// substance, luminous intensity.
type Dimension [7]int

// Dimensionless is the zero dimension vector.
var Dimensionless = Dimension{}

// add returns d + o scaled by n (n = -1 subtracts).
func (d Dimension) add(o Dimension, n int) Dimension {
	var out Dimension
	for i := range d {
		out[i] = d[i] + n*o[i]
	}
	return out
}

// pow returns d scaled by n.
func (d Dimension) pow(n int) Dimension {
	var out Dimension
	for i := range d {
		out[i] = d[i] * n
	}
	return out
}

// String renders the dimension in base symbols, e.g. "m s-2".
func (d Dimension) String() string {
	symbols := [7]string{"m", "kg", "s", "A", "K", "mol", "cd"}
	var parts []string
	for i, exp := range d {
		switch {
		case exp == 0:
		case exp == 1:
			parts = append(parts, symbols[i])
		default:
			parts = append(parts, fmt.Sprintf("%s%d", symbols[i], exp))
		}
	}
	if len(parts) == 0 {
		return "1"
	}
	return strings.Join(parts, " ")
}

// Unit is a parsed unit of measure: the textual form it was built from and
// its reduced dimension.
type Unit struct {
	expr string
	dim  Dimension
}

// String returns the textual form of the unit ("1" for dimensionless).
func (u Unit) String() string {
	if u.expr == "" {
		return "1"
	}
	return u.expr
}

// Dim returns the reduced dimension vector.
func (u Unit) Dim() Dimension { return u.dim }

// Compatible reports whether two units share a dimension vector and can
// therefore describe the same physical quantity.
func (u Unit) Compatible(o Unit) bool { return u.dim == o.dim }

// IsDimensionless reports whether the unit reduces to the empty dimension.
func (u Unit) IsDimensionless() bool { return u.dim == Dimensionless }

// Mul returns the product unit, with the textual form rebuilt from the
// combined symbol exponents.
func (u Unit) Mul(o Unit) Unit {
	return combine(u, o, 1)
}

// Div returns the quotient unit u/o.
func (u Unit) Div(o Unit) Unit {
	return combine(u, o, -1)
}

// Pow returns the unit raised to an integer power.
func (u Unit) Pow(n int) Unit {
	factors, err := factorize(u.expr)
	if err != nil {
		// u came from Parse, so its expression factorizes.
		panic(fmt.Sprintf("units: unparseable expression %q on parsed unit", u.expr))
	}
	for sym := range factors {
		factors[sym] *= n
	}
	return Unit{expr: render(factors), dim: u.dim.pow(n)}
}

func combine(u, o Unit, sign int) Unit {
	uf, err := factorize(u.expr)
	if err != nil {
		panic(fmt.Sprintf("units: unparseable expression %q on parsed unit", u.expr))
	}
	of, err := factorize(o.expr)
	if err != nil {
		panic(fmt.Sprintf("units: unparseable expression %q on parsed unit", o.expr))
	}
	for sym, exp := range of {
		uf[sym] += sign * exp
		if uf[sym] == 0 {
			delete(uf, sym)
		}
	}
	return Unit{expr: render(uf), dim: u.dim.add(o.dim, sign)}
}

// baseDim builds a dimension vector with a single base exponent set.
func baseDim(idx int) Dimension {
	var d Dimension
	d[idx] = 1
	return d
}

// symbolDims maps recognized unit symbols (without prefix) to their
// dimension. Gram is the prefixable mass symbol; kg arrives as prefix k
// on g.
var symbolDims = map[string]Dimension{
	"m":   baseDim(0),
	"g":   {1: 1}, // mass; dimensionally equivalent to kg
	"s":   baseDim(2),
	"A":   baseDim(3),
	"K":   baseDim(4),
	"mol": baseDim(5),
	"cd":  baseDim(6),

	// Accepted aliases and non-SI time/volume symbols.
	"min": baseDim(2),
	"h":   baseDim(2),
	"day": baseDim(2),
	"L":   {0: 3},
	"l":   {0: 3},

	// Dimensionless.
	"1":      {},
	"rad":    {},
	"sr":     {},
	"deg":    {},
	"%":      {},
	"counts": {},

	// Derived symbols, expanded to base dimensions.
	"Hz":  {2: -1},
	"N":   {0: 1, 1: 1, 2: -2},
	"Pa":  {0: -1, 1: 1, 2: -2},
	"bar": {0: -1, 1: 1, 2: -2},
	"J":   {0: 2, 1: 1, 2: -2},
	"W":   {0: 2, 1: 1, 2: -3},
	"C":   {2: 1, 3: 1},
	"V":   {0: 2, 1: 1, 2: -3, 3: -1},
	"T":   {1: 1, 2: -2, 3: -1},
	"Ohm": {0: 2, 1: 1, 2: -3, 3: -2},
}

// prefixes are the SI prefixes accepted in front of any symbol. Longest
// match is tried first so "da" wins over "d".
var prefixes = []string{"da", "y", "z", "a", "f", "p", "n", "u", "µ", "m", "c", "d", "h", "k", "M", "G", "T", "P", "E"}

// Parse parses a unit expression. Accepted forms combine symbol tokens
// with optional integer exponents ("m2", "s-1", "m^2"), separated by
// whitespace, "*" or "." for products and "/" for quotients. The empty
// string and "1" parse as dimensionless.
func Parse(s string) (Unit, error) {
	expr := strings.TrimSpace(s)
	factors, err := factorize(expr)
	if err != nil {
		return Unit{}, err
	}
	dim := Dimensionless
	for sym, exp := range factors {
		d, err := symbolDim(sym)
		if err != nil {
			return Unit{}, fmt.Errorf("cannot parse unit %q: %w", s, err)
		}
		dim = dim.add(d.pow(exp), 1)
	}
	return Unit{expr: expr, dim: dim}, nil
}

// MustParse is a test and table-construction helper that panics on a
// malformed unit expression.
func MustParse(s string) Unit {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

// factorize splits a unit expression into symbol -> exponent, honouring
// "/" as a sign flip for everything that follows it.
func factorize(expr string) (map[string]int, error) {
	factors := map[string]int{}
	expr = strings.TrimSpace(expr)
	if expr == "" || expr == "1" {
		return factors, nil
	}

	sign := 1
	// Normalize product separators to spaces, keep "/" as its own token.
	replaced := strings.NewReplacer("*", " ", "·", " ", "/", " / ").Replace(expr)
	for _, tok := range strings.Fields(replaced) {
		if tok == "/" {
			sign = -sign
			continue
		}
		sym, exp, err := splitExponent(tok)
		if err != nil {
			return nil, err
		}
		if sym == "1" {
			continue
		}
		factors[sym] += sign * exp
		if factors[sym] == 0 {
			delete(factors, sym)
		}
	}
	return factors, nil
}

// splitExponent splits "m2", "s-1" or "m^2" into symbol and exponent.
func splitExponent(tok string) (string, int, error) {
	if i := strings.IndexAny(tok, "^"); i >= 0 {
		exp, err := strconv.Atoi(strings.TrimPrefix(tok[i+1:], "^"))
		if err != nil {
			return "", 0, fmt.Errorf("bad exponent in token %q", tok)
		}
		return tok[:i], exp, nil
	}
	// Trailing signed integer without caret.
	cut := len(tok)
	for cut > 0 {
		c := tok[cut-1]
		if c >= '0' && c <= '9' {
			cut--
			continue
		}
		if (c == '-' || c == '+') && cut < len(tok) {
			cut--
		}
		break
	}
	if cut == len(tok) {
		return tok, 1, nil
	}
	if cut == 0 {
		// Pure number: only "1" is meaningful in a unit expression.
		if tok == "1" {
			return "1", 1, nil
		}
		return "", 0, fmt.Errorf("bad unit token %q", tok)
	}
	exp, err := strconv.Atoi(tok[cut:])
	if err != nil {
		return "", 0, fmt.Errorf("bad exponent in token %q", tok)
	}
	return tok[:cut], exp, nil
}

// symbolDim resolves a (possibly prefixed) symbol to its dimension.
func symbolDim(sym string) (Dimension, error) {
	if d, ok := symbolDims[sym]; ok {
		return d, nil
	}
	for _, p := range prefixes {
		if rest, ok := strings.CutPrefix(sym, p); ok {
			if d, found := symbolDims[rest]; found {
				return d, nil
			}
		}
	}
	return Dimension{}, fmt.Errorf("unknown unit symbol %q", sym)
}

// render rebuilds a canonical expression from symbol exponents: positive
// exponents first, then a "/" part for negatives, symbols sorted.
func render(factors map[string]int) string {
	var num, den []string
	syms := make([]string, 0, len(factors))
	for sym := range factors {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	for _, sym := range syms {
		exp := factors[sym]
		switch {
		case exp == 1:
			num = append(num, sym)
		case exp > 1:
			num = append(num, fmt.Sprintf("%s%d", sym, exp))
		case exp == -1:
			den = append(den, sym)
		case exp < -1:
			den = append(den, fmt.Sprintf("%s%d", sym, -exp))
		}
	}
	switch {
	case len(num) == 0 && len(den) == 0:
		return "1"
	case len(den) == 0:
		return strings.Join(num, " ")
	case len(num) == 0:
		return "1/" + strings.Join(den, " ")
	default:
		return strings.Join(num, " ") + "/" + strings.Join(den, " ")
	}
}
