package validator

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/matthiasprobst/hdfconv/internal/units"
)

// asString coerces the raw attribute value of a string-rule validator.
func asString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", fmt.Errorf("expected a string value, got %T", raw)
	}
}

// Regex validates a value against a compiled pattern.
type Regex struct {
	Pattern *regexp.Regexp
}

// NewRegex compiles a pattern into a Regex validator.
func NewRegex(pattern string) (*Regex, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
	}
	return &Regex{Pattern: re}, nil
}

// Kind returns "regex".
func (v *Regex) Kind() string { return "regex" }

// Validate checks the value against the pattern.
func (v *Regex) Validate(_ context.Context, raw any, _ Context) (any, error) {
	s, err := asString(raw)
	if err != nil {
		return nil, err
	}
	if !v.Pattern.MatchString(s) {
		return nil, fmt.Errorf("does not match pattern %q", v.Pattern.String())
	}
	return s, nil
}

// OneOf validates membership in a fixed set of choices.
type OneOf struct {
	Choices []string
}

// Kind returns "oneof".
func (v *OneOf) Kind() string { return "oneof" }

// Validate checks set membership.
func (v *OneOf) Validate(_ context.Context, raw any, _ Context) (any, error) {
	s, err := asString(raw)
	if err != nil {
		return nil, err
	}
	for _, c := range v.Choices {
		if s == c {
			return s, nil
		}
	}
	return nil, fmt.Errorf("not one of [%s]", strings.Join(v.Choices, ", "))
}

// URL validates absolute http(s) URL syntax.
type URL struct{}

// Kind returns "url".
func (v *URL) Kind() string { return "url" }

// Validate checks that the value parses as an absolute URL with a host.
func (v *URL) Validate(_ context.Context, raw any, _ Context) (any, error) {
	s, err := asString(raw)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("not a valid URL: %v", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("not an absolute URL (scheme and host required)")
	}
	return s, nil
}

// orcidPattern matches the bare 16-digit ORCID form with dashes; the last
// character may be the checksum digit X.
var orcidPattern = regexp.MustCompile(`^(\d{4})-(\d{4})-(\d{4})-(\d{3}[\dX])$`)

// ORCID validates an ORCID identifier, either bare ("0000-0002-1825-0097")
// or as an https://orcid.org/ URL, including the ISO 7064 11-2 checksum.
// The normalized value is the full URL form.
type ORCID struct{}

// Kind returns "orcid".
func (v *ORCID) Kind() string { return "orcid" }

// Validate checks structure and checksum and normalizes to the URL form.
func (v *ORCID) Validate(_ context.Context, raw any, _ Context) (any, error) {
	s, err := asString(raw)
	if err != nil {
		return nil, err
	}
	id := strings.TrimPrefix(strings.TrimPrefix(s, "https://orcid.org/"), "http://orcid.org/")
	if !orcidPattern.MatchString(id) {
		return nil, fmt.Errorf("not an ORCID identifier (expected 0000-0000-0000-000X form)")
	}
	if !orcidChecksumOK(id) {
		return nil, fmt.Errorf("ORCID checksum mismatch")
	}
	return "https://orcid.org/" + id, nil
}

// orcidChecksumOK verifies the ISO 7064 11-2 check digit over the 15 base
// digits of a structurally valid identifier.
func orcidChecksumOK(id string) bool {
	digits := strings.ReplaceAll(id, "-", "")
	total := 0
	for _, r := range digits[:15] {
		total = (total + int(r-'0')) * 2
	}
	remainder := total % 11
	check := (12 - remainder) % 11
	want := byte('0' + check)
	if check == 10 {
		want = 'X'
	}
	return digits[15] == want
}

// Unit validates that a value parses as a unit of measure.
type Unit struct{}

// Kind returns "units".
func (v *Unit) Kind() string { return "units" }

// Validate parses the unit expression; the normalized value is the trimmed
// input string.
func (v *Unit) Validate(_ context.Context, raw any, _ Context) (any, error) {
	s, err := asString(raw)
	if err != nil {
		return nil, err
	}
	if _, err := units.Parse(s); err != nil {
		return nil, fmt.Errorf("unparseable unit: %v", err)
	}
	return strings.TrimSpace(s), nil
}
