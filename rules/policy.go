package rules

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalidPolicy = errors.New("invalid dispatch policy")

// Policy selects how many matching rules fire for a record.
type Policy int

const (
	// FirstMatch fires only the earliest matching rule.
	FirstMatch Policy = iota
	// AllMatch fires every matching rule, in declared order.
	AllMatch
)

func (p Policy) String() string {
	switch p {
	case FirstMatch:
		return "first-match"
	case AllMatch:
		return "all-match"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy accepts "first-match", "all-match" and the short forms
// "first" and "all".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "first-match", "first":
		return FirstMatch, nil
	case "all-match", "all":
		return AllMatch, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
}

func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p Policy) MarshalYAML() (any, error) {
	return p.String(), nil
}

func (p *Policy) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParsePolicy(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*p = parsed
	return nil
}
