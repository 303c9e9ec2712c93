package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// RuleSet is the declarative, YAML-backed form of a dispatcher.
type RuleSet struct {
	Name     string      `yaml:"name" json:"name"`
	Policy   Policy      `yaml:"policy" json:"policy"`
	Fallback *ActionSpec `yaml:"fallback,omitempty" json:"fallback,omitempty"`
	Rules    []RuleSpec  `yaml:"rules" json:"rules"`
}

// RuleSpec declares one rule. When is an expr condition over RecordEnv.
type RuleSpec struct {
	Name string     `yaml:"name" json:"name"`
	When string     `yaml:"when" json:"when"`
	Do   ActionSpec `yaml:"do" json:"do"`
}

// LoadRuleSet reads and validates a rule set file.
func LoadRuleSet(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule set: %w", err)
	}
	rs, err := ParseRuleSet(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

// ParseRuleSet decodes and validates a YAML rule set. Unknown fields are
// rejected.
func ParseRuleSet(data []byte) (*RuleSet, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var rs RuleSet
	if err := dec.Decode(&rs); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty rule set")
		}
		return nil, fmt.Errorf("parse rule set: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// Validate checks the structure only; conditions and actions are checked by Build.
func (rs *RuleSet) Validate() error {
	seen := make(map[string]bool, len(rs.Rules))
	for i, r := range rs.Rules {
		if r.Name == "" {
			return fmt.Errorf("rule %d: missing name", i)
		}
		if seen[r.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateRule, r.Name)
		}
		seen[r.Name] = true
		if r.When == "" {
			return fmt.Errorf("rule %q: missing when", r.Name)
		}
	}
	return nil
}

// Build resolves every action through reg and compiles the rule set into a
// Dispatcher. A nil reg means DefaultActions.
func (rs *RuleSet) Build(reg ActionRegistry) (*Dispatcher, error) {
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	if reg == nil {
		reg = DefaultActions()
	}

	rules := make([]*Rule, 0, len(rs.Rules))
	for _, spec := range rs.Rules {
		action, err := reg.Build(spec.Do)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", spec.Name, err)
		}
		rules = append(rules, &Rule{
			Name:         spec.Name,
			ConditionSrc: spec.When,
			Action:       action,
		})
	}

	var opts []Option
	if rs.Fallback != nil {
		fallback, err := reg.Build(*rs.Fallback)
		if err != nil {
			return nil, fmt.Errorf("fallback: %w", err)
		}
		opts = append(opts, WithFallback(fallback))
	}
	return NewDispatcher(rs.Policy, rules, opts...)
}

func (rs *RuleSet) YAML() ([]byte, error) {
	return yaml.Marshal(rs)
}
