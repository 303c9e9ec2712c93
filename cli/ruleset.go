package cli

import (
	"fmt"

	"github.com/nstehr/sift/rules"
)

// RuleSetOptions selects the rule set a command works on.
type RuleSetOptions struct {
	RulesFile string
	Preset    string
	Policy    string // overrides the rule set's policy when set
}

// policy parses the --policy override; ok is false when none was given.
func (o RuleSetOptions) policy() (p rules.Policy, ok bool, err error) {
	if o.Policy == "" {
		return 0, false, nil
	}
	p, err = rules.ParsePolicy(o.Policy)
	if err != nil {
		return 0, false, err
	}
	return p, true, nil
}

// load resolves the rule set. Callers validate --policy with policy first.
func (o RuleSetOptions) load() (*rules.RuleSet, error) {
	var (
		rs  *rules.RuleSet
		err error
	)
	if o.RulesFile != "" {
		rs, err = rules.LoadRuleSet(o.RulesFile)
	} else {
		rs, err = rules.Preset(o.Preset)
	}
	if err != nil {
		return nil, err
	}
	p, ok, err := o.policy()
	if err != nil {
		return nil, err
	}
	if ok {
		rs.Policy = p
	}
	return rs, nil
}

func (o RuleSetOptions) source() string {
	if o.RulesFile != "" {
		return o.RulesFile
	}
	return fmt.Sprintf("preset %s", o.Preset)
}
