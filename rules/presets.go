package rules

import (
	"fmt"
	"slices"

	"github.com/nstehr/sift/model"
)

var presets = map[string]func() *RuleSet{
	"levels": LevelsPreset,
	"notify": NotifyPreset,
}

// Preset returns a fresh copy of a built-in rule set.
func Preset(name string) (*RuleSet, error) {
	fn, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (have %v)", name, PresetNames())
	}
	return fn(), nil
}

func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// categoryIs builds an exact, case-sensitive category condition. Rule sets
// that want case folding can use Is instead.
func categoryIs(c string) string {
	return fmt.Sprintf("Category == %q", c)
}

// LevelsPreset is a chain of responsibility over log levels: the first
// matching level handles the record, anything else is dumped as unknown.
func LevelsPreset() *RuleSet {
	return &RuleSet{
		Name:   "levels",
		Policy: FirstMatch,
		Rules: []RuleSpec{
			{Name: "error", When: categoryIs(model.CategoryError), Do: ActionSpec{Kind: KindEmit, Prefix: "ERROR:"}},
			{Name: "warn", When: categoryIs(model.CategoryWarn), Do: ActionSpec{Kind: KindEmit, Prefix: "WARNING:"}},
			{Name: "info", When: categoryIs(model.CategoryInfo), Do: ActionSpec{Kind: KindEmit, Prefix: "INFO:"}},
		},
		Fallback: &ActionSpec{Kind: KindDump, Prefix: "UNKNOWN TYPE:"},
	}
}

// NotifyPreset applies every notification rule that matches.
func NotifyPreset() *RuleSet {
	return &RuleSet{
		Name:   "notify",
		Policy: AllMatch,
		Rules: []RuleSpec{
			{Name: "log-failures", When: categoryIs(model.CategoryError) + ` || Payload contains "fail"`, Do: ActionSpec{Kind: KindEmit, Prefix: "LOG:"}},
			{Name: "long-message", When: `Length() > 10`, Do: ActionSpec{Kind: KindEmit, Prefix: "Long message:"}},
			{Name: "greeting", When: `Payload contains "hello"`, Do: ActionSpec{Kind: KindEmit, Prefix: "Greeting detected:"}},
		},
		Fallback: &ActionSpec{Kind: KindRender, Expr: `"No matching rules for message:" + Payload`},
	}
}
