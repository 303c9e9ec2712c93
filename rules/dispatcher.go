package rules

import (
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/nstehr/sift/model"
)

// Dispatcher runs a compiled rule sequence against records.
// Predicates are always evaluated in declared order, so under FirstMatch the
// earliest matching rule wins. The dispatcher holds no state between calls.
type Dispatcher struct {
	rules    []*Rule
	policy   Policy
	fallback ActionFunc
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithFallback replaces NoHandler as the action run when no rule matches.
func WithFallback(fn ActionFunc) Option {
	return func(d *Dispatcher) {
		if fn != nil {
			d.fallback = fn
		}
	}
}

// NewDispatcher compiles all rule conditions into expr bytecode. The rules are
// copied; later changes to the caller's slice or rules have no effect.
func NewDispatcher(policy Policy, rules []*Rule, opts ...Option) (*Dispatcher, error) {
	if policy != FirstMatch && policy != AllMatch {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPolicy, policy)
	}
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, err
	}
	d := &Dispatcher{
		rules:    compiled,
		policy:   policy,
		fallback: NoHandler,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func (d *Dispatcher) Policy() Policy { return d.policy }

func (d *Dispatcher) Len() int { return len(d.rules) }

// RuleNames lists rule names in evaluation order.
func (d *Dispatcher) RuleNames() []string {
	names := make([]string, len(d.rules))
	for i, r := range d.rules {
		names[i] = r.Name
	}
	return names
}

// Dispatch evaluates rec against the rules and runs the matching actions.
// It returns the rules whose actions ran, in order; an empty result means the
// fallback ran instead. Any condition or action error aborts the call.
func (d *Dispatcher) Dispatch(rec model.Record, out Sink) ([]*Rule, error) {
	env := NewRecordEnv(rec)

	var matched []*Rule
	for _, r := range d.rules {
		ok, err := r.matches(env)
		if err != nil {
			return nil, &DispatchError{Rule: r.Name, Stage: StageCondition, Err: err}
		}
		if !ok {
			continue
		}
		matched = append(matched, r)
		if d.policy == FirstMatch {
			break
		}
	}

	if len(matched) == 0 {
		slog.Debug("no rule matched", "category", rec.Category, "policy", d.policy)
		if err := d.fallback(env, out); err != nil {
			return nil, &DispatchError{Stage: StageFallback, Err: err}
		}
		return nil, nil
	}

	for _, r := range matched {
		slog.Debug("rule fired", "rule", r.Name, "category", rec.Category, "policy", d.policy)
		if err := r.Action(env, out); err != nil {
			return nil, &DispatchError{Rule: r.Name, Stage: StageAction, Err: err}
		}
	}
	return matched, nil
}

// NoHandler is the default fallback.
func NoHandler(env RecordEnv, out Sink) error {
	return out.Emit(env.Category, fmt.Sprintf("no handler for category %q", env.Category))
}

func (r *Rule) matches(env RecordEnv) (bool, error) {
	if r.program == nil {
		return r.Predicate(env)
	}
	result, err := vm.Run(r.program, env)
	if err != nil {
		return false, err
	}
	match, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("%w: got %T", ErrNonBoolCondition, result)
	}
	return match, nil
}

func compileRules(rules []*Rule) ([]*Rule, error) {
	compiled := make([]*Rule, 0, len(rules))
	for i, r := range rules {
		if r == nil {
			return nil, fmt.Errorf("rule %d is nil", i)
		}
		c := *r
		switch {
		case c.Action == nil:
			return nil, fmt.Errorf("rule %q: no action", c.Name)
		case c.ConditionSrc != "" && c.Predicate != nil:
			return nil, fmt.Errorf("rule %q: both condition and predicate set", c.Name)
		case c.ConditionSrc != "":
			prog, err := expr.Compile(c.ConditionSrc, expr.Env(RecordEnv{}), expr.AsBool())
			if err != nil {
				return nil, fmt.Errorf("compile rule %q: %w", c.Name, err)
			}
			c.program = prog
		case c.Predicate == nil:
			return nil, fmt.Errorf("rule %q: no condition", c.Name)
		}
		compiled = append(compiled, &c)
	}
	return compiled, nil
}
