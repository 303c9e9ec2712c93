package rules

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ActionKind tags an action so rule sets can name it instead of referencing a
// Go function. Kinds are resolved through an ActionRegistry built at startup.
type ActionKind string

const (
	KindEmit   ActionKind = "emit"   // Prefix + payload
	KindRender ActionKind = "render" // result of the string expression Expr
	KindDump   ActionKind = "dump"   // Prefix + the whole record
	KindDrop   ActionKind = "drop"   // nothing
)

// ActionSpec is the declarative form of an action.
type ActionSpec struct {
	Kind   ActionKind `yaml:"kind" json:"kind"`
	Prefix string     `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Expr   string     `yaml:"expr,omitempty" json:"expr,omitempty"`
}

// ActionBuilder turns a spec into a runnable action, failing early on bad
// input (e.g. an expression that does not compile).
type ActionBuilder func(spec ActionSpec) (ActionFunc, error)

// ActionRegistry maps kinds to builders. Add entries to support new kinds
// without touching the dispatcher.
type ActionRegistry map[ActionKind]ActionBuilder

// DefaultActions returns a fresh registry holding the built-in kinds.
func DefaultActions() ActionRegistry {
	return ActionRegistry{
		KindEmit: func(spec ActionSpec) (ActionFunc, error) {
			return Emit(spec.Prefix), nil
		},
		KindRender: func(spec ActionSpec) (ActionFunc, error) {
			if spec.Expr == "" {
				return nil, ErrMissingExpr
			}
			return Render(spec.Expr)
		},
		KindDump: func(spec ActionSpec) (ActionFunc, error) {
			return Dump(spec.Prefix), nil
		},
		KindDrop: func(ActionSpec) (ActionFunc, error) {
			return Drop, nil
		},
	}
}

func (reg ActionRegistry) Build(spec ActionSpec) (ActionFunc, error) {
	build, ok := reg[spec.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownActionKind, spec.Kind)
	}
	fn, err := build(spec)
	if err != nil {
		return nil, fmt.Errorf("%s action: %w", spec.Kind, err)
	}
	return fn, nil
}

// Kinds returns the registered kinds, sorted.
func (reg ActionRegistry) Kinds() []ActionKind {
	kinds := make([]ActionKind, 0, len(reg))
	for k := range reg {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

func Emit(prefix string) ActionFunc {
	return func(env RecordEnv, out Sink) error {
		return out.Emit(env.Category, prefix+env.Payload)
	}
}

// Render compiles src once; it must evaluate to a string against RecordEnv.
func Render(src string) (ActionFunc, error) {
	prog, err := expr.Compile(src, expr.Env(RecordEnv{}), expr.AsKind(reflect.String))
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", src, err)
	}
	return func(env RecordEnv, out Sink) error {
		result, err := vm.Run(prog, env)
		if err != nil {
			return err
		}
		line, ok := result.(string)
		if !ok {
			return fmt.Errorf("render produced %T, want string", result)
		}
		return out.Emit(env.Category, line)
	}, nil
}

func Dump(prefix string) ActionFunc {
	return func(env RecordEnv, out Sink) error {
		return out.Emit(env.Category, fmt.Sprintf("%s{category: %q, payload: %q}", prefix, env.Category, env.Payload))
	}
}

func Drop(RecordEnv, Sink) error { return nil }
