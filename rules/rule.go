package rules

import "github.com/expr-lang/expr/vm"

// PredicateFunc decides whether a rule applies to a record. Go-defined rules
// use it in place of an expr condition.
type PredicateFunc func(env RecordEnv) (bool, error)

// ActionFunc performs a rule's side effect, usually writing a line to out.
type ActionFunc func(env RecordEnv, out Sink) error

// Sink receives the lines actions emit.
type Sink interface {
	Emit(category, line string) error
}

// Rule is a condition → action pair. Rules are evaluated in the order they
// were declared; there is no priority.
type Rule struct {
	Name         string        // human-readable identifier
	ConditionSrc string        // expr source, compiled once by NewDispatcher
	Predicate    PredicateFunc // used when ConditionSrc is empty
	program      *vm.Program   // compiled bytecode
	Action       ActionFunc
}
