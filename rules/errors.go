package rules

import (
	"errors"
	"fmt"
)

var (
	ErrNonBoolCondition  = errors.New("condition did not evaluate to bool")
	ErrUnknownActionKind = errors.New("unknown action kind")
	ErrMissingExpr       = errors.New("action requires an expr")
	ErrDuplicateRule     = errors.New("duplicate rule name")
)

// Stage identifies where in a dispatch call an error came from.
type Stage string

const (
	StageCondition Stage = "condition"
	StageAction    Stage = "action"
	StageFallback  Stage = "fallback"
)

// DispatchError aborts a single Dispatch call. The dispatcher never retries
// or suppresses it.
type DispatchError struct {
	Rule  string // empty for the fallback
	Stage Stage
	Err   error
}

func (e *DispatchError) Error() string {
	if e.Rule == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("rule %q %s: %v", e.Rule, e.Stage, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
