package domain

import (
	"errors"
	"fmt"
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors carry no infrastructure dependency.

var (
	// Validation
	ErrValidation = errors.New("validation failed")

	// Missing references
	ErrTaskNotFound     = errors.New("task not found")
	ErrRecordNotFound   = errors.New("record not found")
	ErrHighGoalNotFound = errors.New("high goal not found")
	ErrPactNotFound     = errors.New("pact not found")
	ErrBreachNotFound   = errors.New("breach not found")
	ErrSkillNotFound    = errors.New("constellation node not found")
	ErrUserNotFound     = errors.New("user not found")

	// State rules
	ErrPactLocked = errors.New("pact is locked: only pacts created today can change")
)

// ValidationError describes a rejected input. It unwraps to ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid is shorthand for building a *ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
