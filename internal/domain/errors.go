// Package domain holds the error taxonomy shared across the risk,
// optimization and backtest modules.
package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input: a confidence level out of range,
// weights that do not sum to one, an asset-set mismatch, or insufficient
// history. Validation errors are fatal for the call that raised them and are
// never silently corrected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NumericalError reports a numerical condition such as a covariance matrix
// that is not positive semi-definite beyond tolerance. When the condition was
// repaired (eigenvalue clipping), Corrected is true and the caller may
// proceed; otherwise the computation cannot continue.
type NumericalError struct {
	Op        string
	Reason    string
	Corrected bool
}

func (e *NumericalError) Error() string {
	if e.Corrected {
		return fmt.Sprintf("numerical: %s: %s (corrected)", e.Op, e.Reason)
	}
	return fmt.Sprintf("numerical: %s: %s", e.Op, e.Reason)
}

// ConvergenceError reports a solver that failed to reach a feasible
// stationary point. LastIterate carries the best feasible point seen so the
// caller can apply a fallback policy instead of receiving nothing.
type ConvergenceError struct {
	Status      string
	LastIterate []float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("solver did not converge: %s", e.Status)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConvergence reports whether err is (or wraps) a ConvergenceError.
func IsConvergence(err error) bool {
	var ce *ConvergenceError
	return errors.As(err, &ce)
}
