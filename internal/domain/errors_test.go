package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidation(t *testing.T) {
	err := NewValidationError("confidence", "out of range")
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "confidence")

	wrapped := fmt.Errorf("request failed: %w", err)
	assert.True(t, IsValidation(wrapped))

	assert.False(t, IsValidation(fmt.Errorf("plain error")))
	assert.False(t, IsValidation(nil))
}

func TestIsConvergence(t *testing.T) {
	err := &ConvergenceError{Status: "IterationLimit", LastIterate: []float64{0.5, 0.5}}
	assert.True(t, IsConvergence(err))
	assert.Contains(t, err.Error(), "IterationLimit")

	wrapped := fmt.Errorf("strategy min_cvar: %w", err)
	assert.True(t, IsConvergence(wrapped))
	assert.False(t, IsConvergence(NewValidationError("x", "y")))
}

func TestNumericalError(t *testing.T) {
	plain := &NumericalError{Op: "cholesky", Reason: "not positive definite"}
	assert.NotContains(t, plain.Error(), "corrected")

	repaired := &NumericalError{Op: "cholesky", Reason: "negative eigenvalues", Corrected: true}
	assert.Contains(t, repaired.Error(), "corrected")
}
