package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorUnwrapsToSentinel(t *testing.T) {
	err := NewAppError(CodeValidation, "Invalid input", ErrValidation)

	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "Invalid input: invalid input data", err.Error())
}

func TestWrapMatchesSentinelAndCause(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := Wrap(ErrPersistence, cause)

	assert.True(t, errors.Is(err, ErrPersistence))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, CodePersistence, err.Code)
	assert.Equal(t, ErrPersistence.Error(), err.Message)
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"sentinel", ErrDuplicatePhone, CodeDuplicatePhone},
		{"wrapped sentinel", fmt.Errorf("activate: %w", ErrInvalidActivationCode), CodeInvalidCode},
		{"app error code wins", NewAppError("CUSTOM", "custom", ErrDelivery), "CUSTOM"},
		{"unknown", errors.New("boom"), CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}
