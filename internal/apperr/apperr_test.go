package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalid(t *testing.T) {
	err := Invalid("amount %s must be positive", "-3")
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Equal(t, "amount -3 must be positive: invalid input", err.Error())
}

func TestLinkErrorsAreConflicts(t *testing.T) {
	assert.True(t, errors.Is(ErrAlreadyLinked, ErrConflict))
	assert.True(t, errors.Is(ErrNotLinked, ErrConflict))
	assert.False(t, errors.Is(ErrAlreadyLinked, ErrInvalidInput))
}
