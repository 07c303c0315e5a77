package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserError(t *testing.T) {
	t.Run("with cause", func(t *testing.T) {
		err := NewUserError("alert abc not found", ErrNotFound)

		assert.Equal(t, "alert abc not found: not found", err.Error())
		assert.ErrorIs(t, err, ErrNotFound)

		var userErr *UserError
		assert.True(t, errors.As(err, &userErr))
		assert.Equal(t, "alert abc not found", userErr.UserMessage)
	})

	t.Run("without cause", func(t *testing.T) {
		err := NewUserError("nothing to do", nil)

		assert.Equal(t, "nothing to do", err.Error())
		assert.NoError(t, errors.Unwrap(err))
	})
}
