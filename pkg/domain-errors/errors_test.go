package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct error", func(t *testing.T) {
		err := New(CodeConflict, "status changed underneath us")
		assert.True(t, HasCode(err, CodeConflict))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("matches through wrap chain", func(t *testing.T) {
		inner := New(CodeNotFound, "work order missing")
		outer := Wrap(inner, CodeInternal, "update entity status")
		assert.True(t, HasCode(outer, CodeInternal))
		assert.True(t, HasCode(outer, CodeNotFound))
		assert.False(t, HasCode(outer, CodeConflict))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("handler: %w", New(CodeForbidden, "role insufficient"))
		assert.True(t, HasCode(err, CodeForbidden))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	assert.Equal(t, CodeConflict, CodeOf(New(CodeConflict, "x")))

	wrapped := Wrap(New(CodeNotFound, "inner"), CodeConflict, "outer")
	assert.Equal(t, CodeConflict, CodeOf(wrapped), "outermost code wins")
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodeInternal, "insert audit entry")
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "insert audit entry")
	assert.Contains(t, err.Error(), "connection reset")
}
