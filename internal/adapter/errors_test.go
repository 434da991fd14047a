package adapter

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAdapterError(t *testing.T) {
	assert.Nil(t, NewAdapterError("set_block", nil))

	cause := errors.New("position out of bounds")
	err := NewAdapterError("set_block", cause)
	assert.EqualError(t, err, "adapter set_block: position out of bounds")
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsAdapterError(err))

	wrapped := fmt.Errorf("fixture 0: %w", err)
	assert.True(t, IsAdapterError(wrapped))
	assert.Same(t, err, NewAdapterError("place", err), "already-typed errors are not double wrapped")

	assert.False(t, IsAdapterError(cause))
}
