package eventhub

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCodeMatchesWrappedCause(t *testing.T) {
	cause := errors.New("boom")
	err := WrapError(Timeout, cause)
	assert.True(t, IsCode(err, Timeout))
	assert.False(t, IsCode(err, Busy))
	assert.ErrorIs(t, err, cause)
}

func TestErrorIsComparesByCode(t *testing.T) {
	assert.ErrorIs(t, NewError(Busy), ErrBusy)
	assert.NotErrorIs(t, NewError(Busy), ErrTimeout)
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "timeout", Timeout.String())
	assert.Equal(t, "unknown", Code(99).String())
}
