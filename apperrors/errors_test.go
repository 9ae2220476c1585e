package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, Forbidden, KindOf(New(Forbidden, "nope")))
	assert.Equal(t, Internal, KindOf(errors.New("plain")))
	assert.Equal(t, Internal, KindOf(nil))
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := New(Conflict, "status not changed")
	wrapped := fmt.Errorf("update task: %w", inner)

	assert.Equal(t, Conflict, KindOf(wrapped))
	assert.Equal(t, "status not changed", MessageOf(wrapped))
}

func TestMessageOfHidesInternalCause(t *testing.T) {
	assert.Equal(t, "internal server error", MessageOf(errors.New("mongo: connection refused")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(Internal, "cascade failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "cascade failed")
	assert.Contains(t, err.Error(), "boom")
}
