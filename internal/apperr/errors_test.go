package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapPreservesSentinelMatching(t *testing.T) {
	err := Wrap(ErrNotFound, "profile %s not found", "p1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "profile p1 not found")
}

func TestUserMessageMapsEachSentinel(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{ErrIntegrity, "credentials may be corrupted"},
		{ErrValidation, "invalid input"},
		{ErrNotFound, "not found"},
		{ErrDuplicateName, "name already in use"},
		{ErrConcurrency, "temporarily unavailable"},
		{ErrTransientNetwork, "remote server unavailable"},
		{ErrCancelled, "cancelled"},
		{errors.New("anything else"), "internal error"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, UserMessage(c.err))
	}
}

func TestUserMessageChecksWrappedErrors(t *testing.T) {
	wrapped := Wrap(ErrDuplicateName, "profile %q exists", "A")
	assert.Equal(t, "name already in use", UserMessage(wrapped))
}
