package prompt

import (
	"errors"
	"fmt"
	"testing"

	"github.com/manifoldco/promptui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmWithForce(t *testing.T) {
	ok, err := ConfirmWithForce("Remove 3 nodes?", true)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsAborted(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"interrupt", promptui.ErrInterrupt, true},
		{"abort", promptui.ErrAbort, true},
		{"eof", promptui.ErrEOF, true},
		{"aborted", ErrAborted, true},
		{"wrapped", fmt.Errorf("rm: %w", ErrAborted), true},
		{"other", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAborted(tt.err))
		})
	}
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, wrapError(nil))
	assert.ErrorIs(t, wrapError(promptui.ErrInterrupt), ErrAborted)

	other := errors.New("tty closed")
	assert.Equal(t, other, wrapError(other))
}

func TestIsYes(t *testing.T) {
	for _, answer := range []string{"y", "Y", "yes", " YES "} {
		assert.True(t, isYes(answer), answer)
	}
	for _, answer := range []string{"", "n", "no", "yep"} {
		assert.False(t, isYes(answer), answer)
	}
}

func TestContainsFold(t *testing.T) {
	assert.True(t, containsFold("Overlay2 (12)", "overlay"))
	assert.True(t, containsFold("ImageRepo", ""))
	assert.False(t, containsFold("Container", "mount"))
}

func TestSelectEmpty(t *testing.T) {
	_, err := Select("Kind", nil)
	assert.Error(t, err)
}
