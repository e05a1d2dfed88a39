package prompt

import (
	"errors"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the user interrupts a prompt with Ctrl+C.
var ErrAborted = errors.New("aborted")

// IsAborted reports whether err means the user backed out of a prompt.
func IsAborted(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) ||
		errors.Is(err, promptui.ErrAbort) ||
		errors.Is(err, promptui.ErrEOF) ||
		errors.Is(err, ErrAborted)
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if IsAborted(err) {
		return ErrAborted
	}
	return err
}
