// Package prompt wraps promptui for the confirmations destructive commands
// require.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
)

// Confirm asks a yes/no question. An empty answer selects the default.
// Ctrl+C returns ErrAborted.
func Confirm(label string, defaultYes bool) (bool, error) {
	hint := "y/N"
	if defaultYes {
		hint = "Y/n"
	}

	p := promptui.Prompt{
		Label:     fmt.Sprintf("%s [%s]", label, hint),
		IsConfirm: true,
	}

	result, err := p.Run()
	switch {
	case errors.Is(err, promptui.ErrInterrupt), errors.Is(err, promptui.ErrEOF):
		return false, ErrAborted
	case errors.Is(err, promptui.ErrAbort):
		// promptui reports every answer other than "y" as ErrAbort
		if result == "" {
			return defaultYes, nil
		}
		return false, nil
	case err != nil:
		return false, err
	}
	return isYes(result), nil
}

// ConfirmDanger requires the user to type word before a large removal.
func ConfirmDanger(label, word string) (bool, error) {
	p := promptui.Prompt{
		Label: fmt.Sprintf("%s (type '%s' to confirm)", label, word),
		Validate: func(input string) error {
			if input != word {
				return fmt.Errorf("type '%s' to confirm", word)
			}
			return nil
		},
	}

	result, err := p.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, wrapError(err)
	}
	return result == word, nil
}

// ConfirmWithForce skips the question when force is set.
func ConfirmWithForce(label string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	return Confirm(label, false)
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
