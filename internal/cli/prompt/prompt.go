// Package prompt wraps promptui for the interactive admin commands.
//
// All prompts normalize promptui's interrupt and abort errors into
// ErrAborted so callers can treat Ctrl+C uniformly.
package prompt

import (
	"errors"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the user aborts a prompt.
var ErrAborted = errors.New("aborted")

// IsAborted reports whether err means the user backed out rather than a
// real failure.
func IsAborted(err error) bool {
	return errors.Is(err, ErrAborted) ||
		errors.Is(err, promptui.ErrInterrupt) ||
		errors.Is(err, promptui.ErrAbort)
}

// wrapError folds promptui's abort flavors into ErrAborted.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if IsAborted(err) {
		return ErrAborted
	}
	return err
}
