// Package errors holds the habit lookup sentinels and the fatal exit path
// shared by every command.
package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/habits/internal/logger"
)

var (
	// ErrHabitNotFound is returned by lookups that name an unknown habit.
	ErrHabitNotFound = errors.New("habit not found")
	// ErrAmbiguousHabit is returned when a reference matches more than one habit.
	ErrAmbiguousHabit = errors.New("habit reference is ambiguous")
)

// hinted attaches a suggested next step to an error.
type hinted struct {
	err  error
	hint string
}

func (h *hinted) Error() string { return h.err.Error() }
func (h *hinted) Unwrap() error { return h.err }

// WithHint returns err annotated with a suggestion printed below the message
// on exit. A nil err stays nil.
func WithHint(err error, hint string) error {
	if err == nil {
		return nil
	}
	return &hinted{err: err, hint: hint}
}

// Hint returns the outermost hint attached to err, or a default for the
// lookup sentinels.
func Hint(err error) string {
	var h *hinted
	if errors.As(err, &h) {
		return h.hint
	}
	switch {
	case errors.Is(err, ErrHabitNotFound):
		return "Run 'habits list' to see your habits."
	case errors.Is(err, ErrAmbiguousHabit):
		return "Use more of the name or the id shown by 'habits list'."
	}
	return ""
}

// Format renders err with the "Error: " prefix and its hint, if any.
func Format(err error) string {
	if err == nil {
		return ""
	}
	msg := fmt.Sprintf("Error: %v", err)
	if hint := Hint(err); hint != "" {
		msg += "\n  " + hint
	}
	return msg
}

// Fatal logs err and exits with status 1. It does nothing for a nil err.
func Fatal(err error) {
	if err == nil {
		return
	}
	logger.Error("Command execution failed", "error", err)
	fmt.Fprintln(os.Stderr, Format(err))
	os.Exit(1)
}
