package entities

import (
	"errors"
	"fmt"
	"strings"
)

// ErrElementNotFound is the cause recorded when no strategy matched a required field.
var ErrElementNotFound = errors.New("element not found")

// ErrNoElement is returned by element actions invoked without a target.
var ErrNoElement = errors.New("no element to act on")

// ErrUnconfirmed is returned when the page does not show the value a stage acted on.
var ErrUnconfirmed = errors.New("value not confirmed by the page")

// ErrActionBlocked is returned when a guard refuses an action that would commit a purchase.
var ErrActionBlocked = errors.New("action blocked")

// NavigationError is returned when both the primary and the fallback navigation failed
type NavigationError struct {
	URL      string
	Attempts []NavigationAttempt
	LastErr  error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed after %d attempts: %v", e.URL, len(e.Attempts), e.LastErr)
}

func (e *NavigationError) Unwrap() error {
	return e.LastErr
}

// ActionFailure is returned when a stage required for flow progression could not complete
type ActionFailure struct {
	Stage  StageName
	Action Action
	Cause  error
}

func (e *ActionFailure) Error() string {
	return fmt.Sprintf("stage %s: %s failed: %v", e.Stage, e.Action, e.Cause)
}

func (e *ActionFailure) Unwrap() error {
	return e.Cause
}

// IsClosedError reports whether err comes from a page, context or browser that is already gone.
func IsClosedError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "closed") || strings.Contains(errStr, "target closed")
}
