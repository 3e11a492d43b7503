package catalog

import (
	"errors"
	"fmt"
)

// ErrAccessDenied marks a detail page served as a bot-block page.
var ErrAccessDenied = errors.New("access denied")

// NavigationError is returned when a page cannot be loaded.
type NavigationError struct {
	URL   string
	Cause error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Cause)
}

func (e *NavigationError) Unwrap() error {
	return e.Cause
}
