package discount

import (
	"fmt"
	"time"
)

// InvalidDateError indicates a malformed discount window. It unwraps to
// ErrInvalidDate.
type InvalidDateError struct {
	From time.Time
	To   time.Time
	Now  time.Time
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid discount window [%s, %s) at %s",
		e.From.Format(time.RFC3339), e.To.Format(time.RFC3339), e.Now.Format(time.RFC3339))
}

func (e *InvalidDateError) Unwrap() error { return ErrInvalidDate }

// ValidateWindow checks that a proposed discount window is well-formed:
// the start must be strictly in the future and strictly before the end.
// Pure; callers run it before any overlap check or persistence call.
func ValidateWindow(from, to, now time.Time) error {
	if !from.After(now) || !from.Before(to) {
		return &InvalidDateError{From: from, To: to, Now: now}
	}
	return nil
}
