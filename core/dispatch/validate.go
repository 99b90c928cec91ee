package dispatch

import (
	"errors"
	"fmt"
	"time"
)

// Local validation errors for creation requests.
var (
	ErrStartTimeUnset   = errors.New("start time must be set and timezone qualified")
	ErrStartTimeInPast  = errors.New("start time must be in the future")
	ErrNegativeDuration = errors.New("duration must not be negative")
)

// ValidateStartTime rejects unset or non-future start times. Both the client
// and the service double validate with the same rule.
func ValidateStartTime(t, now time.Time) error {
	if t.IsZero() {
		return ErrStartTimeUnset
	}
	if !t.After(now) {
		return ErrStartTimeInPast
	}
	return nil
}

// ValidateDuration rejects negative durations. A nil duration is a dispatch
// that never ends and is always valid.
func ValidateDuration(d *time.Duration) error {
	if d != nil && *d < 0 {
		return ErrNegativeDuration
	}
	return nil
}

// Validate rejects the empty selector variant.
func (s ComponentSelector) Validate() error {
	if s.IsCategory() && s.category == CategoryUnspecified {
		return fmt.Errorf("component selector must name ids or a category")
	}
	return nil
}
