package timeline

import (
	"errors"
	"fmt"
)

// ScheduleError is a scenario whose markers cannot be resolved into a
// valid schedule. It is an authoring defect, reported before any world
// is created.
type ScheduleError struct {
	// Code identifies the error category.
	Code ScheduleErrorCode

	// Step is the declaration index of the offending step.
	Step int

	// Message is a human-readable description.
	Message string
}

// ScheduleErrorCode categorizes schedule errors.
type ScheduleErrorCode string

const (
	// ErrCodeNonMonotonic indicates a step resolves to a tick earlier
	// than the previous timed step.
	ErrCodeNonMonotonic ScheduleErrorCode = "non_monotonic"

	// ErrCodeImmediateAfterTimed indicates a fixture declared after a
	// timed step.
	ErrCodeImmediateAfterTimed ScheduleErrorCode = "immediate_after_timed"

	// ErrCodeImmediateNotSetup indicates an interaction or assertion
	// marked immediate.
	ErrCodeImmediateNotSetup ScheduleErrorCode = "immediate_not_setup"

	// ErrCodeUnknownMarker indicates an unrecognized marker kind.
	ErrCodeUnknownMarker ScheduleErrorCode = "unknown_marker"

	// ErrCodeMissingAction indicates a step without an action.
	ErrCodeMissingAction ScheduleErrorCode = "missing_action"

	// ErrCodeRegionTooLarge indicates a region action above
	// scenario.MaxRegionVolume.
	ErrCodeRegionTooLarge ScheduleErrorCode = "region_too_large"
)

// Error implements the error interface.
func (e *ScheduleError) Error() string {
	return fmt.Sprintf("%s: steps[%d]: %s", e.Code, e.Step, e.Message)
}

// IsScheduleError returns true if err is or wraps a ScheduleError.
func IsScheduleError(err error) bool {
	var se *ScheduleError
	return errors.As(err, &se)
}

// ScheduleErrorCodeOf returns the code of a wrapped ScheduleError, or ""
// if err is not one.
func ScheduleErrorCodeOf(err error) ScheduleErrorCode {
	var se *ScheduleError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

func newNonMonotonicError(step int, tick, previous uint64) *ScheduleError {
	return &ScheduleError{
		Code:    ErrCodeNonMonotonic,
		Step:    step,
		Message: fmt.Sprintf("resolves to tick %d, before previous step at tick %d", tick, previous),
	}
}
