// Package apperr implements the closed error taxonomy from spec.md §7:
// configuration, infeasibility, timing, link, numeric, and unit/frame
// errors, each carrying enough payload for the safety component to decide
// a state-machine transition without string-matching error text. One
// extension code, ConstraintViolation, covers runtime input rejection
// (mission upload) that the §7 taxonomy doesn't name a dedicated branch for
// but spec.md §6 requires ("rejection returns a structured error enumerating
// violated constraints").
package apperr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code identifies which branch of the §7 taxonomy an error belongs to.
type Code int

const (
	// Configuration errors are fatal at startup.
	Configuration Code = iota
	// Infeasibility errors are recoverable: the planner keeps its last
	// good trajectory and raises a degraded flag.
	Infeasibility
	// Timing errors are recoverable individually but escalate to fatal
	// via the safety component on persistent misses.
	Timing
	// Link errors mean hardware/IO is disconnected or stale; they trigger
	// a failsafe transition.
	Link
	// Numeric errors (NaN/Inf at a boundary) are always fatal for the
	// producing task.
	Numeric
	// UnitFrame errors are rejected at the call boundary and surfaced as
	// a bug — they must never reach the physics loop.
	UnitFrame
	// ConstraintViolation errors reject a runtime input (e.g. a mission
	// upload) that violates a configured bound; never fatal to the running
	// system, only to the rejected call.
	ConstraintViolation
)

func (c Code) String() string {
	switch c {
	case Configuration:
		return "configuration"
	case Infeasibility:
		return "infeasibility"
	case Timing:
		return "timing"
	case Link:
		return "link"
	case Numeric:
		return "numeric"
	case UnitFrame:
		return "unit_frame"
	case ConstraintViolation:
		return "constraint_violation"
	default:
		return "unknown"
	}
}

// Error is a structured, taxonomy-tagged error. Component is the originating
// subsystem (e.g. "planner", "scheduler.control"); Fatal mirrors whether the
// producing task must stop per spec.md §7.
type Error struct {
	Code      Code
	Component string
	Fatal     bool
	cause     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s[%s]: %v", e.Component, e.Code, e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

// New wraps cause with taxonomy metadata, preserving pkg/errors' stack trace
// if cause already carries one.
func New(code Code, component string, fatal bool, cause error) *Error {
	return &Error{Code: code, Component: component, Fatal: fatal, cause: errors.WithStack(cause)}
}

// Newf is New with a formatted message instead of a wrapped cause.
func Newf(code Code, component string, fatal bool, format string, args ...interface{}) *Error {
	return New(code, component, fatal, fmt.Errorf(format, args...))
}

// IsFatal reports whether err (or any error it wraps) is a fatal apperr.Error.
func IsFatal(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Fatal
	}
	return false
}

// CodeOf extracts the taxonomy code of err, if any.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}
