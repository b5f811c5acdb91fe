package spatial

import (
	"fmt"
	"math"
)

// Unit tags a scalar quantity with its physical dimension so that a
// mismatched unit at a component boundary raises an error before the value
// reaches the physics loop (spec.md §4.E, §7 taxonomy item 6).
type Unit int

const (
	Meters Unit = iota
	MetersPerSecond
	MetersPerSecondSquared
	Radians
	RadiansPerSecond
	Newtons
	Normalized
)

func (u Unit) String() string {
	switch u {
	case Meters:
		return "m"
	case MetersPerSecond:
		return "m/s"
	case MetersPerSecondSquared:
		return "m/s^2"
	case Radians:
		return "rad"
	case RadiansPerSecond:
		return "rad/s"
	case Newtons:
		return "N"
	case Normalized:
		return "normalized"
	default:
		return "unknown"
	}
}

// Scalar is a unit-tagged floating point quantity.
type Scalar struct {
	Value float64
	Unit  Unit
}

// ErrUnitMismatch reports a unit/frame boundary violation (§7 taxonomy
// item 6: "fatal for the call (rejected), surfaced as a bug").
type ErrUnitMismatch struct {
	Expected, Got Unit
}

func (e *ErrUnitMismatch) Error() string {
	return fmt.Sprintf("unit mismatch at boundary: expected %s, got %s", e.Expected, e.Got)
}

// Require validates that s carries the expected unit, returning
// ErrUnitMismatch otherwise. No public boundary of this module takes a
// Scalar, so no component calls Require; unit discipline at the existing
// boundaries rests on the Go types of their parameters.
func Require(s Scalar, expected Unit) (float64, error) {
	if s.Unit != expected {
		return 0, &ErrUnitMismatch{Expected: expected, Got: s.Unit}
	}
	return s.Value, nil
}

// Finite reports whether v is neither NaN nor +-Inf, the §3/§7 numeric
// boundary check applied to every state/trajectory/command field.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// AllFinite reports whether every element of vs is finite.
func AllFinite(vs ...float64) bool {
	for _, v := range vs {
		if !Finite(v) {
			return false
		}
	}
	return true
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
