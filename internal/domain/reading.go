package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the timestamp layout used for input rows and console output.
const TimeLayout = "2006-01-02 15:04:05"

// Class is the health classification of a single reading.
type Class int

const (
	ClassHealthy Class = iota
	ClassUnhealthy
	ClassBroken
)

func (c Class) String() string {
	switch c {
	case ClassHealthy:
		return "healthy"
	case ClassUnhealthy:
		return "unhealthy"
	case ClassBroken:
		return "broken"
	default:
		return "unknown"
	}
}

// ParseClass is the inverse of Class.String.
func ParseClass(s string) (Class, error) {
	for _, c := range []Class{ClassHealthy, ClassUnhealthy, ClassBroken} {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown class %q", s)
}

// Limits bound what counts as a plausible and a healthy CO2 value, in ppm.
// The plausible range [MinPPM, MaxPPM] is inclusive; values strictly above
// UnhealthyPPM are unhealthy.
type Limits struct {
	UnhealthyPPM float64
	MinPPM       float64
	MaxPPM       float64
}

// DefaultLimits returns the limits used when nothing is configured.
func DefaultLimits() Limits {
	return Limits{
		UnhealthyPPM: 1000,
		MinPPM:       0,
		MaxPPM:       10000,
	}
}

// Reading represents a single CO2 sample of one meter.
type Reading struct {
	Time time.Time
	Raw  string

	value   float64
	numeric bool
}

// NewReading parses raw and returns the reading. It never fails: a cell that
// is not a finite number is kept as a non-numeric reading.
func NewReading(t time.Time, raw string) Reading {
	raw = strings.TrimSpace(raw)
	v, ok := ParseValue(raw)
	return Reading{Time: t, Raw: raw, value: v, numeric: ok}
}

// ParseValue reports the numeric value of a raw cell and whether it is a
// finite decimal number.
func ParseValue(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	// ParseFloat also takes hex floats such as "0x1p10".
	if strings.ContainsAny(raw, "xX") {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Value returns the parsed value. ok is false for non-numeric cells.
func (r Reading) Value() (v float64, ok bool) {
	return r.value, r.numeric
}

// Classify evaluates the reading against l.
func (r Reading) Classify(l Limits) Class {
	switch {
	case !r.numeric, r.value < l.MinPPM, r.value > l.MaxPPM:
		return ClassBroken
	case r.value > l.UnhealthyPPM:
		return ClassUnhealthy
	default:
		return ClassHealthy
	}
}

// String renders the reading as "<time>  <value> ppm", or the raw cell for
// non-numeric values.
func (r Reading) String() string {
	ts := r.Time.Format(TimeLayout)
	if !r.numeric {
		raw := r.Raw
		if raw == "" {
			raw = "(empty)"
		}
		return ts + "  " + raw
	}
	return ts + "  " + strconv.FormatFloat(r.value, 'f', -1, 64) + " ppm"
}

// BrokenMarker is appended to readings rendered as broken.
const BrokenMarker = " (broken)"

// Format renders the reading like String and marks it when l classifies it
// as broken.
func (r Reading) Format(l Limits) string {
	if r.Classify(l) == ClassBroken {
		return r.String() + BrokenMarker
	}
	return r.String()
}
