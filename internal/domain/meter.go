package domain

import (
	"iter"
	"strings"
	"time"
)

// Meter holds the readings of one named meter in file order.
type Meter struct {
	name     string
	limits   Limits
	readings []Reading
}

func NewMeter(name string, l Limits) *Meter {
	return &Meter{name: name, limits: l}
}

func (m *Meter) Name() string   { return m.name }
func (m *Meter) Limits() Limits { return m.limits }
func (m *Meter) Len() int       { return len(m.readings) }

// AddReading appends a reading parsed from raw. Malformed values are kept as
// broken readings.
func (m *Meter) AddReading(t time.Time, raw string) {
	m.readings = append(m.readings, NewReading(t, raw))
}

// Average returns the mean of all non-broken readings. ok is false when the
// meter has no non-broken reading.
func (m *Meter) Average() (avg float64, ok bool) {
	var (
		sum float64
		n   int
	)
	for _, r := range m.readings {
		if r.Classify(m.limits) == ClassBroken {
			continue
		}
		sum += r.value
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Readings yields every reading in stored order.
func (m *Meter) Readings() iter.Seq[Reading] {
	return m.filter(func(Reading) bool { return true })
}

func (m *Meter) UnhealthyReadings() iter.Seq[Reading] {
	return m.filter(func(r Reading) bool { return r.Classify(m.limits) == ClassUnhealthy })
}

func (m *Meter) BrokenReadings() iter.Seq[Reading] {
	return m.filter(func(r Reading) bool { return r.Classify(m.limits) == ClassBroken })
}

// Counts returns the number of broken and unhealthy readings.
func (m *Meter) Counts() (broken, unhealthy int) {
	for _, r := range m.readings {
		switch r.Classify(m.limits) {
		case ClassBroken:
			broken++
		case ClassUnhealthy:
			unhealthy++
		}
	}
	return broken, unhealthy
}

// MatchesName reports whether query is a case-insensitive substring of the
// meter name.
func (m *Meter) MatchesName(query string) bool {
	return strings.Contains(strings.ToLower(m.name), strings.ToLower(query))
}

// String renders the meter name followed by one reading per line. Broken
// readings carry BrokenMarker.
func (m *Meter) String() string {
	var b strings.Builder
	b.WriteString(m.name)
	b.WriteByte('\n')
	for _, r := range m.readings {
		b.WriteString("  ")
		b.WriteString(r.Format(m.limits))
		b.WriteByte('\n')
	}
	return b.String()
}

func (m *Meter) filter(keep func(Reading) bool) iter.Seq[Reading] {
	return func(yield func(Reading) bool) {
		for _, r := range m.readings {
			if keep(r) && !yield(r) {
				return
			}
		}
	}
}
