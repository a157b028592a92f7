package domain

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"
)

var (
	ErrMalformedHeader = errors.New("malformed header")
	ErrRowShape        = errors.New("row does not match meter count")
)

// Database owns the meters of one input, in header column order.
//
// It does no locking. Rows are added by a single loader before any query
// runs; afterwards concurrent reads are safe.
type Database struct {
	meters []*Meter
	byName map[string]*Meter
}

// NewDatabase creates one meter per name. Names are trimmed and must be
// non-empty and unique.
func NewDatabase(names []string, l Limits) (*Database, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no meter columns", ErrMalformedHeader)
	}

	db := &Database{
		meters: make([]*Meter, 0, len(names)),
		byName: make(map[string]*Meter, len(names)),
	}
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("%w: meter column %d has no name", ErrMalformedHeader, i+1)
		}
		if _, dup := db.byName[name]; dup {
			return nil, fmt.Errorf("%w: duplicate meter name %q", ErrMalformedHeader, name)
		}
		m := NewMeter(name, l)
		db.meters = append(db.meters, m)
		db.byName[name] = m
	}
	return db, nil
}

// AddAll appends values[i] to the i-th meter at time t. A row of the wrong
// length is rejected without touching any meter.
func (db *Database) AddAll(t time.Time, values []string) error {
	if len(values) != len(db.meters) {
		return fmt.Errorf("%w: got %d values for %d meters", ErrRowShape, len(values), len(db.meters))
	}
	for i, v := range values {
		db.meters[i].AddReading(t, v)
	}
	return nil
}

func (db *Database) Size() int { return len(db.meters) }

// Meter looks a meter up by its exact name.
func (db *Database) Meter(name string) (*Meter, bool) {
	m, ok := db.byName[name]
	return m, ok
}

// MeterAt returns the meter at zero-based position i.
func (db *Database) MeterAt(i int) (*Meter, bool) {
	if i < 0 || i >= len(db.meters) {
		return nil, false
	}
	return db.meters[i], true
}

// MatchMeterName returns every meter whose name contains query, ignoring
// case, in database order.
func (db *Database) MatchMeterName(query string) []*Meter {
	out := []*Meter{}
	for _, m := range db.meters {
		if m.MatchesName(query) {
			out = append(out, m)
		}
	}
	return out
}

// Meters yields all meters in insertion order.
func (db *Database) Meters() iter.Seq[*Meter] {
	return func(yield func(*Meter) bool) {
		for _, m := range db.meters {
			if !yield(m) {
				return
			}
		}
	}
}

func (db *Database) Names() []string {
	out := make([]string, len(db.meters))
	for i, m := range db.meters {
		out[i] = m.name
	}
	return out
}
