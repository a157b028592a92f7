package csvrepo

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/milad/co2info/internal/domain"
	"github.com/milad/co2info/internal/metrics"
)

const (
	dateLayout = "2006-01-02"

	// Column 0 holds the timestamp and column 1 the ambient temperature;
	// meter columns start after them.
	firstMeterColumn = 2
)

var timeLayouts = []string{"15:04:05", "15:04"}

var (
	ErrSourceNotFound  = errors.New("source not found")
	ErrSourceRead      = errors.New("source read error")
	ErrMalformedRecord = errors.New("malformed record")
	ErrMalformedHeader = domain.ErrMalformedHeader
)

// Stats summarises one load.
type Stats struct {
	Rows      int
	Readings  int
	Broken    int
	Unhealthy int
}

// ParseMetersCSV reads a meter CSV and returns the populated database.
//
// Expected header: <time label>,<temperature label>,<meter>,<meter>,...
//
// Each data row carries a "YYYY-MM-DD HH:MM:SS" timestamp, a temperature
// cell that is ignored, and one raw value per meter. Unparsable values
// become broken readings; a row with the wrong column count or an invalid
// timestamp stops the load with ErrMalformedRecord.
func ParseMetersCSV(r io.Reader, l domain.Limits) (*domain.Database, Stats, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // be permissive; validate ourselves
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, Stats{}, fmt.Errorf("%w: empty input", ErrMalformedHeader)
	}
	if err != nil {
		return nil, Stats{}, classifyReadErr("read header", err, ErrMalformedHeader)
	}
	if len(header) <= firstMeterColumn {
		return nil, Stats{}, fmt.Errorf("%w: want at least %d columns, got %d", ErrMalformedHeader, firstMeterColumn+1, len(header))
	}

	db, err := domain.NewDatabase(header[firstMeterColumn:], l)
	if err != nil {
		return nil, Stats{}, err
	}

	var stats Stats
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, classifyReadErr("read row", err, ErrMalformedRecord)
		}
		line, _ := cr.FieldPos(0)

		ts, err := ParseTimestamp(row[0])
		if err != nil {
			return nil, stats, fmt.Errorf("%w: line %d: %w", ErrMalformedRecord, line, err)
		}
		if len(row) < firstMeterColumn {
			return nil, stats, fmt.Errorf("%w: line %d: %w: got %d columns, want %d", ErrMalformedRecord, line, domain.ErrRowShape, len(row), len(header))
		}
		if err := db.AddAll(ts, row[firstMeterColumn:]); err != nil {
			return nil, stats, fmt.Errorf("%w: line %d: %w", ErrMalformedRecord, line, err)
		}
		stats.Rows++
	}

	for m := range db.Meters() {
		broken, unhealthy := m.Counts()
		stats.Readings += m.Len()
		stats.Broken += broken
		stats.Unhealthy += unhealthy
	}
	recordStats(stats)
	return db, stats, nil
}

// ParseTimestamp parses "YYYY-MM-DD HH:MM:SS" as UTC wall time. Minutes-only
// times are accepted and fractional seconds are truncated.
func ParseTimestamp(s string) (time.Time, error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("timestamp %q: want date and time separated by a space", s)
	}
	d, err := time.ParseInLocation(dateLayout, parts[0], time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q: %w", s, err)
	}

	clock := parts[1]
	if i := strings.IndexByte(clock, '.'); i >= 0 {
		clock = clock[:i]
	}
	for _, layout := range timeLayouts {
		c, err := time.ParseInLocation(layout, clock, time.UTC)
		if err != nil {
			continue
		}
		return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), c.Second(), 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("timestamp %q: invalid time of day %q", s, parts[1])
}

// classifyReadErr separates CSV syntax problems from I/O failures.
func classifyReadErr(op string, err error, syntaxKind error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return fmt.Errorf("%w: %s: %w", syntaxKind, op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrSourceRead, op, err)
}

func recordStats(s Stats) {
	metrics.RowsIngested.Add(float64(s.Rows))
	metrics.ReadingsIngested.WithLabelValues(domain.ClassBroken.String()).Add(float64(s.Broken))
	metrics.ReadingsIngested.WithLabelValues(domain.ClassUnhealthy.String()).Add(float64(s.Unhealthy))
	metrics.ReadingsIngested.WithLabelValues(domain.ClassHealthy.String()).Add(float64(s.Readings - s.Broken - s.Unhealthy))
}
