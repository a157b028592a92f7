package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"time"

	"github.com/milad/co2info/internal/domain"
	"github.com/milad/co2info/internal/repo"
)

var ErrMeterNotFound = errors.New("meter not found")

// MeterSummary is the aggregate view of one meter.
type MeterSummary struct {
	Name       string
	Readings   int
	Broken     int
	Unhealthy  int
	Average    float64
	HasAverage bool
}

// MeterReading is one reading tagged with its meter and classification.
// HasValue is false when the raw cell was not a number.
type MeterReading struct {
	Meter    string
	Time     time.Time
	Value    float64
	HasValue bool
	Raw      string
	Class    domain.Class
}

// Queries is the read API shared by the console, gRPC and HTTP front ends.
type Queries interface {
	Averages(ctx context.Context) ([]MeterSummary, error)
	Find(ctx context.Context, query string) ([]MeterSummary, error)
	Unhealthy(ctx context.Context, selector string) ([]MeterReading, error)
	Broken(ctx context.Context, selector string) ([]MeterReading, error)
	Readings(ctx context.Context, selector string) ([]MeterReading, error)
}

var _ Queries = (*MeterService)(nil)

type MeterService struct {
	repo repo.MeterRepository
}

func NewMeterService(r repo.MeterRepository) *MeterService {
	return &MeterService{repo: r}
}

// Averages summarises every meter in database order.
func (s *MeterService) Averages(ctx context.Context) ([]MeterSummary, error) {
	meters, err := s.repo.Meters(ctx)
	if err != nil {
		return nil, err
	}
	return summarize(meters), nil
}

// Find summarises the meters whose name contains query, ignoring case. An
// empty query matches every meter.
func (s *MeterService) Find(ctx context.Context, query string) ([]MeterSummary, error) {
	meters, err := s.repo.Match(ctx, query)
	if err != nil {
		return nil, err
	}
	return summarize(meters), nil
}

// Unhealthy lists unhealthy readings of the meters picked by selector.
func (s *MeterService) Unhealthy(ctx context.Context, selector string) ([]MeterReading, error) {
	return s.collect(ctx, selector, (*domain.Meter).UnhealthyReadings)
}

// Broken lists broken readings of the meters picked by selector.
func (s *MeterService) Broken(ctx context.Context, selector string) ([]MeterReading, error) {
	return s.collect(ctx, selector, (*domain.Meter).BrokenReadings)
}

// Readings lists every reading of the meters picked by selector.
func (s *MeterService) Readings(ctx context.Context, selector string) ([]MeterReading, error) {
	return s.collect(ctx, selector, (*domain.Meter).Readings)
}

func (s *MeterService) collect(ctx context.Context, selector string, view func(*domain.Meter) iter.Seq[domain.Reading]) ([]MeterReading, error) {
	meters, err := s.resolve(ctx, selector)
	if err != nil {
		return nil, err
	}
	out := []MeterReading{}
	for _, m := range meters {
		for r := range view(m) {
			out = append(out, toMeterReading(m, r))
		}
	}
	return out, nil
}

// resolve maps a selector to meters. An empty selector picks every meter;
// otherwise an exact meter name wins over a 1-based position.
func (s *MeterService) resolve(ctx context.Context, selector string) ([]*domain.Meter, error) {
	if selector == "" {
		return s.repo.Meters(ctx)
	}

	m, ok, err := s.repo.Meter(ctx, selector)
	if err != nil {
		return nil, err
	}
	if ok {
		return []*domain.Meter{m}, nil
	}

	if n, err := strconv.Atoi(selector); err == nil {
		m, ok, err := s.repo.MeterAt(ctx, n-1)
		if err != nil {
			return nil, err
		}
		if ok {
			return []*domain.Meter{m}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrMeterNotFound, selector)
}

func summarize(meters []*domain.Meter) []MeterSummary {
	out := make([]MeterSummary, 0, len(meters))
	for _, m := range meters {
		broken, unhealthy := m.Counts()
		avg, ok := m.Average()
		out = append(out, MeterSummary{
			Name:       m.Name(),
			Readings:   m.Len(),
			Broken:     broken,
			Unhealthy:  unhealthy,
			Average:    avg,
			HasAverage: ok,
		})
	}
	return out
}

func toMeterReading(m *domain.Meter, r domain.Reading) MeterReading {
	v, ok := r.Value()
	return MeterReading{
		Meter:    m.Name(),
		Time:     r.Time,
		Value:    v,
		HasValue: ok,
		Raw:      r.Raw,
		Class:    r.Classify(m.Limits()),
	}
}
