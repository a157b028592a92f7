package csvrepo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/milad/co2info/internal/domain"
	"github.com/milad/co2info/internal/metrics"
	"github.com/milad/co2info/internal/repo"
)

var _ repo.MeterRepository = (*Repo)(nil)

// Repo is an in-memory repository backed by a CSV file loaded at startup.
type Repo struct {
	db    *domain.Database
	stats Stats
}

// NewFromFile loads path. Errors wrap one of ErrSourceNotFound,
// ErrSourceRead, ErrMalformedRecord or ErrMalformedHeader.
func NewFromFile(path string, l domain.Limits) (*Repo, error) {
	r, err := load(path, l)
	if err != nil {
		metrics.LoadFailures.WithLabelValues(FailureKind(err)).Inc()
		return nil, err
	}
	return r, nil
}

func load(path string, l domain.Limits) (*Repo, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrSourceNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open csv %q: %w", ErrSourceRead, path, err)
	}
	defer f.Close()

	db, stats, err := ParseMetersCSV(f, l)
	if err != nil {
		return nil, fmt.Errorf("parse csv %q: %w", path, err)
	}
	return &Repo{db: db, stats: stats}, nil
}

func New(db *domain.Database) *Repo {
	return &Repo{db: db}
}

// FailureKind names the load failure class of err for logs and metrics.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, ErrSourceNotFound):
		return "not_found"
	case errors.Is(err, ErrSourceRead):
		return "read"
	case errors.Is(err, ErrMalformedHeader):
		return "malformed_header"
	case errors.Is(err, ErrMalformedRecord):
		return "malformed_record"
	default:
		return "other"
	}
}

func (r *Repo) Database() *domain.Database { return r.db }

// Stats returns the load summary. It is zero for repositories built with New.
func (r *Repo) Stats() Stats { return r.stats }

func (r *Repo) Meters(ctx context.Context) ([]*domain.Meter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]*domain.Meter, 0, r.db.Size())
	for m := range r.db.Meters() {
		out = append(out, m)
	}
	return out, nil
}

func (r *Repo) Match(ctx context.Context, query string) ([]*domain.Meter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.db.MatchMeterName(query), nil
}

func (r *Repo) Meter(ctx context.Context, name string) (*domain.Meter, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	m, ok := r.db.Meter(name)
	return m, ok, nil
}

func (r *Repo) MeterAt(ctx context.Context, i int) (*domain.Meter, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	m, ok := r.db.MeterAt(i)
	return m, ok, nil
}
