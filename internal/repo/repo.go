package repo

import (
	"context"

	"github.com/milad/co2info/internal/domain"
)

// MeterRepository provides read access to loaded meters.
type MeterRepository interface {
	// Meters returns every meter in database order.
	// The returned meters must be treated as read-only by callers.
	Meters(ctx context.Context) ([]*domain.Meter, error)
	// Match returns the meters whose name contains query, ignoring case.
	Match(ctx context.Context, query string) ([]*domain.Meter, error)
	// Meter looks up a meter by exact name.
	Meter(ctx context.Context, name string) (*domain.Meter, bool, error)
	// MeterAt returns the meter at zero-based position i in database order.
	MeterAt(ctx context.Context, i int) (*domain.Meter, bool, error)
}
