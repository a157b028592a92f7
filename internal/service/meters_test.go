package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/milad/co2info/internal/domain"
	"github.com/milad/co2info/internal/repo/csvrepo"
)

func newTestService(t *testing.T) *MeterService {
	t.Helper()

	db, err := domain.NewDatabase([]string{"Room A", "Room B", "2"}, domain.DefaultLimits())
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	rows := [][]string{
		{"450", "1500", "600"},
		{"N/A", "1200", "700"},
		{"550", "-5", "800"},
	}
	for i, row := range rows {
		if err := db.AddAll(base.Add(time.Duration(i)*15*time.Minute), row); err != nil {
			t.Fatalf("AddAll: %v", err)
		}
	}
	return NewMeterService(csvrepo.New(db))
}

func TestMeterService_Averages(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	got, err := svc.Averages(context.Background())
	if err != nil {
		t.Fatalf("Averages: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len=%d want 3", len(got))
	}
	a := got[0]
	if a.Name != "Room A" || !a.HasAverage || a.Average != 500 || a.Broken != 1 || a.Readings != 3 {
		t.Fatalf("unexpected Room A summary: %+v", a)
	}
	b := got[1]
	if b.Average != 1350 || b.Unhealthy != 2 || b.Broken != 1 {
		t.Fatalf("unexpected Room B summary: %+v", b)
	}
}

func TestMeterService_Selectors(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	all, err := svc.Unhealthy(ctx, "")
	if err != nil {
		t.Fatalf("Unhealthy: %v", err)
	}
	if got, want := len(all), 2; got != want {
		t.Fatalf("len(all)=%d want %d", got, want)
	}
	if !all[0].Time.Before(all[1].Time) || all[0].Class != domain.ClassUnhealthy {
		t.Fatalf("unexpected unhealthy readings: %+v", all)
	}

	byName, err := svc.Broken(ctx, "Room A")
	if err != nil {
		t.Fatalf("Broken: %v", err)
	}
	if len(byName) != 1 || byName[0].Raw != "N/A" || byName[0].Meter != "Room A" {
		t.Fatalf("unexpected broken readings: %+v", byName)
	}

	// "2" is also a meter name, which wins over the position.
	byExact, err := svc.Readings(ctx, "2")
	if err != nil {
		t.Fatalf("Readings: %v", err)
	}
	if len(byExact) != 3 || byExact[0].Meter != "2" {
		t.Fatalf("unexpected readings: %+v", byExact)
	}

	byIndex, err := svc.Broken(ctx, "1")
	if err != nil {
		t.Fatalf("Broken(1): %v", err)
	}
	if len(byIndex) != 1 || byIndex[0].Meter != "Room A" {
		t.Fatalf("unexpected readings for index 1: %+v", byIndex)
	}
}

func TestMeterService_UnknownSelector(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	for _, sel := range []string{"Garage", "0", "-1", "4", "room a"} {
		if _, err := svc.Readings(context.Background(), sel); !errors.Is(err, ErrMeterNotFound) {
			t.Fatalf("Readings(%q) err=%v want ErrMeterNotFound", sel, err)
		}
	}
}

func TestMeterService_Find(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	got, err := svc.Find(context.Background(), "ROOM")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Room A" || got[1].Name != "Room B" {
		t.Fatalf("unexpected matches: %+v", got)
	}

	none, err := svc.Find(context.Background(), "garage")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no matches, got %+v", none)
	}
}
