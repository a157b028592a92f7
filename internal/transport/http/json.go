package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/milad/co2info/internal/service"
)

type summaryJSON struct {
	Name      string   `json:"name"`
	Readings  int      `json:"readings"`
	Broken    int      `json:"broken"`
	Unhealthy int      `json:"unhealthy"`
	Average   *float64 `json:"average"`
}

type readingJSON struct {
	Meter string   `json:"meter"`
	Time  string   `json:"time"`
	Value *float64 `json:"value"`
	Raw   string   `json:"raw"`
	Class string   `json:"class"`
}

type metersResponseJSON struct {
	Meters []summaryJSON `json:"meters"`
}

type readingsResponseJSON struct {
	Readings []readingJSON `json:"readings"`
}

type apiErrorJSON struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func toSummariesJSON(in []service.MeterSummary) []summaryJSON {
	out := make([]summaryJSON, 0, len(in))
	for _, s := range in {
		j := summaryJSON{
			Name:      s.Name,
			Readings:  s.Readings,
			Broken:    s.Broken,
			Unhealthy: s.Unhealthy,
		}
		if s.HasAverage {
			avg := s.Average
			j.Average = &avg
		}
		out = append(out, j)
	}
	return out
}

func toReadingsJSON(in []service.MeterReading) []readingJSON {
	out := make([]readingJSON, 0, len(in))
	for _, r := range in {
		j := readingJSON{
			Meter: r.Meter,
			Time:  formatTime(r.Time),
			Raw:   r.Raw,
			Class: r.Class.String(),
		}
		if r.HasValue {
			v := r.Value
			j.Value = &v
		}
		out = append(out, j)
	}
	return out
}
