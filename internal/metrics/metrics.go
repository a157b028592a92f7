package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RowsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "co2info_rows_ingested_total",
			Help: "Total CSV data rows ingested",
		},
	)

	ReadingsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "co2info_readings_ingested_total",
			Help: "Total meter readings ingested, by classification",
		},
		[]string{"class"},
	)

	LoadFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "co2info_load_failures_total",
			Help: "Total failed CSV loads, by failure kind",
		},
		[]string{"kind"},
	)
)
