package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Prometheus domain metrics, exposed on the server's /metrics endpoint.
var (
	readingsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_readings_ingested_total",
			Help: "Readings accepted by the ingestion pipeline, by device kind.",
		},
		[]string{"kind"},
	)
	readingsPurgedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetry_readings_purged_total",
			Help: "Raw readings deleted by the retention job.",
		},
	)
	devicesStaleTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetry_devices_stale_total",
			Help: "Devices marked stale after going silent.",
		},
	)
)

func init() {
	prometheus.MustRegister(readingsIngestedTotal)
	prometheus.MustRegister(readingsPurgedTotal)
	prometheus.MustRegister(devicesStaleTotal)
}
