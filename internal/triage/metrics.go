package triage

import "github.com/prometheus/client_golang/prometheus"

// Prometheus domain metrics, exposed on the server's /metrics endpoint.
var (
	detectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_detections_total",
			Help: "Detection calls by resulting severity level.",
		},
		[]string{"severity"},
	)
	alertsTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "triage_alerts_triggered_total",
			Help: "Alerts raised by the detection pipeline.",
		},
	)
	alertsResolvedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "triage_alerts_resolved_total",
			Help: "Alerts resolved by operators.",
		},
	)
	retrainsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_retrains_total",
			Help: "Model retrain jobs by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(detectionsTotal)
	prometheus.MustRegister(alertsTriggeredTotal)
	prometheus.MustRegister(alertsResolvedTotal)
	prometheus.MustRegister(retrainsTotal)
}
