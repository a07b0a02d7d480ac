package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		leadSubmissionsTotal,
		leadFormsOpenedTotal,
	)
}

var (
	leadSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tnt_lead_submissions_total",
			Help: "Lead form submissions by outcome (success/validation/duplicate/persistence/unexpected/busy).",
		},
		[]string{"outcome"},
	)

	leadFormsOpenedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tnt_lead_forms_opened_total",
			Help: "Lead form instances created.",
		},
	)
)

func IncLeadOutcome(outcome string) {
	leadSubmissionsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncLeadFormOpened() {
	leadFormsOpenedTotal.Inc()
}
