package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(formStateLookupsTotal, sweptEntriesTotal) }

var formStateLookupsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tnt_form_state_lookups_total",
		Help: "Lead form state lookups by store and result.",
	},
	[]string{"store", "result"}, // e.g., store="redis", result="hit"
)

func IncFormStateLookup(store, result string) {
	formStateLookupsTotal.WithLabelValues(norm(store), norm(result)).Inc()
}

var sweptEntriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tnt_swept_entries_total",
		Help: "Expired in-process entries removed by the sweeper.",
	},
	[]string{"target"},
)

func AddSwept(target string, n int) {
	if n <= 0 {
		return
	}
	sweptEntriesTotal.WithLabelValues(norm(target)).Add(float64(n))
}
