// Package metrics exposes Prometheus counters for probe outcomes.
package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	prometheus.MustRegister(ProbesTotal)
	prometheus.MustRegister(ProbeOutcome)
	prometheus.MustRegister(MissingTableTotal)
}

// ProbesTotal counts every call to probe, regardless of outcome.
var ProbesTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "mbtb_probes_total",
		Help: "Total probe calls.",
	},
)

// ProbeOutcome breaks probe results down by outcome: draw,
// true_prediction, false_prediction, or unknown.
var ProbeOutcome = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mbtb_probe_outcome_total",
		Help: "Probe calls by resolved outcome.",
	},
	[]string{"outcome"},
)

// MissingTableTotal counts probes where a required table was absent
// from the catalog, split by the side to move of the probed position
// ("white" or "black").
var MissingTableTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mbtb_missing_table_total",
		Help: "Probes that found no table for a required key.",
	},
	[]string{"side"},
)
