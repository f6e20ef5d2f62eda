package graph

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's prometheus collectors.
type Metrics struct {
	RowsWritten   *prometheus.CounterVec
	EnumLookups   *prometheus.CounterVec
	Submissions   *prometheus.CounterVec
	SubmitSeconds prometheus.Histogram
}

// Enum lookup outcomes.
const (
	enumHitCache    = "cache"
	enumHitStore    = "store"
	enumHitInserted = "inserted"
)

// NewMetrics creates the engine collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "httpreplay_graph_rows_written_total",
			Help: "Rows inserted by graph submissions, by table.",
		}, []string{"table"}),
		EnumLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "httpreplay_graph_enum_lookups_total",
			Help: "Enum id resolutions, by table and where the id came from.",
		}, []string{"table", "source"}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "httpreplay_graph_submissions_total",
			Help: "Graph submissions, by outcome.",
		}, []string{"outcome"}),
		SubmitSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "httpreplay_graph_submit_seconds",
			Help:    "Duration of committed graph submissions.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.RowsWritten, m.EnumLookups, m.Submissions, m.SubmitSeconds)
	}
	return m
}
