// Package metrics exposes Prometheus counters for the maintenance routines.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routine names used as the "routine" label.
const (
	RoutineBulkDelete = "bulk_delete"
	RoutineOrphans    = "orphan_cleanup"
	RoutineSweep      = "deletion_sweep"
	RoutineBackfill   = "geocode_backfill"
)

// Recorder is what routines report per-record outcomes to.
type Recorder interface {
	RecordOutcome(routine, outcome string)
	RecordGeocode(outcome string)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordOutcome(string, string) {}
func (Nop) RecordGeocode(string)         {}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	records  *prometheus.CounterVec
	geocodes *prometheus.CounterVec
	reg      *prometheus.Registry
}

// NewCollector creates a Collector registered on its own registry.
func NewCollector() *Collector {
	c := &Collector{
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatchhub_reconcile_records_total",
			Help: "Per-record outcomes of the maintenance routines.",
		}, []string{"routine", "outcome"}),
		geocodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatchhub_geocode_requests_total",
			Help: "Geocoding requests by outcome.",
		}, []string{"outcome"}),
		reg: prometheus.NewRegistry(),
	}
	c.reg.MustRegister(c.records, c.geocodes)
	return c
}

// RecordOutcome implements Recorder.
func (c *Collector) RecordOutcome(routine, outcome string) {
	c.records.WithLabelValues(routine, outcome).Inc()
}

// RecordGeocode implements Recorder.
func (c *Collector) RecordGeocode(outcome string) {
	c.geocodes.WithLabelValues(outcome).Inc()
}

// Registry returns the registry the collector's metrics live on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.reg
}

// Handler serves the collector's metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
