// Package metrics exposes Prometheus instrumentation for the settings store.
//
// All methods are safe on a nil *Metrics, so components can take an
// optional recorder without guarding every call site.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "reflex_emulator"

// Restore outcomes.
const (
	RestoreApplied   = "applied"
	RestoreAbsent    = "absent"
	RestoreMalformed = "malformed"
	RestoreError     = "error"
)

// Metrics holds the store's collectors.
type Metrics struct {
	persists      *prometheus.CounterVec
	restores      *prometheus.CounterVec
	skippedFields *prometheus.CounterVec
	clears        prometheus.Counter
	emissions     *prometheus.CounterVec
	published     *prometheus.CounterVec
}

// New registers the collectors with reg. Pass prometheus.NewRegistry() in
// tests to keep them isolated.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		persists: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persists_total",
			Help:      "Settings backups written to the durable store, by result.",
		}, []string{"result"}),
		restores: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restores_total",
			Help:      "Settings restores from the durable store, by outcome.",
		}, []string{"outcome"}),
		skippedFields: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restore_skipped_fields_total",
			Help:      "Record fields ignored during restore because they were invalid.",
		}, []string{"field"}),
		clears: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clears_total",
			Help:      "Backups deleted from the durable store.",
		}),
		emissions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emissions_total",
			Help:      "Values broadcast to subscribers of observable settings.",
		}, []string{"field"}),
		published: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Settings-updated events handed to the outbound publisher, by result.",
		}, []string{"result"}),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Persisted records a persist attempt.
func (m *Metrics) Persisted(err error) {
	if m == nil {
		return
	}
	m.persists.WithLabelValues(result(err)).Inc()
}

// Restored records a restore outcome.
func (m *Metrics) Restored(outcome string) {
	if m == nil {
		return
	}
	m.restores.WithLabelValues(outcome).Inc()
}

// FieldSkipped records a record field rejected during restore.
func (m *Metrics) FieldSkipped(field string) {
	if m == nil {
		return
	}
	m.skippedFields.WithLabelValues(field).Inc()
}

// Cleared records a backup deletion.
func (m *Metrics) Cleared() {
	if m == nil {
		return
	}
	m.clears.Inc()
}

// Emitted records a broadcast on an observable field.
func (m *Metrics) Emitted(field string) {
	if m == nil {
		return
	}
	m.emissions.WithLabelValues(field).Inc()
}

// Published records an outbound event publish attempt.
func (m *Metrics) Published(err error) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(result(err)).Inc()
}
