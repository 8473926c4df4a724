package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Persisted(nil)
	m.Persisted(nil)
	m.Persisted(errors.New("disk full"))
	m.Restored(RestoreApplied)
	m.Restored(RestoreMalformed)
	m.FieldSkipped("circleSize")
	m.Cleared()
	m.Emitted("amountTouchPoints")
	m.Published(nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.persists.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persists.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.restores.WithLabelValues(RestoreApplied)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.restores.WithLabelValues(RestoreMalformed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.skippedFields.WithLabelValues("circleSize")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.clears))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.emissions.WithLabelValues("amountTouchPoints")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.published.WithLabelValues("ok")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.Persisted(nil)
		m.Restored(RestoreAbsent)
		m.FieldSkipped("x")
		m.Cleared()
		m.Emitted("x")
		m.Published(nil)
	})
}

func TestNew_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	assert.Panics(t, func() { New(reg) })
}
