package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New("http")

	m.ObserveSubmit(OutcomeSuccess)
	m.ObserveSubmit(OutcomeSuccess)
	m.ObserveSubmit(OutcomeInvalid)
	m.ObserveStale()
	m.ObserveRequest(OutcomeSuccess, 120*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.submits.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submits.WithLabelValues(OutcomeInvalid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stale))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submits.WithLabelValues(OutcomeStale)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.latency))
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveSubmit(OutcomeError)
		m.ObserveRequest(OutcomeError, time.Second)
		m.ObserveStale()
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New("openai")
	m.ObserveSubmit(OutcomeError)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `classify_submits_total{backend="openai",outcome="error"} 1`)
}
