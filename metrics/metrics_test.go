package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.RecordClassification("health", "excellent", false)
	m.RecordClassification("health", "critical", true)
	m.RecordUpload(true)
	m.RecordUpload(false)
	m.RecordUpload(false)
	m.AnalysisStarted()
	m.AnalysisSettled("completed", 2*time.Second)

	assert.InDelta(t, 1, testutil.ToFloat64(m.ClassificationsTotal.WithLabelValues("health", "excellent")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ScoresClampedTotal.WithLabelValues("health")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.UploadsTotal.WithLabelValues("rejected")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("completed")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.AnalysesInFlight), 0)

	_, err = New(reg)
	require.Error(t, err, "registering twice must fail")
}

func TestMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordClassification("health", "good", false)
		m.RecordUpload(true)
		m.AnalysisStarted()
		m.AnalysisSettled("failed", time.Second)
		m.RecordHTTPRequest("GET", "/x", 200, time.Millisecond)
	})
	assert.Nil(t, m.Registry())
}
