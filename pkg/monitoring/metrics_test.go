package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-clinic-management/pkg/apperror"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "validation_failure", Outcome(apperror.Validation("bad")))
	assert.Equal(t, "not_found_or_already_processed", Outcome(apperror.NotFoundOrAlreadyProcessed("gone")))
	assert.Equal(t, "error", Outcome(errors.New("boom")))
}

func TestRecordWorkflow_CountsByOutcome(t *testing.T) {
	m := NewMetricsCollector(prometheus.NewRegistry())

	m.RecordWorkflow("appointment.approve", time.Now(), nil)
	m.RecordWorkflow("appointment.approve", time.Now(), apperror.NotFoundOrAlreadyProcessed("gone"))
	m.RecordWorkflow("appointment.approve", time.Now(), nil)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.workflowTotal.WithLabelValues("appointment.approve", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.workflowTotal.WithLabelValues("appointment.approve", "not_found_or_already_processed")))
}

func TestRecordRepair_IgnoresZero(t *testing.T) {
	m := NewMetricsCollector(prometheus.NewRegistry())

	m.RecordRepair("patient_codes", 0)
	m.RecordRepair("patient_codes", 3)

	assert.Equal(t, float64(3), testutil.ToFloat64(m.repairedRowsTotal.WithLabelValues("patient_codes")))
}

func TestNilCollectorIsSafe(t *testing.T) {
	var m *MetricsCollector
	assert.NotPanics(t, func() {
		m.RecordWorkflow("x", time.Now(), nil)
		m.RecordRepair("x", 1)
		m.RecordHTTPRequest("GET", "/", "200", time.Millisecond)
	})
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := NewMetricsCollector(prometheus.NewRegistry())
	m.RecordWorkflow("billing.pay", time.Now(), nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "clinic_workflow_operations_total")
}
