package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionAccounting(t *testing.T) {
	m := New()

	m.SessionLaunched("carfax", nil)
	m.SessionLaunched("carfax", errors.New("exec: not found"))
	m.SessionClosed("carfax")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsLaunched.WithLabelValues("carfax", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsLaunched.WithLabelValues("carfax", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsClosed.WithLabelValues("carfax")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SessionsActive))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.SessionLaunched("carfax", nil)
	m.SessionClosed("carfax")
	m.LookupFinished("carfax", "OK", time.Second)
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.LookupFinished("windowsticker", "OK", 3*time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `vehicledesc_lookups_total{code="OK",portal="windowsticker"} 1`)
}
