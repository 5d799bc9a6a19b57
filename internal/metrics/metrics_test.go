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
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveHTTPRequest("/api/v1/certificates/verify/:hash", "GET", 200, 20*time.Millisecond)
	m.ObserveBackendCall("verify", "ok", time.Second)
	m.ObserveBackendCall("verify", "NOT_FOUND", time.Second)
	m.RecordQRScan("camera", "decoded")
	m.RecordWalletTransition("CONNECTED_ON_NETWORK")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/api/v1/certificates/verify/:hash", "GET", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BackendRequestsTotal.WithLabelValues("verify", "NOT_FOUND")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.QRScansTotal.WithLabelValues("camera", "decoded")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest("/", "GET", 200, time.Millisecond)
		m.ObserveBackendCall("list", "ok", time.Millisecond)
		m.RecordQRScan("upload", "ok")
		m.RecordWalletTransition("DISCONNECTED")
	})
}
