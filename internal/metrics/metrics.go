// Package metrics provides Prometheus metrics for the BFF server and the
// certificate backend gateway.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector. A nil *Metrics records nothing.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	BackendRequestsTotal *prometheus.CounterVec
	BackendDuration      *prometheus.HistogramVec
	QRScansTotal         *prometheus.CounterVec
	WalletTransitions    *prometheus.CounterVec
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certverify_http_requests_total",
			Help: "Total BFF requests by route, method and status",
		}, []string{"route", "method", "status"}),

		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certverify_http_request_duration_seconds",
			Help:    "Latency of BFF requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),

		BackendRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certverify_backend_requests_total",
			Help: "Total certificate backend calls by operation and outcome",
		}, []string{"operation", "outcome"}),

		BackendDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certverify_backend_request_duration_seconds",
			Help:    "Latency of certificate backend calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"operation"}),

		QRScansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certverify_qr_scans_total",
			Help: "QR acquisitions by mode and outcome",
		}, []string{"mode", "outcome"}),

		WalletTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certverify_wallet_state_transitions_total",
			Help: "Wallet session state transitions by target state",
		}, []string{"state"}),
	}
}

// ObserveHTTPRequest records one served request.
func (m *Metrics) ObserveHTTPRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveBackendCall records one gateway call. outcome is "ok" or an error code.
func (m *Metrics) ObserveBackendCall(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.BackendRequestsTotal.WithLabelValues(operation, outcome).Inc()
	m.BackendDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// RecordQRScan records a QR acquisition attempt.
func (m *Metrics) RecordQRScan(mode, outcome string) {
	if m == nil {
		return
	}
	m.QRScansTotal.WithLabelValues(mode, outcome).Inc()
}

// RecordWalletTransition records a move into state.
func (m *Metrics) RecordWalletTransition(state string) {
	if m == nil {
		return
	}
	m.WalletTransitions.WithLabelValues(state).Inc()
}
