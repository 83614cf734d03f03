package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. A nil *Metrics
// records nothing.
type Metrics struct {
	ScrollsSigned    prometheus.Counter
	SignatureChecks  *prometheus.CounterVec
	LicensesIssued   *prometheus.CounterVec
	TokenValidations *prometheus.CounterVec
	MeshSyncs        prometheus.Counter
	RequestDuration  *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg. Tests pass a fresh
// prometheus.NewRegistry() so suites can build their own instances.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ScrollsSigned: f.NewCounter(prometheus.CounterOpts{
			Name: "scrollvault_scrolls_signed_total",
			Help: "Total number of scroll records signed at intake",
		}),
		SignatureChecks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "scrollvault_signature_checks_total",
			Help: "Scroll signature verifications by outcome",
		}, []string{"result"}),
		LicensesIssued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "scrollvault_license_tokens_issued_total",
			Help: "License tokens issued by issuance path",
		}, []string{"kind"}),
		TokenValidations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "scrollvault_license_token_validations_total",
			Help: "License token validations by outcome",
		}, []string{"result"}),
		MeshSyncs: f.NewCounter(prometheus.CounterOpts{
			Name: "scrollvault_mesh_syncs_total",
			Help: "Total number of VaultMesh sync calls",
		}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scrollvault_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) IncrementScrollsSigned() {
	if m == nil {
		return
	}
	m.ScrollsSigned.Inc()
}

func (m *Metrics) ObserveSignatureCheck(valid bool) {
	if m == nil {
		return
	}
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.SignatureChecks.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementLicensesIssued(kind string) {
	if m == nil {
		return
	}
	m.LicensesIssued.WithLabelValues(kind).Inc()
}

// ObserveTokenValidation records "valid", "expired" or "invalid_signature".
func (m *Metrics) ObserveTokenValidation(result string) {
	if m == nil {
		return
	}
	m.TokenValidations.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementMeshSyncs() {
	if m == nil {
		return
	}
	m.MeshSyncs.Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
