package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector registers and updates the service's Prometheus metrics.
type Collector struct {
	sessionsIssued prometheus.Counter
	scansAccepted  prometheus.Counter
	scansRejected  *prometheus.CounterVec
}

// Rejection reason labels.
const (
	ReasonNotFound        = "not_found"
	ReasonNotEnrolled     = "not_enrolled"
	ReasonExpired         = "expired"
	ReasonAlreadyRecorded = "already_recorded"
	ReasonInvalidToken    = "invalid_token"
	ReasonStoreError      = "store_error"
)

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sessionsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attendance_sessions_issued_total",
			Help: "Session tokens issued.",
		}),
		scansAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attendance_scans_accepted_total",
			Help: "Scans that produced an attendance event.",
		}),
		scansRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_scans_rejected_total",
			Help: "Scans rejected by the validation pipeline, by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(c.sessionsIssued, c.scansAccepted, c.scansRejected)
	return c
}

// SessionIssued records one issued token.
func (c *Collector) SessionIssued() {
	c.sessionsIssued.Inc()
}

// ScanAccepted records one successful recording.
func (c *Collector) ScanAccepted() {
	c.scansAccepted.Inc()
}

// ScanRejected records one rejected scan with its reason.
func (c *Collector) ScanRejected(reason string) {
	c.scansRejected.WithLabelValues(reason).Inc()
}
