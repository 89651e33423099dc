package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service. Services take a
// *Metrics that may be nil (tests pass nil), so every increment goes
// through a nil-guarded helper.
type Metrics struct {
	IdentitiesCreated prometheus.Counter
	AttributeUpdates  prometheus.Counter
	ProofsIssued      prometheus.Counter
	ProofsRejected    *prometheus.CounterVec
	Verifications     *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		IdentitiesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "livre_identities_created_total",
			Help: "Total number of identities created.",
		}),
		AttributeUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "livre_attribute_updates_total",
			Help: "Total number of attribute payloads stored, including overwrites.",
		}),
		ProofsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "livre_proofs_issued_total",
			Help: "Total number of proof bundles issued.",
		}),
		ProofsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "livre_proofs_rejected_total",
			Help: "Proof issuance rejections by reason.",
		}, []string{"reason"}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "livre_proof_verifications_total",
			Help: "Proof verifications by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncIdentitiesCreated() {
	if m != nil {
		m.IdentitiesCreated.Inc()
	}
}

func (m *Metrics) IncAttributeUpdates() {
	if m != nil {
		m.AttributeUpdates.Inc()
	}
}

func (m *Metrics) IncProofsIssued() {
	if m != nil {
		m.ProofsIssued.Inc()
	}
}

func (m *Metrics) IncProofsRejected(reason string) {
	if m != nil {
		m.ProofsRejected.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) IncVerifications(outcome string) {
	if m != nil {
		m.Verifications.WithLabelValues(outcome).Inc()
	}
}
