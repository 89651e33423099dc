package audit

import "time"

// Actions recorded by the proof pipeline. The audit log is the only place
// that keeps the reason an issuance or verification was rejected; callers
// get a uniform failure.
const (
	ActionProofIssued   = "proof_issued"
	ActionProofRejected = "proof_rejected"
	ActionProofVerified = "proof_verified"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID         string
	Timestamp  time.Time
	IdentityID string
	Action     string
	TemplateID string
	Decision   string
	Reason     string
}
