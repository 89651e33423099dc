// Package models holds the identity record and attribute payload shared by
// the registry, vault, policy evaluator, and proof services.
package models

import (
	"time"

	"livre/internal/crypto"
)

// IdentityRecord is the unit the registry owns. ControlKey, RecoveryKey,
// and PoliciesRoot are random secrets that never leave the core; the JSON
// tags exist only for the encrypted snapshot, never for HTTP responses
// (see PublicIdentity).
type IdentityRecord struct {
	IdentityID     string             `json:"identityId"`
	ControlKey     string             `json:"controlKey"`
	RecoveryKey    string             `json:"recoveryKey"`
	AttributesRoot string             `json:"attributesRoot"`
	PoliciesRoot   string             `json:"policiesRoot"`
	Commitment     string             `json:"commitment"`
	CreatedAt      time.Time          `json:"createdAt"`
	Attributes     *AttributesPayload `json:"attributes,omitempty"`
}

// ComputeCommitment binds the four fields into the identity commitment.
// Invariant: Commitment must always equal this hash of the current fields;
// every field change recomputes it through here.
func ComputeCommitment(controlKey, recoveryKey, attributesRoot, policiesRoot string) string {
	return crypto.HashStrings(controlKey, recoveryKey, attributesRoot, policiesRoot)
}

// RecomputeCommitment refreshes r.Commitment from the current fields.
func (r *IdentityRecord) RecomputeCommitment() {
	r.Commitment = ComputeCommitment(r.ControlKey, r.RecoveryKey, r.AttributesRoot, r.PoliciesRoot)
}

// CommitmentValid reports whether the stored commitment matches the fields.
func (r *IdentityRecord) CommitmentValid() bool {
	return r.Commitment == ComputeCommitment(r.ControlKey, r.RecoveryKey, r.AttributesRoot, r.PoliciesRoot)
}

// Clone returns a deep copy so callers never alias store-owned state.
func (r *IdentityRecord) Clone() *IdentityRecord {
	out := *r
	if r.Attributes != nil {
		attrs := *r.Attributes
		out.Attributes = &attrs
	}
	return &out
}

// PublicIdentity is the caller-facing view. Secrets are omitted by
// construction, not by tag, so a serialization change cannot leak them.
type PublicIdentity struct {
	IdentityID     string    `json:"identityId"`
	Commitment     string    `json:"commitment"`
	AttributesRoot string    `json:"attributesRoot"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Public projects the record into its caller-facing view.
func (r *IdentityRecord) Public() PublicIdentity {
	return PublicIdentity{
		IdentityID:     r.IdentityID,
		Commitment:     r.Commitment,
		AttributesRoot: r.AttributesRoot,
		CreatedAt:      r.CreatedAt,
	}
}
