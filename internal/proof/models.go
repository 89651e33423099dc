// Package proof issues and verifies deterministic proof bundles. A bundle
// is evidence that an identity satisfied a template at issuance time; its
// validity is re-derived from current state on every verification, so
// mutating attributes revokes outstanding bundles.
package proof

import (
	"time"

	"livre/internal/crypto"
)

// Bundle binds identity, template, commitment, and attributes root into a
// single recomputable hash. Not a zero-knowledge proof: anyone holding the
// server-side state can recompute it.
type Bundle struct {
	IdentityID string    `json:"identityId"`
	TemplateID string    `json:"templateId"`
	ProofHash  string    `json:"proofHash"`
	IssuedAt   time.Time `json:"issuedAt"`
}

// ComputeHash derives the proof hash from the four bound values:
// H(identityId || templateId || commitment || attributesRoot).
func ComputeHash(identityID, templateID, commitment, attributesRoot string) string {
	return crypto.HashStrings(identityID, templateID, commitment, attributesRoot)
}
