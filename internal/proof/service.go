package proof

import (
	"context"
	"log/slog"
	"time"

	"livre/internal/audit"
	"livre/internal/identity/models"
	"livre/internal/platform/metrics"
	"livre/internal/policy"
	dErrors "livre/pkg/domain-errors"
)

// IdentityRegistry is the slice of the identity service issuance and
// verification need.
type IdentityRegistry interface {
	Get(ctx context.Context, id string) (*models.IdentityRecord, error)
	// EnsureAttributesRoot backfills a missing root from stored attributes
	// before the proof hash is recomputed.
	EnsureAttributesRoot(ctx context.Context, id string) (*models.IdentityRecord, error)
}

// Registry is the append-only proof log (see store package).
type Registry interface {
	Record(ctx context.Context, bundle Bundle) error
	ListByIdentity(ctx context.Context, identityID string) ([]Bundle, error)
}

// Service orchestrates the identity registry, policy evaluator, and proof
// log for issuance and verification.
type Service struct {
	identities IdentityRegistry
	registry   Registry
	audit      *audit.Publisher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

func New(identities IdentityRegistry, registry Registry, auditor *audit.Publisher, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		identities: identities,
		registry:   registry,
		audit:      auditor,
		logger:     logger,
		metrics:    m,
		now:        time.Now,
	}
}

func policyAttributes(attrs *models.AttributesPayload) *policy.Attributes {
	if attrs == nil {
		return nil
	}
	return &policy.Attributes{Birthdate: attrs.Birthdate, Country: attrs.Country}
}

// Issue validates the claimed commitment against current state, evaluates
// the template, and appends the resulting bundle to the proof log. Failed
// issuance leaves no partial state; the detailed reason lands in the audit
// log and metrics.
func (s *Service) Issue(ctx context.Context, identityID, claimedCommitment, templateID string) (*Bundle, error) {
	identity, err := s.identities.Get(ctx, identityID)
	if err != nil {
		s.reject(ctx, identityID, templateID, "not_found")
		return nil, dErrors.New(dErrors.CodeNotFound, "identity not found")
	}

	// Exact match against the current commitment rejects requests built
	// from state captured before an attribute rotation.
	if claimedCommitment != identity.Commitment {
		s.reject(ctx, identityID, templateID, "commitment_mismatch")
		return nil, dErrors.New(dErrors.CodeCommitmentMismatch, "commitment does not match current identity state")
	}

	if !policy.Satisfies(policyAttributes(identity.Attributes), templateID, s.now()) {
		s.reject(ctx, identityID, templateID, "policy_unsatisfied")
		return nil, dErrors.New(dErrors.CodePolicyUnsatisfied, "attributes do not satisfy the template")
	}

	bundle := Bundle{
		IdentityID: identityID,
		TemplateID: templateID,
		ProofHash:  ComputeHash(identityID, templateID, identity.Commitment, identity.AttributesRoot),
		IssuedAt:   s.now().UTC(),
	}
	if err := s.registry.Record(ctx, bundle); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record proof")
	}

	s.metrics.IncProofsIssued()
	s.emit(ctx, audit.Event{
		IdentityID: identityID,
		Action:     audit.ActionProofIssued,
		TemplateID: templateID,
		Decision:   "allow",
	})
	s.logger.InfoContext(ctx, "proof issued",
		"identity_id", identityID,
		"template_id", templateID,
	)
	return &bundle, nil
}

// Verify re-derives the expected proof hash from the identity's current
// commitment and attributes root and re-evaluates the predicate. A proof
// is a live claim about present state: mutate the attributes and an
// outstanding bundle stops verifying. Well-formed-but-invalid bundles
// return false, never an error.
func (s *Service) Verify(ctx context.Context, identityID string, bundle Bundle) bool {
	if identityID != bundle.IdentityID {
		return s.verdict(ctx, identityID, bundle.TemplateID, false, "identity_mismatch")
	}

	identity, err := s.identities.Get(ctx, identityID)
	if err != nil {
		return s.verdict(ctx, identityID, bundle.TemplateID, false, "not_found")
	}

	if !policy.Satisfies(policyAttributes(identity.Attributes), bundle.TemplateID, s.now()) {
		return s.verdict(ctx, identityID, bundle.TemplateID, false, "policy_unsatisfied")
	}

	if identity.AttributesRoot == "" && identity.Attributes != nil {
		identity, err = s.identities.EnsureAttributesRoot(ctx, identityID)
		if err != nil {
			return s.verdict(ctx, identityID, bundle.TemplateID, false, "backfill_failed")
		}
	}
	if identity.AttributesRoot == "" {
		return s.verdict(ctx, identityID, bundle.TemplateID, false, "missing_root")
	}

	expected := ComputeHash(identity.IdentityID, bundle.TemplateID, identity.Commitment, identity.AttributesRoot)
	if expected != bundle.ProofHash {
		return s.verdict(ctx, identityID, bundle.TemplateID, false, "hash_mismatch")
	}
	return s.verdict(ctx, identityID, bundle.TemplateID, true, "")
}

// List returns the identity's issued proofs in insertion order.
func (s *Service) List(ctx context.Context, identityID string) ([]Bundle, error) {
	bundles, err := s.registry.ListByIdentity(ctx, identityID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list proofs")
	}
	return bundles, nil
}

func (s *Service) reject(ctx context.Context, identityID, templateID, reason string) {
	s.metrics.IncProofsRejected(reason)
	s.emit(ctx, audit.Event{
		IdentityID: identityID,
		Action:     audit.ActionProofRejected,
		TemplateID: templateID,
		Decision:   "deny",
		Reason:     reason,
	})
	s.logger.WarnContext(ctx, "proof issuance rejected",
		"identity_id", identityID,
		"template_id", templateID,
		"reason", reason,
	)
}

func (s *Service) verdict(ctx context.Context, identityID, templateID string, valid bool, reason string) bool {
	outcome := "valid"
	if !valid {
		outcome = "invalid"
	}
	s.metrics.IncVerifications(outcome)
	s.emit(ctx, audit.Event{
		IdentityID: identityID,
		Action:     audit.ActionProofVerified,
		TemplateID: templateID,
		Decision:   outcome,
		Reason:     reason,
	})
	return valid
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "error", err)
	}
}
