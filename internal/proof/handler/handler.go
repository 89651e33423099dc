// Package handler exposes proof issuance and verification over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"livre/internal/platform/middleware"
	"livre/internal/proof"
	dErrors "livre/pkg/domain-errors"
	"livre/pkg/platform/httputil"
)

// Service is the slice of the proof service the handler needs.
type Service interface {
	Issue(ctx context.Context, identityID, claimedCommitment, templateID string) (*proof.Bundle, error)
	Verify(ctx context.Context, identityID string, bundle proof.Bundle) bool
	List(ctx context.Context, identityID string) ([]proof.Bundle, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts proof endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/proof", h.HandleIssue)
	r.Post("/proof/verify", h.HandleVerify)
	r.Get("/identities/{id}/proofs", h.HandleListByIdentity)
}

type issueRequest struct {
	IdentityID string `json:"identityId"`
	Commitment string `json:"commitment"`
	TemplateID string `json:"templateId"`
}

// HandleIssue handles POST /proof. Every issuance failure is answered with
// the same 400 body so callers cannot probe which precondition rejected
// them; the audit log keeps the reason.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeJSON[issueRequest](w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(req.IdentityID) == "" || strings.TrimSpace(req.TemplateID) == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "identityId and templateId are required"))
		return
	}

	bundle, err := h.service.Issue(ctx, req.IdentityID, req.Commitment, req.TemplateID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "proof issuance failed",
				"request_id", middleware.GetRequestID(ctx),
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		// Collapse not-found, commitment mismatch, and policy rejection
		// into one opaque response.
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unable to generate proof"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, bundle)
}

type verifyRequest struct {
	IdentityID string       `json:"identityId"`
	Proof      proof.Bundle `json:"proof"`
}

type verifyResponse struct {
	Valid bool `json:"valid"`
}

// HandleVerify handles POST /proof/verify. A well-formed request always
// gets a 200 verdict, valid or not.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeJSON[verifyRequest](w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(req.IdentityID) == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "identityId is required"))
		return
	}

	valid := h.service.Verify(ctx, req.IdentityID, req.Proof)
	httputil.WriteJSON(w, http.StatusOK, verifyResponse{Valid: valid})
}

// HandleListByIdentity handles GET /identities/{id}/proofs.
func (h *Handler) HandleListByIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	bundles, err := h.service.List(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if bundles == nil {
		bundles = []proof.Bundle{}
	}
	httputil.WriteJSON(w, http.StatusOK, bundles)
}
