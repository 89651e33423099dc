// Package handler exposes the identity registry over HTTP. Responses only
// ever carry the public identity view; control and recovery secrets stay
// inside the core.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"livre/internal/identity/models"
	"livre/internal/platform/middleware"
	dErrors "livre/pkg/domain-errors"
	"livre/pkg/platform/httputil"
)

// Service is the slice of the identity service the handler needs.
type Service interface {
	Create(ctx context.Context) (*models.IdentityRecord, error)
	Get(ctx context.Context, id string) (*models.IdentityRecord, error)
	List(ctx context.Context) ([]*models.IdentityRecord, error)
	SetAttributes(ctx context.Context, id string, attrs models.AttributesPayload) (*models.SetAttributesResult, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts identity endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/identity", h.HandleCreate)
	r.Get("/identity/{id}", h.HandleGet)
	r.Post("/attributes", h.HandleSetAttributes)
	r.Get("/identities", h.HandleList)
}

type createResponse struct {
	IdentityID string `json:"identityId"`
	Commitment string `json:"commitment"`
}

// HandleCreate handles POST /identity.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	record, err := h.service.Create(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "identity creation failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, createResponse{
		IdentityID: record.IdentityID,
		Commitment: record.Commitment,
	})
}

// HandleGet handles GET /identity/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	record, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, record.Public())
}

type setAttributesRequest struct {
	IdentityID string `json:"identityId"`
	Birthdate  string `json:"birthdate"`
	Country    string `json:"country"`
}

type setAttributesResponse struct {
	IdentityID     string `json:"identityId"`
	Commitment     string `json:"commitment"`
	AttributesRoot string `json:"attributesRoot"`
}

// HandleSetAttributes handles POST /attributes. Setting attributes rotates
// the commitment, which revokes every previously issued proof.
func (h *Handler) HandleSetAttributes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeJSON[setAttributesRequest](w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(req.IdentityID) == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "identityId is required"))
		return
	}

	result, err := h.service.SetAttributes(ctx, req.IdentityID, models.AttributesPayload{
		Birthdate: req.Birthdate,
		Country:   req.Country,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "attribute update rejected",
			"request_id", middleware.GetRequestID(ctx),
			"identity_id", req.IdentityID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, setAttributesResponse{
		IdentityID:     result.IdentityID,
		Commitment:     result.Commitment,
		AttributesRoot: result.AttributesRoot,
	})
}

// HandleList handles GET /identities.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.service.List(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	views := make([]models.PublicIdentity, 0, len(records))
	for _, record := range records {
		views = append(views, record.Public())
	}
	httputil.WriteJSON(w, http.StatusOK, views)
}
