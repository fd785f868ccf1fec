package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lgac/internal/identity"
	"lgac/internal/lga"
	"lgac/internal/lga/service"
	id "lgac/pkg/domain"
	dErrors "lgac/pkg/domain-errors"
	"lgac/pkg/platform/httputil"
	"lgac/pkg/requestcontext"
)

// Service defines the interface for LGA operations.
type Service interface {
	Create(ctx context.Context, actor *identity.User, in service.CreateInput) (*lga.LGA, error)
	Update(ctx context.Context, actor *identity.User, lgaID id.LGAID, in service.UpdateInput) (*lga.LGA, error)
	Activate(ctx context.Context, actor *identity.User, lgaID id.LGAID) (*lga.LGA, error)
	ListActive(ctx context.Context) ([]*lga.LGA, error)
}

// ActorLoader resolves the authenticated user for authorization decisions.
type ActorLoader interface {
	FindByID(ctx context.Context, userID id.UserID) (*identity.User, error)
}

// Handler wires LGA endpoints to the LGA service.
type Handler struct {
	service Service
	actors  ActorLoader
	logger  *slog.Logger
}

// New constructs an LGA handler with its dependencies.
func New(service Service, actors ActorLoader, logger *slog.Logger) *Handler {
	return &Handler{service: service, actors: actors, logger: logger}
}

// RegisterPublic mounts the citizen-facing LGA listing.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/lgas", h.HandleList)
}

// RegisterAdmin mounts administrative LGA management endpoints. The router
// group must already require authentication.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/lgas", h.HandleCreate)
	r.Patch("/admin/lgas/{lgaID}", h.HandleUpdate)
	r.Post("/admin/lgas/{lgaID}/activate", h.HandleActivate)
}

type lgaRequest struct {
	Name                 string `json:"name"`
	Code                 string `json:"code"`
	SealKey              string `json:"seal_key"`
	HLGASignatureKey     string `json:"hlga_signature_key"`
	ChairmanSignatureKey string `json:"chairman_signature_key"`
}

type lgaResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Slug             string    `json:"slug"`
	Code             string    `json:"code,omitempty"`
	Active           bool      `json:"active"`
	CertificateReady bool      `json:"certificate_ready"`
	CreatedAt        time.Time `json:"created_at"`
}

func fromLGA(a *lga.LGA) lgaResponse {
	return lgaResponse{
		ID:               a.ID.String(),
		Name:             a.Name,
		Slug:             a.Slug,
		Code:             a.Code,
		Active:           a.Active,
		CertificateReady: a.ValidateCertificateAssets() == nil,
		CreatedAt:        a.CreatedAt,
	}
}

// HandleList handles GET /lgas requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	areas, err := h.service.ListActive(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "lga listing failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	out := make([]lgaResponse, 0, len(areas))
	for _, a := range areas {
		out = append(out, fromLGA(a))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"lgas": out})
}

// HandleCreate handles POST /admin/lgas requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.actor(ctx, w)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[lgaRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	area, err := h.service.Create(ctx, actor, service.CreateInput{
		Name:                 req.Name,
		Code:                 req.Code,
		SealKey:              req.SealKey,
		HLGASignatureKey:     req.HLGASignatureKey,
		ChairmanSignatureKey: req.ChairmanSignatureKey,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "lga creation failed",
			"request_id", requestID,
			"actor_id", actor.ID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, fromLGA(area))
}

// HandleUpdate handles PATCH /admin/lgas/{lgaID} requests.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.actor(ctx, w)
	if !ok {
		return
	}

	lgaID, err := id.ParseLGAID(chi.URLParam(r, "lgaID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[lgaRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	area, err := h.service.Update(ctx, actor, lgaID, service.UpdateInput{
		Name:                 req.Name,
		Code:                 req.Code,
		SealKey:              req.SealKey,
		HLGASignatureKey:     req.HLGASignatureKey,
		ChairmanSignatureKey: req.ChairmanSignatureKey,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "lga update failed",
			"request_id", requestID,
			"actor_id", actor.ID,
			"lga_id", lgaID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, fromLGA(area))
}

// HandleActivate handles POST /admin/lgas/{lgaID}/activate requests.
func (h *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.actor(ctx, w)
	if !ok {
		return
	}

	lgaID, err := id.ParseLGAID(chi.URLParam(r, "lgaID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	area, err := h.service.Activate(ctx, actor, lgaID)
	if err != nil {
		h.logger.ErrorContext(ctx, "lga activation failed",
			"request_id", requestID,
			"actor_id", actor.ID,
			"lga_id", lgaID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "lga activated",
		"request_id", requestID,
		"actor_id", actor.ID,
		"lga_id", lgaID,
	)
	httputil.WriteJSON(w, http.StatusOK, fromLGA(area))
}

func (h *Handler) actor(ctx context.Context, w http.ResponseWriter) (*identity.User, bool) {
	userID := requestcontext.UserID(ctx)
	if userID == (id.UserID{}) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return nil, false
	}
	actor, err := h.actors.FindByID(ctx, userID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "unknown user"))
		return nil, false
	}
	return actor, true
}
