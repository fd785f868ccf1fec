package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lgac/internal/certificate"
	"lgac/internal/identity"
	id "lgac/pkg/domain"
	dErrors "lgac/pkg/domain-errors"
	"lgac/pkg/platform/httputil"
	"lgac/pkg/requestcontext"
)

// Service defines the interface for certificate verification and retrieval.
type Service interface {
	VerifyByHash(ctx context.Context, hash string) (*certificate.Verification, error)
	Download(ctx context.Context, actor *identity.User, appID id.ApplicationID) ([]byte, string, error)
}

// ActorLoader resolves the authenticated user for authorization decisions.
type ActorLoader interface {
	FindByID(ctx context.Context, userID id.UserID) (*identity.User, error)
}

// Handler wires the certificate endpoints to the engine.
type Handler struct {
	service Service
	actors  ActorLoader
	logger  *slog.Logger
}

// New constructs a certificate handler with its dependencies.
func New(service Service, actors ActorLoader, logger *slog.Logger) *Handler {
	return &Handler{service: service, actors: actors, logger: logger}
}

// RegisterPublic mounts the unauthenticated verification endpoint.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/verify/{certificateHash}", h.HandleVerify)
}

// RegisterCitizen mounts the authenticated download endpoint.
func (h *Handler) RegisterCitizen(r chi.Router) {
	r.Get("/applications/{applicationID}/certificate", h.HandleDownload)
}

type verificationResponse struct {
	Valid             bool   `json:"valid"`
	CertificateNumber string `json:"certificate_number"`
	FullName          string `json:"full_name"`
	LGAName           string `json:"lga_name"`
	IssuedAt          string `json:"issued_at"`
	Hash              string `json:"hash"`
}

// HandleVerify handles GET /verify/{certificateHash} requests. No
// authentication: anyone holding a printed certificate may check it.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	v, err := h.service.VerifyByHash(ctx, chi.URLParam(r, "certificateHash"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, verificationResponse{
		Valid:             true,
		CertificateNumber: v.CertificateNumber,
		FullName:          v.FullName,
		LGAName:           v.LGAName,
		IssuedAt:          v.IssuedAt.Format(time.RFC3339),
		Hash:              v.Hash,
	})
}

// HandleDownload handles GET /applications/{applicationID}/certificate
// requests and streams the stored PDF.
func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.actor(ctx, w)
	if !ok {
		return
	}
	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	document, filename, err := h.service.Download(ctx, actor, appID)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "certificate download failed",
				"request_id", requestID,
				"actor_id", actor.ID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(document)
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
