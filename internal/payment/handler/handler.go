package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lgac/internal/identity"
	"lgac/internal/payment"
	"lgac/internal/payment/metrics"
	"lgac/internal/payment/service"
	id "lgac/pkg/domain"
	dErrors "lgac/pkg/domain-errors"
	"lgac/pkg/platform/httputil"
	"lgac/pkg/requestcontext"
)

// signatureHeader carries the gateway's HMAC-SHA512 of the raw webhook body.
const signatureHeader = "x-paystack-signature"

const maxWebhookBytes = 1 << 20

// Service defines the interface for payment operations.
type Service interface {
	Initiate(ctx context.Context, actor *identity.User, appID id.ApplicationID) (*service.InitiateResult, error)
	ConfirmCallback(ctx context.Context, actor *identity.User, reference string) (*payment.Payment, error)
	HandleWebhook(ctx context.Context, body []byte) error
	Receipt(ctx context.Context, actor *identity.User, appID id.ApplicationID) (*payment.Payment, error)
}

// ActorLoader resolves the authenticated user for authorization decisions.
type ActorLoader interface {
	FindByID(ctx context.Context, userID id.UserID) (*identity.User, error)
}

// Handler wires payment endpoints to the payment service.
type Handler struct {
	service       Service
	actors        ActorLoader
	webhookSecret string
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

// New constructs a payment handler with its dependencies.
func New(service Service, actors ActorLoader, webhookSecret string,
	logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		service:       service,
		actors:        actors,
		webhookSecret: webhookSecret,
		logger:        logger,
		metrics:       m,
	}
}

// RegisterCitizen mounts the authenticated payment endpoints.
func (h *Handler) RegisterCitizen(r chi.Router) {
	r.Post("/applications/{applicationID}/payments", h.HandleInitiate)
	r.Get("/payments/verify", h.HandleCallback)
	r.Get("/applications/{applicationID}/payments/receipt", h.HandleReceipt)
}

// RegisterPublic mounts the gateway-facing webhook. Authentication is the
// body signature, not a session.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/webhooks/paystack", h.HandleWebhook)
}

type paymentResponse struct {
	ApplicationID string `json:"application_id"`
	Reference     string `json:"reference"`
	AmountKobo    int64  `json:"amount_kobo"`
	Status        string `json:"status"`
	PaidAt        string `json:"paid_at,omitempty"`
}

func fromPayment(p *payment.Payment) paymentResponse {
	resp := paymentResponse{
		ApplicationID: p.ApplicationID.String(),
		Reference:     p.Reference,
		AmountKobo:    p.AmountKobo,
		Status:        string(p.Status),
	}
	if !p.PaidAt.IsZero() {
		resp.PaidAt = p.PaidAt.Format(time.RFC3339)
	}
	return resp
}

// HandleInitiate handles POST /applications/{applicationID}/payments requests.
func (h *Handler) HandleInitiate(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.service.Initiate(ctx, actor, appID)
	if err != nil {
		h.logger.ErrorContext(ctx, "payment initiation failed",
			"request_id", requestID,
			"actor_id", actor.ID,
			"application_id", appID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"reference":    result.Reference,
		"checkout_url": result.CheckoutURL,
		"amount_kobo":  result.AmountKobo,
	})
}

// HandleCallback handles GET /payments/verify requests, the gateway's
// browser-return path.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.actor(ctx, w)
	if !ok {
		return
	}

	p, err := h.service.ConfirmCallback(ctx, actor, r.URL.Query().Get("reference"))
	if err != nil {
		h.logger.ErrorContext(ctx, "payment callback failed",
			"request_id", requestID,
			"actor_id", actor.ID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromPayment(p))
}

// HandleReceipt handles GET /applications/{applicationID}/payments/receipt requests.
func (h *Handler) HandleReceipt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := h.actor(ctx, w)
	if !ok {
		return
	}
	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	p, err := h.service.Receipt(ctx, actor, appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromPayment(p))
}

// HandleWebhook handles POST /webhooks/paystack requests. The signature is
// recomputed over the raw body; a mismatch is rejected before any state is
// touched.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unreadable webhook body"))
		return
	}

	if !h.validSignature(body, r.Header.Get(signatureHeader)) {
		h.metrics.IncrementWebhookRejection()
		h.logger.WarnContext(ctx, "webhook signature mismatch", "request_id", requestID)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid signature"))
		return
	}

	if err := h.service.HandleWebhook(ctx, body); err != nil {
		h.logger.ErrorContext(ctx, "webhook processing failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) validSignature(body []byte, header string) bool {
	if header == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(h.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
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
