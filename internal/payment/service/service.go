// Package service reconciles certificate fees: initiation against the
// gateway, the browser callback and the asynchronous webhook. Both
// confirmation paths are idempotent and race-safe.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"lgac/internal/application"
	"lgac/internal/audit"
	"lgac/internal/identity"
	"lgac/internal/payment"
	"lgac/internal/payment/gateway"
	"lgac/internal/payment/metrics"
	"lgac/internal/payment/store"
	id "lgac/pkg/domain"
	dErrors "lgac/pkg/domain-errors"
	"lgac/pkg/platform/sentinel"
	"lgac/pkg/requestcontext"
)

const tracerName = "lgac/payment"

// Applications reads application state for payment guards.
type Applications interface {
	FindByID(ctx context.Context, appID id.ApplicationID) (*application.Application, error)
}

// Lifecycle advances an application once its fee is confirmed.
type Lifecycle interface {
	MarkPaid(ctx context.Context, appID id.ApplicationID) error
}

// AuditEmitter receives payment audit events.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event)
}

// Config carries the payment parameters fixed at boot.
type Config struct {
	// FeeKobo is the flat certificate fee in minor currency units.
	FeeKobo int64
	// CallbackURL is where the gateway sends the citizen's browser back.
	CallbackURL string
}

// Service implements fee reconciliation.
type Service struct {
	payments  store.Store
	apps      Applications
	lifecycle Lifecycle
	gateway   gateway.Client
	auditor   AuditEmitter
	logger    *slog.Logger
	metrics   *metrics.Metrics
	cfg       Config
}

func New(payments store.Store, apps Applications, lifecycle Lifecycle,
	gw gateway.Client, auditor AuditEmitter, logger *slog.Logger,
	m *metrics.Metrics, cfg Config) *Service {
	return &Service{
		payments:  payments,
		apps:      apps,
		lifecycle: lifecycle,
		gateway:   gw,
		auditor:   auditor,
		logger:    logger,
		metrics:   m,
		cfg:       cfg,
	}
}

// InitiateResult points the citizen at the gateway's hosted checkout.
type InitiateResult struct {
	Reference   string
	CheckoutURL string
	AmountKobo  int64
}

// Initiate opens (or refreshes) the payment for an application and asks the
// gateway for a checkout session.
func (s *Service) Initiate(ctx context.Context, actor *identity.User, appID id.ApplicationID) (*InitiateResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Initiate")
	defer span.End()
	span.SetAttributes(attribute.Int64("application.id", appID.Int64()))

	if err := identity.RequireCitizen(actor); err != nil {
		return nil, err
	}
	app, err := s.findApplication(ctx, appID)
	if err != nil {
		return nil, err
	}
	if err := identity.RequireOwner(actor, app.ApplicantID); err != nil {
		return nil, err
	}
	if app.Status != application.StatusSubmitted && app.Status != application.StatusPaid {
		return nil, dErrors.Newf(dErrors.CodeInvalidTransition,
			"payment cannot be initiated for a %s application", app.Status)
	}
	if existing, err := s.payments.FindByApplication(ctx, appID); err == nil &&
		existing.Status == payment.StatusSuccess {
		return nil, dErrors.New(dErrors.CodeConflict, "this application has already been paid for")
	}
	if actor.Email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "a valid email address is required to make payment")
	}

	p := &payment.Payment{
		ApplicationID: appID,
		Reference:     payment.NewReference(),
		AmountKobo:    s.cfg.FeeKobo,
		Status:        payment.StatusPending,
		CreatedAt:     requestcontext.Now(ctx),
	}
	if err := s.payments.Upsert(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create payment")
	}

	start := time.Now()
	result, err := s.gateway.Initialize(ctx, gateway.InitializeRequest{
		Email:         actor.Email,
		AmountKobo:    p.AmountKobo,
		Reference:     p.Reference,
		CallbackURL:   s.cfg.CallbackURL,
		ApplicationID: appID.Int64(),
	})
	s.metrics.ObserveGatewayLatency("initialize", time.Since(start))
	if err != nil {
		s.logger.ErrorContext(ctx, "payment initialization unreachable",
			"application_id", appID,
			"reference", p.Reference,
			"error", err,
		)
		return nil, dErrors.New(dErrors.CodeGatewayUnavailable,
			"payment provider is unavailable, please try again")
	}
	if !result.OK {
		if _, err := s.payments.MarkFailed(ctx, p.Reference, result.Raw); err != nil {
			s.logger.ErrorContext(ctx, "failed to record gateway refusal",
				"reference", p.Reference, "error", err)
		}
		return nil, dErrors.Newf(dErrors.CodeGatewayUnavailable,
			"payment initialization failed: %s", result.Message)
	}

	s.auditor.Emit(ctx, s.event(ctx, audit.ActionPaymentStarted, appID, p.Reference))
	s.logger.InfoContext(ctx, "payment initiated",
		"application_id", appID,
		"reference", p.Reference,
		"amount_kobo", p.AmountKobo,
	)
	return &InitiateResult{
		Reference:   p.Reference,
		CheckoutURL: result.AuthorizationURL,
		AmountKobo:  p.AmountKobo,
	}, nil
}

// ConfirmCallback reconciles the browser-return path. Only the gateway's
// server-side verify answer is trusted; the client never carries status.
func (s *Service) ConfirmCallback(ctx context.Context, actor *identity.User, reference string) (*payment.Payment, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ConfirmCallback")
	defer span.End()

	if err := identity.RequireCitizen(actor); err != nil {
		return nil, err
	}
	if reference == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "missing payment reference")
	}
	if _, err := s.payments.FindByReference(ctx, reference); err != nil {
		return nil, s.notFound(err)
	}

	start := time.Now()
	result, err := s.gateway.Verify(ctx, reference)
	s.metrics.ObserveGatewayLatency("verify", time.Since(start))
	if err != nil {
		return nil, dErrors.New(dErrors.CodeGatewayUnavailable,
			"payment provider is unavailable, please try again")
	}

	if result.Paid {
		if err := s.settle(ctx, reference, result.Raw, "callback"); err != nil {
			return nil, err
		}
	} else {
		won, err := s.payments.MarkFailed(ctx, reference, result.Raw)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record payment failure")
		}
		if won {
			s.metrics.IncrementConfirmation("callback", "failed")
			s.auditor.Emit(ctx, s.event(ctx, audit.ActionPaymentFailed, 0, reference))
		}
	}

	p, err := s.payments.FindByReference(ctx, reference)
	if err != nil {
		return nil, s.notFound(err)
	}
	return p, nil
}

// WebhookEvent is the parsed gateway push. The handler has already checked
// the signature over the raw body before this is called.
type WebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
	} `json:"data"`
}

// HandleWebhook reconciles an asynchronous gateway event. Unknown references
// and duplicate deliveries succeed without mutation: the gateway retries on
// anything but 200.
func (s *Service) HandleWebhook(ctx context.Context, body []byte) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "HandleWebhook")
	defer span.End()

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "malformed webhook payload")
	}
	if event.Event != "charge.success" {
		return nil
	}
	if _, err := s.payments.FindByReference(ctx, event.Data.Reference); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load payment")
	}
	return s.settle(ctx, event.Data.Reference, body, "webhook")
}

// settle is the single success path shared by callback and webhook. The
// compare-and-set in MarkSuccess guarantees exactly one caller performs the
// transition; the loser treats it as already done.
func (s *Service) settle(ctx context.Context, reference string, payload json.RawMessage, path string) error {
	won, err := s.payments.MarkSuccess(ctx, reference, payload, time.Now())
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record payment success")
	}
	if !won {
		s.metrics.IncrementConfirmation(path, "duplicate")
		return nil
	}

	p, err := s.payments.FindByReference(ctx, reference)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load payment")
	}
	if err := s.lifecycle.MarkPaid(ctx, p.ApplicationID); err != nil {
		return err
	}

	s.metrics.IncrementConfirmation(path, "success")
	s.auditor.Emit(ctx, s.event(ctx, audit.ActionPaymentSuccess, p.ApplicationID, reference))
	s.logger.InfoContext(ctx, "payment confirmed",
		"application_id", p.ApplicationID,
		"reference", reference,
		"path", path,
	)
	return nil
}

// Receipt returns a successful payment to its owner.
func (s *Service) Receipt(ctx context.Context, actor *identity.User, appID id.ApplicationID) (*payment.Payment, error) {
	if err := identity.RequireCitizen(actor); err != nil {
		return nil, err
	}
	app, err := s.findApplication(ctx, appID)
	if err != nil {
		return nil, err
	}
	if err := identity.RequireOwner(actor, app.ApplicantID); err != nil {
		return nil, err
	}
	p, err := s.payments.FindByApplication(ctx, appID)
	if err != nil {
		return nil, s.notFound(err)
	}
	if p.Status != payment.StatusSuccess {
		return nil, dErrors.New(dErrors.CodeNotFound, "no successful payment for this application")
	}
	return p, nil
}

func (s *Service) findApplication(ctx context.Context, appID id.ApplicationID) (*application.Application, error) {
	app, err := s.apps.FindByID(ctx, appID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load application")
	}
	return app, nil
}

func (s *Service) notFound(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "payment record not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "payment lookup failed")
}

func (s *Service) event(ctx context.Context, action audit.Action, appID id.ApplicationID, reference string) audit.Event {
	return audit.Event{
		Action:        action,
		ActorID:       requestcontext.UserID(ctx),
		ApplicationID: appID,
		Reference:     reference,
		RequestID:     requestcontext.RequestID(ctx),
		Device:        requestcontext.Device(ctx),
	}
}
