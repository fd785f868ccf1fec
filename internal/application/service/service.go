// Package service drives the application lifecycle: drafting, submission with
// identity snapshot capture, withdrawal, officer review and decisions.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"lgac/internal/application"
	"lgac/internal/application/metrics"
	"lgac/internal/application/store"
	"lgac/internal/audit"
	"lgac/internal/identity"
	identitystore "lgac/internal/identity/store"
	lgastore "lgac/internal/lga/store"
	id "lgac/pkg/domain"
	dErrors "lgac/pkg/domain-errors"
	"lgac/pkg/platform/sentinel"
	"lgac/pkg/requestcontext"
)

const tracerName = "lgac/application"

// Issuer generates the certificate for an approved application. Implemented
// by the certificate engine; injected to keep the lifecycle testable without
// a renderer.
type Issuer interface {
	Issue(ctx context.Context, app *application.Application) (*application.Application, error)
}

// AuditEmitter receives lifecycle audit events.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event)
}

// Decision is an officer's verdict on an in-review application.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
	DecisionDefer   Decision = "defer"
)

// Service implements the application lifecycle operations.
type Service struct {
	apps    store.Store
	users   identitystore.Store
	lgas    lgastore.Store
	issuer  Issuer
	auditor AuditEmitter
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(apps store.Store, users identitystore.Store, lgas lgastore.Store,
	issuer Issuer, auditor AuditEmitter, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		apps:    apps,
		users:   users,
		lgas:    lgas,
		issuer:  issuer,
		auditor: auditor,
		logger:  logger,
		metrics: m,
	}
}

// DraftInput carries the applicant-editable fields of a draft.
type DraftInput struct {
	LGAID            id.LGAID
	DateOfBirth      time.Time
	PlaceOfBirth     string
	HomeTown         string
	FamilyCompound   string
	FatherName       string
	MotherName       string
	Purpose          string
	PassportPhotoKey string
}

// CreateDraft opens a new draft application for the citizen.
func (s *Service) CreateDraft(ctx context.Context, actor *identity.User, in DraftInput) (*application.Application, error) {
	if err := identity.RequireCitizen(actor); err != nil {
		return nil, err
	}
	if err := s.requireActiveLGA(ctx, in.LGAID); err != nil {
		return nil, err
	}

	app := &application.Application{
		ApplicantID:      actor.ID,
		LGAID:            in.LGAID,
		Status:           application.StatusDraft,
		DateOfBirth:      in.DateOfBirth,
		PlaceOfBirth:     defaultPlaceOfBirth(in.PlaceOfBirth),
		HomeTown:         in.HomeTown,
		FamilyCompound:   in.FamilyCompound,
		FatherName:       in.FatherName,
		MotherName:       in.MotherName,
		Purpose:          in.Purpose,
		PassportPhotoKey: in.PassportPhotoKey,
		CreatedAt:        requestcontext.Now(ctx),
	}
	if err := app.Validate(); err != nil {
		return nil, err
	}
	if err := s.apps.Create(ctx, app); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create application")
	}
	return app, nil
}

// UpdateDraft edits a draft in place. Only drafts are editable.
func (s *Service) UpdateDraft(ctx context.Context, actor *identity.User, appID id.ApplicationID, in DraftInput) (*application.Application, error) {
	app, err := s.ownedApplication(ctx, actor, appID)
	if err != nil {
		return nil, err
	}
	if app.Status != application.StatusDraft {
		return nil, dErrors.Newf(dErrors.CodeInvalidTransition,
			"only draft applications can be edited, this one is %s", app.Status)
	}
	if !in.LGAID.IsNil() && in.LGAID != app.LGAID {
		if err := s.requireActiveLGA(ctx, in.LGAID); err != nil {
			return nil, err
		}
		app.LGAID = in.LGAID
	}
	if !in.DateOfBirth.IsZero() {
		app.DateOfBirth = in.DateOfBirth
	}
	if in.PlaceOfBirth != "" {
		app.PlaceOfBirth = in.PlaceOfBirth
	}
	if in.HomeTown != "" {
		app.HomeTown = in.HomeTown
	}
	if in.FamilyCompound != "" {
		app.FamilyCompound = in.FamilyCompound
	}
	if in.FatherName != "" {
		app.FatherName = in.FatherName
	}
	if in.MotherName != "" {
		app.MotherName = in.MotherName
	}
	if in.Purpose != "" {
		app.Purpose = in.Purpose
	}
	if in.PassportPhotoKey != "" {
		app.PassportPhotoKey = in.PassportPhotoKey
	}
	if err := app.Validate(); err != nil {
		return nil, err
	}
	if err := s.apps.Update(ctx, app); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update application")
	}
	return app, nil
}

// Submit freezes the identity snapshot from the live applicant record and
// moves the draft to SUBMITTED. The snapshot is never re-derived afterward.
func (s *Service) Submit(ctx context.Context, actor *identity.User, appID id.ApplicationID) (*application.Application, error) {
	app, err := s.ownedApplication(ctx, actor, appID)
	if err != nil {
		return nil, err
	}
	if app.Status != application.StatusDraft {
		s.metrics.IncrementSubmitRejection()
		return nil, application.ErrInvalidTransition(app.Status, application.StatusSubmitted)
	}

	// Re-read the applicant so the snapshot reflects this instant, not the
	// record cached when the request was authenticated.
	applicant, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load applicant")
	}
	app.FullName = applicant.FullName
	app.Email = applicant.Email
	app.Phone = applicant.Phone
	app.NIN = applicant.NIN
	app.Status = application.StatusSubmitted

	if err := app.ValidateBiographics(); err != nil {
		s.metrics.IncrementSubmitRejection()
		return nil, err
	}
	if err := app.Validate(); err != nil {
		s.metrics.IncrementSubmitRejection()
		return nil, err
	}
	if err := s.apps.Update(ctx, app); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to submit application")
	}

	s.metrics.IncrementTransition(string(application.StatusDraft), string(application.StatusSubmitted))
	s.auditor.Emit(ctx, s.event(ctx, audit.ActionAppSubmitted, app))
	s.logger.InfoContext(ctx, "application submitted",
		"application_id", app.ID,
		"applicant_id", app.ApplicantID,
		"lga_id", app.LGAID,
	)
	return app, nil
}

// Withdraw exits the lifecycle from PAID or IN_REVIEW. Owner only.
func (s *Service) Withdraw(ctx context.Context, actor *identity.User, appID id.ApplicationID) (*application.Application, error) {
	app, err := s.ownedApplication(ctx, actor, appID)
	if err != nil {
		return nil, err
	}
	if !application.CanTransition(app.Status, application.StatusWithdrawn) {
		return nil, application.ErrInvalidTransition(app.Status, application.StatusWithdrawn)
	}

	moved, err := s.apps.UpdateStatus(ctx, app.ID, app.Status, application.StatusWithdrawn)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to withdraw application")
	}
	if !moved {
		// Someone else transitioned the row between read and write.
		return nil, dErrors.New(dErrors.CodeConflict, "application state changed, retry")
	}

	s.metrics.IncrementTransition(string(app.Status), string(application.StatusWithdrawn))
	app.Status = application.StatusWithdrawn
	s.auditor.Emit(ctx, s.event(ctx, audit.ActionAppWithdrawn, app))
	s.logger.InfoContext(ctx, "application withdrawn",
		"application_id", app.ID,
		"applicant_id", app.ApplicantID,
	)
	return app, nil
}

// MarkPaid advances SUBMITTED → PAID on payment confirmation. Idempotent: a
// lost compare-and-set means another confirmation path already advanced the
// application, which is success, not failure.
func (s *Service) MarkPaid(ctx context.Context, appID id.ApplicationID) error {
	moved, err := s.apps.UpdateStatus(ctx, appID, application.StatusSubmitted, application.StatusPaid)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark application paid")
	}
	if moved {
		s.metrics.IncrementTransition(string(application.StatusSubmitted), string(application.StatusPaid))
	}
	return nil
}

// BeginReview moves a PAID application into IN_REVIEW for the officer's LGA.
// Idempotent: reviewing an application already in review or decided is a
// no-op, not an error.
func (s *Service) BeginReview(ctx context.Context, actor *identity.User, appID id.ApplicationID) (*application.Application, error) {
	app, err := s.find(ctx, appID)
	if err != nil {
		return nil, err
	}
	if err := identity.RequireOfficerFor(actor, app.LGAID); err != nil {
		return nil, err
	}
	if app.Status != application.StatusPaid {
		return app, nil
	}

	moved, err := s.apps.UpdateStatus(ctx, app.ID, application.StatusPaid, application.StatusInReview)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to begin review")
	}
	if moved {
		s.metrics.IncrementTransition(string(application.StatusPaid), string(application.StatusInReview))
		app.Status = application.StatusInReview
		s.auditor.Emit(ctx, s.event(ctx, audit.ActionReviewStarted, app))
	} else {
		return s.find(ctx, appID)
	}
	return app, nil
}

// Decide records an officer's verdict. approve triggers certificate issuance
// synchronously; reject terminates; defer keeps the application in review and
// persists the notes only.
func (s *Service) Decide(ctx context.Context, actor *identity.User, appID id.ApplicationID, decision Decision, notes string) (*application.Application, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Decide")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("application.id", appID.Int64()),
		attribute.String("decision", string(decision)),
	)

	app, err := s.find(ctx, appID)
	if err != nil {
		return nil, err
	}
	if err := identity.RequireOfficerFor(actor, app.LGAID); err != nil {
		return nil, err
	}

	// Officers may decide directly off the PAID queue; the review officially
	// begins with the decision.
	if app.Status == application.StatusPaid {
		if _, err := s.apps.UpdateStatus(ctx, app.ID, application.StatusPaid, application.StatusInReview); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to begin review")
		}
		app.Status = application.StatusInReview
	}
	if app.Status != application.StatusInReview {
		return nil, dErrors.Newf(dErrors.CodeInvalidTransition,
			"application is %s, only in-review applications can be decided", app.Status)
	}

	if notes != "" {
		if err := s.apps.SetReviewNotes(ctx, app.ID, notes); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record review notes")
		}
		app.ReviewNotes = notes
	}

	switch decision {
	case DecisionApprove:
		app, err = s.issuer.Issue(ctx, app)
		if err != nil {
			return nil, err
		}
		s.metrics.IncrementDecision(string(DecisionApprove))
		s.metrics.IncrementTransition(string(application.StatusInReview), string(application.StatusApproved))
		s.auditor.Emit(ctx, s.event(ctx, audit.ActionAppApproved, app))
	case DecisionReject:
		moved, err := s.apps.UpdateStatus(ctx, app.ID, application.StatusInReview, application.StatusRejected)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reject application")
		}
		if !moved {
			return nil, dErrors.New(dErrors.CodeConflict, "application state changed, retry")
		}
		app.Status = application.StatusRejected
		s.metrics.IncrementDecision(string(DecisionReject))
		s.metrics.IncrementTransition(string(application.StatusInReview), string(application.StatusRejected))
		s.auditor.Emit(ctx, s.event(ctx, audit.ActionAppRejected, app))
	case DecisionDefer:
		s.metrics.IncrementDecision(string(DecisionDefer))
		s.auditor.Emit(ctx, s.event(ctx, audit.ActionReviewDeferred, app))
	default:
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown decision %q", decision)
	}

	s.logger.InfoContext(ctx, "application decided",
		"application_id", app.ID,
		"officer_id", actor.ID,
		"decision", decision,
		"status", app.Status,
	)
	return app, nil
}

// Get returns an application visible to the actor: its owner, an officer of
// its LGA, or an admin.
func (s *Service) Get(ctx context.Context, actor *identity.User, appID id.ApplicationID) (*application.Application, error) {
	app, err := s.find(ctx, appID)
	if err != nil {
		return nil, err
	}
	if identity.RequireOwner(actor, app.ApplicantID) == nil {
		return app, nil
	}
	if identity.RequireOfficerFor(actor, app.LGAID) == nil {
		return app, nil
	}
	if identity.RequireAdmin(actor) == nil {
		return app, nil
	}
	return nil, identity.ErrForbidden()
}

// ListMine returns the actor's own applications, oldest first.
func (s *Service) ListMine(ctx context.Context, actor *identity.User) ([]*application.Application, error) {
	if err := identity.RequireCitizen(actor); err != nil {
		return nil, err
	}
	apps, err := s.apps.ListByApplicant(ctx, actor.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list applications")
	}
	return apps, nil
}

// ReviewQueue returns the PAID and IN_REVIEW applications for the officer's
// own LGA.
func (s *Service) ReviewQueue(ctx context.Context, actor *identity.User) ([]*application.Application, error) {
	if err := identity.RequireOfficerFor(actor, actor.LGA); err != nil {
		return nil, err
	}
	apps, err := s.apps.ListByLGA(ctx, actor.LGA, application.StatusPaid, application.StatusInReview)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list review queue")
	}
	return apps, nil
}

func (s *Service) ownedApplication(ctx context.Context, actor *identity.User, appID id.ApplicationID) (*application.Application, error) {
	if err := identity.RequireCitizen(actor); err != nil {
		return nil, err
	}
	app, err := s.find(ctx, appID)
	if err != nil {
		return nil, err
	}
	if err := identity.RequireOwner(actor, app.ApplicantID); err != nil {
		return nil, err
	}
	return app, nil
}

func (s *Service) find(ctx context.Context, appID id.ApplicationID) (*application.Application, error) {
	app, err := s.apps.FindByID(ctx, appID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load application")
	}
	return app, nil
}

func (s *Service) requireActiveLGA(ctx context.Context, lgaID id.LGAID) error {
	if lgaID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "local government selection is required")
	}
	area, err := s.lgas.FindByID(ctx, lgaID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeValidation, "unknown local government")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load LGA")
	}
	if !area.Active {
		return dErrors.New(dErrors.CodeValidation, "selected local government is not accepting applications")
	}
	return nil
}

func (s *Service) event(ctx context.Context, action audit.Action, app *application.Application) audit.Event {
	return audit.Event{
		Action:        action,
		ActorID:       requestcontext.UserID(ctx),
		ApplicationID: app.ID,
		LGAID:         app.LGAID,
		RequestID:     requestcontext.RequestID(ctx),
		Device:        requestcontext.Device(ctx),
	}
}

func defaultPlaceOfBirth(place string) string {
	if place == "" {
		return "Not Provided"
	}
	return place
}
