package certificate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"lgac/internal/application"
	appstore "lgac/internal/application/store"
	"lgac/internal/audit"
	"lgac/internal/certificate/metrics"
	certstore "lgac/internal/certificate/store"
	"lgac/internal/identity"
	"lgac/internal/lga"
	lgastore "lgac/internal/lga/store"
	id "lgac/pkg/domain"
	dErrors "lgac/pkg/domain-errors"
	"lgac/pkg/platform/sentinel"
	"lgac/pkg/platform/tx"
	"lgac/pkg/requestcontext"
)

const tracerName = "lgac/certificate"

// AuditEmitter receives issuance audit events.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event)
}

// Engine assigns certificate numbers, renders the document and answers
// public verification lookups. It implements the application lifecycle's
// Issuer.
//
// The number, hash and APPROVED status land in a single transaction; the PDF
// is rendered after commit and re-rendering is skipped when the document
// already exists, so a crashed render can be retried safely.
type Engine struct {
	db        *sql.DB
	apps      appstore.Store
	lgas      lgastore.Store
	renderer  Renderer
	documents certstore.DocumentStore
	assets    certstore.AssetStore
	auditor   AuditEmitter
	logger    *slog.Logger
	metrics   *metrics.Metrics
	siteURL   string
}

func NewEngine(db *sql.DB, apps appstore.Store, lgas lgastore.Store, renderer Renderer,
	documents certstore.DocumentStore, assets certstore.AssetStore,
	auditor AuditEmitter, logger *slog.Logger, m *metrics.Metrics, siteURL string) *Engine {
	return &Engine{
		db:        db,
		apps:      apps,
		lgas:      lgas,
		renderer:  renderer,
		documents: documents,
		assets:    assets,
		auditor:   auditor,
		logger:    logger,
		metrics:   m,
		siteURL:   strings.TrimRight(siteURL, "/"),
	}
}

// Issue finalizes an approval: certificate number and hash are written once,
// the status moves to APPROVED atomically with them, and the document is
// rendered into storage. Calling Issue again for the same application is a
// no-op that returns the already-issued record.
func (e *Engine) Issue(ctx context.Context, app *application.Application) (*application.Application, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Issue")
	defer span.End()
	span.SetAttributes(attribute.Int64("application.id", app.ID.Int64()))

	area, err := e.lgas.FindByID(ctx, app.LGAID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load issuing LGA")
	}
	if err := area.ValidateCertificateAssets(); err != nil {
		return nil, err
	}

	firstIssue := app.CertificateNumber == ""
	if firstIssue {
		if err := e.assign(ctx, app, area.Code); err != nil {
			return nil, err
		}
	}
	app, err = e.apps.FindByID(ctx, app.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reload application")
	}

	if err := e.render(ctx, app, area); err != nil {
		return nil, err
	}

	if !firstIssue {
		return app, nil
	}

	e.metrics.IncrementIssued()
	e.auditor.Emit(ctx, audit.Event{
		Action:        audit.ActionCertIssued,
		ActorID:       requestcontext.UserID(ctx),
		ApplicationID: app.ID,
		LGAID:         app.LGAID,
		RequestID:     requestcontext.RequestID(ctx),
		Device:        requestcontext.Device(ctx),
		Detail:        app.CertificateNumber,
	})
	e.logger.InfoContext(ctx, "certificate issued",
		"application_id", app.ID,
		"certificate_number", app.CertificateNumber,
	)
	return app, nil
}

// assign writes the certificate fields and the APPROVED status together. The
// number embeds the LGA code and the year the application was created, so it
// is fully determined by data that never changes after submission.
func (e *Engine) assign(ctx context.Context, app *application.Application, lgaCode string) error {
	number := Number(lgaCode, app.CreatedAt.Year(), app.ID)
	hash := ContentHash(app.ID, number, app.ApplicantID)
	approvedAt := requestcontext.Now(ctx)

	err := tx.Run(ctx, e.db, func(ctx context.Context) error {
		won, err := e.apps.SetCertificate(ctx, app.ID, number, hash, approvedAt)
		if err != nil {
			return fmt.Errorf("set certificate: %w", err)
		}
		if !won {
			// A concurrent approval already assigned the certificate.
			return nil
		}
		moved, err := e.apps.UpdateStatus(ctx, app.ID, application.StatusInReview, application.StatusApproved)
		if err != nil {
			return fmt.Errorf("approve application: %w", err)
		}
		if !moved {
			return sentinel.ErrInvalidState
		}
		return nil
	})
	if errors.Is(err, sentinel.ErrInvalidState) {
		return dErrors.New(dErrors.CodeConflict, "application state changed during approval, retry")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to finalize approval")
	}
	return nil
}

func (e *Engine) render(ctx context.Context, app *application.Application, area *lga.LGA) error {
	path := DocumentPath(app.ID, app.CertificateHash)
	exists, err := e.documents.Exists(ctx, path)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check certificate document")
	}
	if exists {
		return nil
	}

	assets := e.fetchAssets(ctx, app, area)
	start := time.Now()
	document, err := e.renderer.Render(app, area, assets, VerificationURL(e.siteURL, app.CertificateHash))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to render certificate")
	}
	e.metrics.ObserveRender(time.Since(start))

	if err := e.documents.Put(ctx, path, document); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store certificate document")
	}
	return nil
}

// fetchAssets loads the embedded images concurrently. A missing or unreadable
// image is logged and its slot left empty; it never blocks issuance.
func (e *Engine) fetchAssets(ctx context.Context, app *application.Application, area *lga.LGA) Assets {
	var assets Assets
	g, gctx := errgroup.WithContext(ctx)
	fetch := func(key, label string, dst *[]byte) {
		if key == "" {
			return
		}
		g.Go(func() error {
			data, err := e.assets.Get(gctx, key)
			if err != nil {
				e.logger.WarnContext(gctx, "certificate asset unavailable",
					"asset", label, "key", key, "error", err)
				return nil
			}
			*dst = data
			return nil
		})
	}
	fetch(app.PassportPhotoKey, "passport_photo", &assets.PassportPhoto)
	fetch(area.SealKey, "official_seal", &assets.Seal)
	fetch(area.HLGASignatureKey, "hlga_signature", &assets.HLGASignature)
	fetch(area.ChairmanSignatureKey, "chairman_signature", &assets.ChairmanSignature)
	_ = g.Wait()
	return assets
}

// Verification is the public view of an issued certificate. It deliberately
// exposes only what the paper document already shows.
type Verification struct {
	CertificateNumber string
	FullName          string
	LGAName           string
	IssuedAt          time.Time
	Hash              string
}

// VerifyByHash answers the public lookup. Unknown hashes and applications in
// any non-APPROVED state produce the same not-found error: a verifier learns
// nothing about rejected, withdrawn or in-flight applications.
func (e *Engine) VerifyByHash(ctx context.Context, hash string) (*Verification, error) {
	app, err := e.apps.FindByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			e.metrics.IncrementVerifyLookup("not_found")
			return nil, errCertificateNotFound()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up certificate")
	}
	if app.Status != application.StatusApproved {
		e.metrics.IncrementVerifyLookup("not_found")
		return nil, errCertificateNotFound()
	}

	area, err := e.lgas.FindByID(ctx, app.LGAID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load issuing LGA")
	}

	e.metrics.IncrementVerifyLookup("valid")
	return &Verification{
		CertificateNumber: app.CertificateNumber,
		FullName:          app.FullName,
		LGAName:           area.Name,
		IssuedAt:          app.ApprovedAt,
		Hash:              app.CertificateHash,
	}, nil
}

// Download returns the stored certificate PDF for the application's owner.
func (e *Engine) Download(ctx context.Context, actor *identity.User, appID id.ApplicationID) ([]byte, string, error) {
	app, err := e.apps.FindByID(ctx, appID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, "", dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load application")
	}
	if identity.RequireOwner(actor, app.ApplicantID) != nil && identity.RequireAdmin(actor) != nil {
		return nil, "", identity.ErrForbidden()
	}
	if app.Status != application.StatusApproved {
		return nil, "", errCertificateNotFound()
	}

	document, err := e.documents.Get(ctx, DocumentPath(app.ID, app.CertificateHash))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, "", errCertificateNotFound()
		}
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load certificate document")
	}

	filename := fmt.Sprintf("%s.pdf", strings.ReplaceAll(app.CertificateNumber, "/", "_"))
	return document, filename, nil
}

func errCertificateNotFound() error {
	return dErrors.New(dErrors.CodeNotFound, "certificate not found")
}
