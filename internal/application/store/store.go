// Package store persists certificate applications.
package store

import (
	"context"
	"time"

	"lgac/internal/application"
	id "lgac/pkg/domain"
)

// Store is the persistence contract for applications.
//
// UpdateStatus and SetCertificate carry compare-and-set semantics so that
// racing confirmation paths (payment callback vs webhook, double-clicked
// approvals) can never move an application twice.
type Store interface {
	// Create persists a new draft and assigns its serial ID.
	Create(ctx context.Context, app *application.Application) error
	// Update persists applicant-editable fields and the snapshot.
	Update(ctx context.Context, app *application.Application) error
	FindByID(ctx context.Context, appID id.ApplicationID) (*application.Application, error)
	// FindByHash looks an application up by certificate hash. Callers decide
	// what a hit means; the store does not filter by status.
	FindByHash(ctx context.Context, hash string) (*application.Application, error)
	ListByApplicant(ctx context.Context, applicant id.UserID) ([]*application.Application, error)
	// ListByLGA returns the review queue for an LGA, optionally filtered to
	// the given statuses, oldest first.
	ListByLGA(ctx context.Context, lga id.LGAID, statuses ...application.Status) ([]*application.Application, error)

	// UpdateStatus atomically moves the application from exactly `from` to
	// `to`, reporting whether the write won. A false return with nil error
	// means another writer got there first or the state had already moved on.
	UpdateStatus(ctx context.Context, appID id.ApplicationID, from, to application.Status) (bool, error)
	// SetCertificate assigns certificate number and hash together, only if no
	// number has ever been assigned. Write-once: a false return means the
	// certificate metadata already exists and must not be regenerated.
	SetCertificate(ctx context.Context, appID id.ApplicationID, number, hash string, approvedAt time.Time) (bool, error)
	// SetReviewNotes persists officer notes without touching status.
	SetReviewNotes(ctx context.Context, appID id.ApplicationID, notes string) error
}
