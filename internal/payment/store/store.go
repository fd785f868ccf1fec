// Package store persists payment records.
package store

import (
	"context"
	"encoding/json"
	"time"

	"lgac/internal/payment"
	id "lgac/pkg/domain"
)

// Store is the persistence contract for payments.
//
// MarkSuccess and MarkFailed are compare-and-set writes serialized on the
// payment row: SUCCESS is terminal and is never overwritten, no matter how
// many callbacks and webhooks race for the same reference.
type Store interface {
	// Upsert creates or refreshes the single payment row for an application.
	Upsert(ctx context.Context, p *payment.Payment) error
	FindByReference(ctx context.Context, reference string) (*payment.Payment, error)
	FindByApplication(ctx context.Context, appID id.ApplicationID) (*payment.Payment, error)
	// MarkSuccess moves the payment to SUCCESS unless it already is, storing
	// the gateway payload and paid timestamp. Returns whether this call won
	// the transition.
	MarkSuccess(ctx context.Context, reference string, payload json.RawMessage, paidAt time.Time) (bool, error)
	// MarkFailed moves the payment to FAILED unless it has already succeeded.
	MarkFailed(ctx context.Context, reference string, payload json.RawMessage) (bool, error)
}
