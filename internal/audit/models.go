// Package audit records who did what to which application. Events are
// emitted from domain services and fanned out to configured sinks.
package audit

import (
	"time"

	id "lgac/pkg/domain"
)

// Action identifies the audited operation.
type Action string

const (
	ActionUserCreated    Action = "user_created"
	ActionUserLogin      Action = "user_login"
	ActionNINVerified    Action = "nin_verified"
	ActionLGACreated     Action = "lga_created"
	ActionLGAActivated   Action = "lga_activated"
	ActionAppSubmitted   Action = "application_submitted"
	ActionAppWithdrawn   Action = "application_withdrawn"
	ActionReviewStarted  Action = "review_started"
	ActionReviewDeferred Action = "review_deferred"
	ActionAppApproved    Action = "application_approved"
	ActionAppRejected    Action = "application_rejected"
	ActionPaymentStarted Action = "payment_initiated"
	ActionPaymentSuccess Action = "payment_confirmed"
	ActionPaymentFailed  Action = "payment_failed"
	ActionCertIssued     Action = "certificate_issued"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp     time.Time        `json:"timestamp"`
	Action        Action           `json:"action"`
	ActorID       id.UserID        `json:"actor_id,omitempty"`
	ApplicationID id.ApplicationID `json:"application_id,omitempty"`
	LGAID         id.LGAID         `json:"lga_id,omitempty"`
	// Reference carries the payment reference for payment events.
	Reference string `json:"reference,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	// Device is the summarized user agent of the originating request.
	Device string `json:"device,omitempty"`
	Detail string `json:"detail,omitempty"`
}
