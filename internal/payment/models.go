// Package payment reconciles certificate fees against the gateway: intent
// creation, the browser callback and the asynchronous webhook.
package payment

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	id "lgac/pkg/domain"
)

// Status is the payment's reconciliation state. SUCCESS is terminal and is
// reached at most once, whichever confirmation path gets there first.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Payment is the single fee record for one application. Initiation retries
// refresh the same row with a new reference rather than creating siblings.
type Payment struct {
	ApplicationID id.ApplicationID
	Reference     string
	// AmountKobo is the fee in minor currency units.
	AmountKobo int64
	Status     Status
	// GatewayResponse is the most recent raw gateway payload, kept verbatim
	// for dispute resolution.
	GatewayResponse json.RawMessage
	PaidAt          time.Time
	CreatedAt       time.Time
}

// NewReference mints a globally unique opaque payment reference.
func NewReference() string {
	return "LGAC-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
