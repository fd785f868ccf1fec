package nin

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Credential is the single-use proof that a NIN was verified in this session.
// Signup receives it explicitly and must re-check that the submitted NIN
// equals the verified one, so verifying one NIN and signing up with another
// fails.
type Credential struct {
	Token     uuid.UUID
	NIN       string
	ExpiresAt time.Time
}

// CredentialTTL bounds how long a verification stays usable before signup.
const CredentialTTL = 15 * time.Minute

// CredentialStore persists verification credentials. Consume is single-use:
// a second call for the same token reports sentinel.ErrAlreadyUsed (or
// ErrNotFound for stores that physically delete on read).
type CredentialStore interface {
	Put(ctx context.Context, cred Credential) error
	// Consume removes and returns the credential in one step.
	Consume(ctx context.Context, token uuid.UUID) (*Credential, error)
}

// NewCredential mints a credential for a freshly verified NIN.
func NewCredential(nin string, now time.Time) Credential {
	return Credential{
		Token:     uuid.New(),
		NIN:       nin,
		ExpiresAt: now.Add(CredentialTTL),
	}
}
