// Package store persists portal accounts. Memory and Postgres implementations
// share the Store interface; stores return sentinel errors and leave domain
// error translation to services.
package store

import (
	"context"

	"lgac/internal/identity"
	id "lgac/pkg/domain"
)

// Store is the account persistence contract.
type Store interface {
	// Create inserts a new account. Email, phone and NIN are unique;
	// violations surface as sentinel.ErrConflict.
	Create(ctx context.Context, user *identity.User) error
	FindByID(ctx context.Context, userID id.UserID) (*identity.User, error)
	FindByEmail(ctx context.Context, email string) (*identity.User, error)
	// Update rewrites the mutable fields of an existing account.
	Update(ctx context.Context, user *identity.User) error
}
