// Package store persists Local Government Areas.
package store

import (
	"context"

	"lgac/internal/lga"
	id "lgac/pkg/domain"
)

// Store is the LGA persistence contract. Name and code are unique;
// violations surface as sentinel.ErrConflict.
type Store interface {
	Create(ctx context.Context, area *lga.LGA) error
	Update(ctx context.Context, area *lga.LGA) error
	FindByID(ctx context.Context, lgaID id.LGAID) (*lga.LGA, error)
	// ListActive returns selectable LGAs ordered by name.
	ListActive(ctx context.Context) ([]*lga.LGA, error)
}
