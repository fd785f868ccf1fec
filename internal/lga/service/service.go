// Package service owns LGA administration: creation, branding updates and
// the activation gate that keeps incompletely-branded LGAs out of issuance.
package service

import (
	"context"
	"errors"
	"log/slog"

	"lgac/internal/identity"
	"lgac/internal/lga"
	"lgac/internal/lga/store"
	id "lgac/pkg/domain"
	dErrors "lgac/pkg/domain-errors"
	"lgac/pkg/platform/sentinel"
	"lgac/pkg/requestcontext"
)

// Service wraps the LGA store with authorization and invariant checks.
type Service struct {
	store  store.Store
	logger *slog.Logger
}

func New(store store.Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// CreateInput carries the admin-supplied LGA fields.
type CreateInput struct {
	Name                 string
	Code                 string
	SealKey              string
	HLGASignatureKey     string
	ChairmanSignatureKey string
}

// Create registers a new LGA. Admin only. New LGAs start inactive; activation
// is a separate, asset-gated step.
func (s *Service) Create(ctx context.Context, actor *identity.User, in CreateInput) (*lga.LGA, error) {
	if err := identity.RequireAdmin(actor); err != nil {
		return nil, err
	}
	area := &lga.LGA{
		ID:                   id.NewLGAID(),
		Name:                 in.Name,
		Slug:                 lga.Slugify(in.Name),
		Code:                 in.Code,
		SealKey:              in.SealKey,
		HLGASignatureKey:     in.HLGASignatureKey,
		ChairmanSignatureKey: in.ChairmanSignatureKey,
		CreatedAt:            requestcontext.Now(ctx),
	}
	if err := area.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, area); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an LGA with this name or code already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create LGA")
	}
	s.logger.InfoContext(ctx, "lga created",
		"lga_id", area.ID,
		"name", area.Name,
		"actor_id", actor.ID,
	)
	return area, nil
}

// UpdateInput carries mutable LGA fields. Empty asset keys leave the stored
// asset untouched so branding can be uploaded piecemeal.
type UpdateInput struct {
	Name                 string
	Code                 string
	SealKey              string
	HLGASignatureKey     string
	ChairmanSignatureKey string
}

// Update edits an existing LGA. Admin only.
func (s *Service) Update(ctx context.Context, actor *identity.User, lgaID id.LGAID, in UpdateInput) (*lga.LGA, error) {
	if err := identity.RequireAdmin(actor); err != nil {
		return nil, err
	}
	area, err := s.find(ctx, lgaID)
	if err != nil {
		return nil, err
	}
	if in.Name != "" && in.Name != area.Name {
		area.Name = in.Name
		// Slug stays stable; certificate numbers already reference it.
	}
	if in.Code != "" {
		area.Code = in.Code
	}
	if in.SealKey != "" {
		area.SealKey = in.SealKey
	}
	if in.HLGASignatureKey != "" {
		area.HLGASignatureKey = in.HLGASignatureKey
	}
	if in.ChairmanSignatureKey != "" {
		area.ChairmanSignatureKey = in.ChairmanSignatureKey
	}
	if err := area.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, area); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an LGA with this name or code already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update LGA")
	}
	return area, nil
}

// Activate marks an LGA selectable and certificate-ready. The branding assets
// are checked here, not at issuance time: generation later omits missing
// images rather than failing, so this is the officer-facing gate.
func (s *Service) Activate(ctx context.Context, actor *identity.User, lgaID id.LGAID) (*lga.LGA, error) {
	if err := identity.RequireAdmin(actor); err != nil {
		return nil, err
	}
	area, err := s.find(ctx, lgaID)
	if err != nil {
		return nil, err
	}
	if area.Active {
		return area, nil
	}
	area.Active = true
	if err := area.Validate(); err != nil {
		return nil, err
	}
	if err := area.ValidateCertificateAssets(); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, area); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to activate LGA")
	}
	s.logger.InfoContext(ctx, "lga activated", "lga_id", area.ID, "actor_id", actor.ID)
	return area, nil
}

// ListActive returns the LGAs a citizen may apply to. Public.
func (s *Service) ListActive(ctx context.Context) ([]*lga.LGA, error) {
	areas, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list LGAs")
	}
	return areas, nil
}

// Get returns one LGA by id.
func (s *Service) Get(ctx context.Context, lgaID id.LGAID) (*lga.LGA, error) {
	return s.find(ctx, lgaID)
}

func (s *Service) find(ctx context.Context, lgaID id.LGAID) (*lga.LGA, error) {
	area, err := s.store.FindByID(ctx, lgaID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "LGA not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load LGA")
	}
	return area, nil
}
