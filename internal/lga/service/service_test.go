package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"lgac/internal/identity"
	"lgac/internal/lga/store"
	id "lgac/pkg/domain"
	dErrors "lgac/pkg/domain-errors"
)

func newService(t *testing.T) (*Service, *store.InMemory) {
	t.Helper()
	st := store.NewInMemory()
	return New(st, slog.New(slog.NewTextHandler(io.Discard, nil))), st
}

func admin() *identity.User {
	return &identity.User{ID: id.NewUserID(), Role: identity.RoleAdmin}
}

func citizen() *identity.User {
	return &identity.User{ID: id.NewUserID(), Role: identity.RoleCitizen}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("admin creates an inactive LGA with a derived slug", func(t *testing.T) {
		svc, _ := newService(t)
		area, err := svc.Create(ctx, admin(), CreateInput{Name: "Akwa South", Code: "AKS"})
		require.NoError(t, err)
		require.Equal(t, "akwa-south", area.Slug)
		require.False(t, area.Active)
	})

	t.Run("rejects non-admin actors", func(t *testing.T) {
		svc, _ := newService(t)
		_, err := svc.Create(ctx, citizen(), CreateInput{Name: "Uyo"})
		require.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("rejects blank names", func(t *testing.T) {
		svc, _ := newService(t)
		_, err := svc.Create(ctx, admin(), CreateInput{Name: "  "})
		require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("surfaces duplicates as conflicts", func(t *testing.T) {
		svc, _ := newService(t)
		_, err := svc.Create(ctx, admin(), CreateInput{Name: "Eket", Code: "EKT"})
		require.NoError(t, err)
		_, err = svc.Create(ctx, admin(), CreateInput{Name: "Eket", Code: "EK2"})
		require.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func TestActivate(t *testing.T) {
	ctx := context.Background()

	t.Run("refuses activation while branding assets are missing", func(t *testing.T) {
		svc, _ := newService(t)
		area, err := svc.Create(ctx, admin(), CreateInput{Name: "Oron", Code: "ORN", SealKey: "seal.png"})
		require.NoError(t, err)

		_, err = svc.Activate(ctx, admin(), area.ID)
		require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		require.Contains(t, dErrors.DescriptionOf(err), "HLGA signature")
		require.Contains(t, dErrors.DescriptionOf(err), "chairman signature")
	})

	t.Run("refuses activation without an official code", func(t *testing.T) {
		svc, _ := newService(t)
		area, err := svc.Create(ctx, admin(), CreateInput{
			Name:                 "Ibiono",
			SealKey:              "seal.png",
			HLGASignatureKey:     "hlga.png",
			ChairmanSignatureKey: "chairman.png",
		})
		require.NoError(t, err)

		_, err = svc.Activate(ctx, admin(), area.ID)
		require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("activates a fully-branded LGA and is idempotent", func(t *testing.T) {
		svc, _ := newService(t)
		area, err := svc.Create(ctx, admin(), CreateInput{
			Name:                 "Uyo",
			Code:                 "UYO",
			SealKey:              "seal.png",
			HLGASignatureKey:     "hlga.png",
			ChairmanSignatureKey: "chairman.png",
		})
		require.NoError(t, err)

		area, err = svc.Activate(ctx, admin(), area.ID)
		require.NoError(t, err)
		require.True(t, area.Active)

		area, err = svc.Activate(ctx, admin(), area.ID)
		require.NoError(t, err)
		require.True(t, area.Active)
	})

	t.Run("returns not found for unknown LGAs", func(t *testing.T) {
		svc, _ := newService(t)
		_, err := svc.Activate(ctx, admin(), id.NewLGAID())
		require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps the slug stable across renames", func(t *testing.T) {
		svc, _ := newService(t)
		area, err := svc.Create(ctx, admin(), CreateInput{Name: "Ikot Ekpene", Code: "IKE"})
		require.NoError(t, err)

		updated, err := svc.Update(ctx, admin(), area.ID, UpdateInput{Name: "Ikot-Ekpene Municipal"})
		require.NoError(t, err)
		require.Equal(t, "Ikot-Ekpene Municipal", updated.Name)
		require.Equal(t, "ikot-ekpene", updated.Slug)
	})

	t.Run("empty asset keys leave stored assets untouched", func(t *testing.T) {
		svc, _ := newService(t)
		area, err := svc.Create(ctx, admin(), CreateInput{Name: "Abak", Code: "ABK", SealKey: "seal.png"})
		require.NoError(t, err)

		updated, err := svc.Update(ctx, admin(), area.ID, UpdateInput{HLGASignatureKey: "hlga.png"})
		require.NoError(t, err)
		require.Equal(t, "seal.png", updated.SealKey)
		require.Equal(t, "hlga.png", updated.HLGASignatureKey)
	})
}

func TestListActive(t *testing.T) {
	ctx := context.Background()

	t.Run("lists only activated LGAs", func(t *testing.T) {
		svc, _ := newService(t)
		_, err := svc.Create(ctx, admin(), CreateInput{Name: "Eket", Code: "EKT"})
		require.NoError(t, err)
		area, err := svc.Create(ctx, admin(), CreateInput{
			Name:                 "Uyo",
			Code:                 "UYO",
			SealKey:              "seal.png",
			HLGASignatureKey:     "hlga.png",
			ChairmanSignatureKey: "chairman.png",
		})
		require.NoError(t, err)
		_, err = svc.Activate(ctx, admin(), area.ID)
		require.NoError(t, err)

		areas, err := svc.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, areas, 1)
		require.Equal(t, "Uyo", areas[0].Name)
	})
}
