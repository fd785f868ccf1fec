package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"lgac/internal/identity"
	"lgac/internal/lga"
	"lgac/internal/lga/handler"
	"lgac/internal/lga/service"
	"lgac/internal/lga/store"
	id "lgac/pkg/domain"
	dErrors "lgac/pkg/domain-errors"
	"lgac/pkg/testutil"
)

type stubActors struct {
	users map[id.UserID]*identity.User
}

func (s *stubActors) FindByID(_ context.Context, userID id.UserID) (*identity.User, error) {
	if u, ok := s.users[userID]; ok {
		return u, nil
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
}

type fixture struct {
	router *chi.Mux
	lgas   *store.InMemory
	admin  *identity.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	lgas := store.NewInMemory()
	svc := service.New(lgas, logger)

	admin := &identity.User{
		ID:        id.NewUserID(),
		FullName:  "Portal Admin",
		Email:     "admin@example.gov.ng",
		Phone:     "+2348011111111",
		Role:      identity.RoleAdmin,
		CreatedAt: time.Now(),
	}
	citizen := &identity.User{
		ID:       id.NewUserID(),
		FullName: "Ngozi Eze",
		Email:    "ngozi@example.com",
		Phone:    "+2348022222222",
		Role:     identity.RoleCitizen,
	}

	actors := &stubActors{users: map[id.UserID]*identity.User{
		admin.ID:   admin,
		citizen.ID: citizen,
	}}

	h := handler.New(svc, actors, logger)
	router := chi.NewRouter()
	h.RegisterPublic(router)
	h.RegisterAdmin(router)

	return &fixture{router: router, lgas: lgas, admin: admin}
}

func (f *fixture) seedActive(t *testing.T, name, code string) *lga.LGA {
	t.Helper()
	area := &lga.LGA{
		ID:                   id.NewLGAID(),
		Name:                 name,
		Slug:                 lga.Slugify(name),
		Code:                 code,
		Active:               true,
		SealKey:              "assets/seal.png",
		HLGASignatureKey:     "assets/hlga.png",
		ChairmanSignatureKey: "assets/chairman.png",
		CreatedAt:            time.Now(),
	}
	require.NoError(t, f.lgas.Create(context.Background(), area))
	return area
}

func TestHandleList(t *testing.T) {
	f := newFixture(t)
	f.seedActive(t, "Akure South", "AKS")

	rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodGet, "/lgas", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body := testutil.DecodeResponse[struct {
		LGAs []struct {
			Name             string `json:"name"`
			Slug             string `json:"slug"`
			Active           bool   `json:"active"`
			CertificateReady bool   `json:"certificate_ready"`
		} `json:"lgas"`
	}](t, rr)
	require.Len(t, body.LGAs, 1)
	require.Equal(t, "Akure South", body.LGAs[0].Name)
	require.Equal(t, "akure-south", body.LGAs[0].Slug)
	require.True(t, body.LGAs[0].Active)
	require.True(t, body.LGAs[0].CertificateReady)
}

func TestHandleCreate(t *testing.T) {
	f := newFixture(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/admin/lgas", map[string]string{
		"name": "Ondo West",
		"code": "ODW",
	})
	req = testutil.WithActor(req, f.admin.ID.String(), string(identity.RoleAdmin))

	rr := testutil.DoRequest(f.router, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	body := testutil.DecodeResponse[struct {
		ID               string `json:"id"`
		Slug             string `json:"slug"`
		Active           bool   `json:"active"`
		CertificateReady bool   `json:"certificate_ready"`
	}](t, rr)
	require.Equal(t, "ondo-west", body.Slug)
	require.False(t, body.Active, "new LGAs start inactive")
	require.False(t, body.CertificateReady, "no branding assets yet")
}

func TestHandleCreateUnauthenticated(t *testing.T) {
	f := newFixture(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/admin/lgas", map[string]string{"name": "Ondo West"})
	rr := testutil.DoRequest(f.router, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "unauthorized", testutil.ErrorCode(t, rr))
}

func TestHandleActivateRequiresBranding(t *testing.T) {
	f := newFixture(t)

	// Create without any asset keys, then try to activate.
	req := testutil.NewJSONRequest(t, http.MethodPost, "/admin/lgas", map[string]string{
		"name": "Ifedore",
		"code": "IFD",
	})
	req = testutil.WithActor(req, f.admin.ID.String(), string(identity.RoleAdmin))
	rr := testutil.DoRequest(f.router, req)
	require.Equal(t, http.StatusCreated, rr.Code)
	created := testutil.DecodeResponse[struct {
		ID string `json:"id"`
	}](t, rr)

	activate := testutil.NewJSONRequest(t, http.MethodPost, "/admin/lgas/"+created.ID+"/activate", nil)
	activate = testutil.WithActor(activate, f.admin.ID.String(), string(identity.RoleAdmin))
	rr = testutil.DoRequest(f.router, activate)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "validation_error", testutil.ErrorCode(t, rr))
}

func TestHandleUpdateBadID(t *testing.T) {
	f := newFixture(t)

	req := testutil.NewJSONRequest(t, http.MethodPatch, "/admin/lgas/not-a-uuid", map[string]string{"name": "X"})
	req = testutil.WithActor(req, f.admin.ID.String(), string(identity.RoleAdmin))
	rr := testutil.DoRequest(f.router, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}
