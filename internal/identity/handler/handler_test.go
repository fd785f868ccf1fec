package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"lgac/internal/identity"
	"lgac/internal/identity/service"
	"lgac/internal/nin"
	id "lgac/pkg/domain"
	dErrors "lgac/pkg/domain-errors"
	"lgac/pkg/requestcontext"
)

type stubService struct {
	cred    *nin.Credential
	auth    *service.AuthResult
	user    *identity.User
	err     error
	lastNIN string
}

func (s *stubService) VerifyNIN(_ context.Context, ninNumber string) (*nin.Credential, error) {
	s.lastNIN = ninNumber
	if s.err != nil {
		return nil, s.err
	}
	return s.cred, nil
}

func (s *stubService) Signup(_ context.Context, _ service.SignupInput) (*service.AuthResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.auth, nil
}

func (s *stubService) Login(_ context.Context, _, _ string) (*service.AuthResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.auth, nil
}

func (s *stubService) CreateUser(_ context.Context, _ *identity.User, _ service.CreateUserInput) (*identity.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func (s *stubService) UpdateProfile(_ context.Context, _ *identity.User, _ service.ProfileInput) (*identity.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

type stubActors struct {
	user *identity.User
}

func (a *stubActors) FindByID(_ context.Context, _ id.UserID) (*identity.User, error) {
	if a.user == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return a.user, nil
}

func citizenFixture() *identity.User {
	return &identity.User{
		ID:          id.NewUserID(),
		FullName:    "Adaeze Okon",
		Email:       "adaeze@example.com",
		Phone:       "+2348011111111",
		NIN:         "12345678901",
		NINVerified: true,
		Role:        identity.RoleCitizen,
		CreatedAt:   time.Now(),
	}
}

func newRouter(svc Service, actors ActorLoader) chi.Router {
	h := New(svc, actors, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.RegisterPublic(r)
	h.RegisterCitizen(r)
	h.RegisterAdmin(r)
	return r
}

func postJSON(router chi.Router, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleVerifyNIN(t *testing.T) {
	t.Run("returns the verification token", func(t *testing.T) {
		cred := nin.NewCredential("12345678901", time.Now())
		svc := &stubService{cred: &cred}
		router := newRouter(svc, &stubActors{})

		rec := postJSON(router, "/auth/nin-verify", `{"nin":"12345678901"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, cred.Token.String(), body["verification_token"])
		require.Equal(t, "12345678901", svc.lastNIN)
	})

	t.Run("verification failure is a 400", func(t *testing.T) {
		svc := &stubService{err: dErrors.New(dErrors.CodeValidation, "NIN could not be verified")}
		router := newRouter(svc, &stubActors{})

		rec := postJSON(router, "/auth/nin-verify", `{"nin":"12345678901"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleSignup(t *testing.T) {
	citizen := citizenFixture()
	auth := &service.AuthResult{User: citizen, AccessToken: "signed.jwt.token", ExpiresAt: time.Now().Add(time.Hour)}

	t.Run("creates the account and signs in", func(t *testing.T) {
		router := newRouter(&stubService{auth: auth}, &stubActors{})

		rec := postJSON(router, "/auth/signup",
			`{"verification_token":"`+uuid.NewString()+`","full_name":"Adaeze Okon","email":"adaeze@example.com","phone":"+2348011111111","nin":"12345678901","password":"long enough"}`)

		require.Equal(t, http.StatusCreated, rec.Code)
		var body struct {
			AccessToken string `json:"access_token"`
			User        struct {
				Role string `json:"role"`
			} `json:"user"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "signed.jwt.token", body.AccessToken)
		require.Equal(t, "CITIZEN", body.User.Role)
	})

	t.Run("malformed verification token is rejected before the service", func(t *testing.T) {
		router := newRouter(&stubService{auth: auth}, &stubActors{})

		rec := postJSON(router, "/auth/signup", `{"verification_token":"not-a-uuid","nin":"12345678901"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleLogin(t *testing.T) {
	t.Run("bad credentials are a 401", func(t *testing.T) {
		svc := &stubService{err: dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")}
		router := newRouter(svc, &stubActors{})

		rec := postJSON(router, "/auth/login", `{"email":"a@example.com","password":"wrong"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid credentials return a token", func(t *testing.T) {
		citizen := citizenFixture()
		svc := &stubService{auth: &service.AuthResult{User: citizen, AccessToken: "signed.jwt.token", ExpiresAt: time.Now()}}
		router := newRouter(svc, &stubActors{})

		rec := postJSON(router, "/auth/login", `{"email":"adaeze@example.com","password":"right"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHandleMe(t *testing.T) {
	citizen := citizenFixture()

	t.Run("requires authentication", func(t *testing.T) {
		router := newRouter(&stubService{}, &stubActors{user: citizen})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("returns the actor's own profile", func(t *testing.T) {
		router := newRouter(&stubService{}, &stubActors{user: citizen})

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req = req.WithContext(requestcontext.WithUserID(req.Context(), citizen.ID))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, citizen.Email, body["email"])
		require.Equal(t, true, body["nin_verified"])
	})
}

func TestHandleCreateUser(t *testing.T) {
	admin := &identity.User{ID: id.NewUserID(), Role: identity.RoleAdmin, CreatedAt: time.Now()}
	officer := &identity.User{
		ID:        id.NewUserID(),
		FullName:  "Officer Bassey",
		Email:     "bassey@example.com",
		Phone:     "+2348022222222",
		Role:      identity.RoleLGAOfficer,
		LGA:       id.NewLGAID(),
		CreatedAt: time.Now(),
	}

	t.Run("provisions an officer", func(t *testing.T) {
		router := newRouter(&stubService{user: officer}, &stubActors{user: admin})

		req := httptest.NewRequest(http.MethodPost, "/admin/users",
			strings.NewReader(`{"full_name":"Officer Bassey","email":"bassey@example.com","phone":"+2348022222222","role":"LGA_OFFICER","lga_id":"`+officer.LGA.String()+`","password":"long enough"}`))
		req.Header.Set("Content-Type", "application/json")
		req = req.WithContext(requestcontext.WithUserID(req.Context(), admin.ID))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "LGA_OFFICER", body["role"])
		require.Equal(t, officer.LGA.String(), body["lga_id"])
	})

	t.Run("requires authentication", func(t *testing.T) {
		router := newRouter(&stubService{user: officer}, &stubActors{user: admin})

		rec := postJSON(router, "/admin/users", `{"role":"LGA_OFFICER"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
