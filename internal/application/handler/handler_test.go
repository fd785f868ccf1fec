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

	"lgac/internal/application"
	"lgac/internal/application/handler"
	"lgac/internal/application/service"
	"lgac/internal/application/store"
	"lgac/internal/audit"
	"lgac/internal/identity"
	identitystore "lgac/internal/identity/store"
	"lgac/internal/lga"
	lgastore "lgac/internal/lga/store"
	id "lgac/pkg/domain"
	"lgac/pkg/testutil"
)

type nopAuditor struct{}

func (nopAuditor) Emit(context.Context, audit.Event) {}

// stubIssuer stands in for the certificate engine: approve just stamps
// certificate metadata and moves the application to APPROVED.
type stubIssuer struct {
	apps *store.InMemory
}

func (s *stubIssuer) Issue(ctx context.Context, app *application.Application) (*application.Application, error) {
	app.Status = application.StatusApproved
	app.CertificateNumber = "LGAC/AKS/2026/000001"
	app.CertificateHash = "deadbeef"
	app.ApprovedAt = time.Now()
	if err := s.apps.Update(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

type fixture struct {
	router  *chi.Mux
	apps    *store.InMemory
	users   *identitystore.InMemory
	area    *lga.LGA
	citizen *identity.User
	officer *identity.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	apps := store.NewInMemory()
	users := identitystore.NewInMemory()
	lgas := lgastore.NewInMemory()

	area := &lga.LGA{
		ID:                   id.NewLGAID(),
		Name:                 "Akure South",
		Slug:                 "akure-south",
		Code:                 "AKS",
		Active:               true,
		SealKey:              "assets/seal.png",
		HLGASignatureKey:     "assets/hlga.png",
		ChairmanSignatureKey: "assets/chairman.png",
		CreatedAt:            time.Now(),
	}
	require.NoError(t, lgas.Create(context.Background(), area))

	citizen := &identity.User{
		ID:          id.NewUserID(),
		FullName:    "Tunde Bakare",
		Email:       "tunde@example.com",
		Phone:       "+2348033333333",
		NIN:         "12345678901",
		NINVerified: true,
		Role:        identity.RoleCitizen,
		CreatedAt:   time.Now(),
	}
	officer := &identity.User{
		ID:        id.NewUserID(),
		FullName:  "Bisi Adeyemi",
		Email:     "bisi@akuresouth.gov.ng",
		Phone:     "+2348044444444",
		Role:      identity.RoleLGAOfficer,
		LGA:       area.ID,
		CreatedAt: time.Now(),
	}
	require.NoError(t, users.Create(context.Background(), citizen))
	require.NoError(t, users.Create(context.Background(), officer))

	svc := service.New(apps, users, lgas, &stubIssuer{apps: apps}, nopAuditor{}, logger, nil)
	h := handler.New(svc, users, logger)

	router := chi.NewRouter()
	h.RegisterCitizen(router)
	h.RegisterOfficer(router)

	return &fixture{router: router, apps: apps, users: users, area: area, citizen: citizen, officer: officer}
}

func (f *fixture) completeDraft() map[string]string {
	return map[string]string{
		"lga_id":             f.area.ID.String(),
		"date_of_birth":      "1990-06-02",
		"place_of_birth":     "Akure",
		"home_town":          "Akure",
		"family_compound":    "Bakare Compound, Oke-Aro",
		"father_name":        "Adewale Bakare",
		"mother_name":        "Folake Bakare",
		"purpose":            "passport application",
		"passport_photo_key": "photos/tunde.jpg",
	}
}

type appResponse struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	FullName          string `json:"full_name"`
	NIN               string `json:"nin"`
	CertificateNumber string `json:"certificate_number"`
	CreatedAt         string `json:"created_at"`
}

func (f *fixture) createDraft(t *testing.T, body map[string]string) appResponse {
	t.Helper()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/applications", body)
	req = testutil.WithUserID(req, f.citizen.ID.String())
	rr := testutil.DoRequest(f.router, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return testutil.DecodeResponse[appResponse](t, rr)
}

func TestHandleCreateDraft(t *testing.T) {
	f := newFixture(t)

	at := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	req := testutil.NewJSONRequest(t, http.MethodPost, "/applications", map[string]string{
		"lga_id": f.area.ID.String(),
	})
	req = testutil.WithUserID(req, f.citizen.ID.String())
	req = testutil.WithRequestTime(req, at)

	rr := testutil.DoRequest(f.router, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	body := testutil.DecodeResponse[appResponse](t, rr)
	require.Equal(t, string(application.StatusDraft), body.Status)
	require.Empty(t, body.NIN, "no snapshot before submission")
	require.Equal(t, at.Format(time.RFC3339), body.CreatedAt)
}

func TestHandleCreateUnauthenticated(t *testing.T) {
	f := newFixture(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/applications", map[string]string{
		"lga_id": f.area.ID.String(),
	})
	rr := testutil.DoRequest(f.router, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "unauthorized", testutil.ErrorCode(t, rr))
}

func TestHandleCreateBadDateOfBirth(t *testing.T) {
	f := newFixture(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/applications", map[string]string{
		"lga_id":        f.area.ID.String(),
		"date_of_birth": "02/06/1990",
	})
	req = testutil.WithUserID(req, f.citizen.ID.String())
	rr := testutil.DoRequest(f.router, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "validation_error", testutil.ErrorCode(t, rr))
}

func TestHandleSubmitFreezesSnapshot(t *testing.T) {
	f := newFixture(t)
	draft := f.createDraft(t, f.completeDraft())

	req := testutil.NewJSONRequest(t, http.MethodPost, "/applications/"+draft.ID+"/submit", nil)
	req = testutil.WithUserID(req, f.citizen.ID.String())
	rr := testutil.DoRequest(f.router, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := testutil.DecodeResponse[appResponse](t, rr)
	require.Equal(t, string(application.StatusSubmitted), body.Status)
	require.Equal(t, f.citizen.FullName, body.FullName)
	require.Equal(t, f.citizen.NIN, body.NIN)
}

func TestHandleSubmitIncompleteDraft(t *testing.T) {
	f := newFixture(t)
	draft := f.createDraft(t, map[string]string{"lga_id": f.area.ID.String()})

	req := testutil.NewJSONRequest(t, http.MethodPost, "/applications/"+draft.ID+"/submit", nil)
	req = testutil.WithUserID(req, f.citizen.ID.String())
	rr := testutil.DoRequest(f.router, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "validation_error", testutil.ErrorCode(t, rr))
}

func TestHandleWithdrawDraftRejected(t *testing.T) {
	f := newFixture(t)
	draft := f.createDraft(t, f.completeDraft())

	req := testutil.NewJSONRequest(t, http.MethodPost, "/applications/"+draft.ID+"/withdraw", nil)
	req = testutil.WithUserID(req, f.citizen.ID.String())
	rr := testutil.DoRequest(f.router, req)

	require.Equal(t, http.StatusConflict, rr.Code)
	require.Equal(t, "invalid_transition", testutil.ErrorCode(t, rr))
}

func TestHandleGetForeignApplicationForbidden(t *testing.T) {
	f := newFixture(t)
	draft := f.createDraft(t, f.completeDraft())

	other := &identity.User{
		ID:       id.NewUserID(),
		FullName: "Ngozi Eze",
		Email:    "ngozi@example.com",
		Phone:    "+2348055555555",
		Role:     identity.RoleCitizen,
	}
	require.NoError(t, f.users.Create(context.Background(), other))

	req := testutil.NewJSONRequest(t, http.MethodGet, "/applications/"+draft.ID, nil)
	req = testutil.WithUserID(req, other.ID.String())
	rr := testutil.DoRequest(f.router, req)

	require.Equal(t, http.StatusForbidden, rr.Code)
	require.Equal(t, "forbidden", testutil.ErrorCode(t, rr))
}

func TestHandleReviewQueueCitizenForbidden(t *testing.T) {
	f := newFixture(t)

	req := testutil.NewJSONRequest(t, http.MethodGet, "/lga/applications", nil)
	req = testutil.WithUserID(req, f.citizen.ID.String())
	rr := testutil.DoRequest(f.router, req)

	require.Equal(t, http.StatusForbidden, rr.Code)
	require.Equal(t, "forbidden", testutil.ErrorCode(t, rr))
}

func TestHandleDecideApprove(t *testing.T) {
	f := newFixture(t)
	draft := f.createDraft(t, f.completeDraft())
	f.submitAndPay(t, draft.ID)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/lga/applications/"+draft.ID+"/decision", map[string]string{
		"decision": "approve",
		"notes":    "records check out",
	})
	req = testutil.WithUserID(req, f.officer.ID.String())
	rr := testutil.DoRequest(f.router, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := testutil.DecodeResponse[appResponse](t, rr)
	require.Equal(t, string(application.StatusApproved), body.Status)
	require.NotEmpty(t, body.CertificateNumber)
}

func TestHandleDecideUnknownVerdict(t *testing.T) {
	f := newFixture(t)
	draft := f.createDraft(t, f.completeDraft())
	f.submitAndPay(t, draft.ID)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/lga/applications/"+draft.ID+"/decision", map[string]string{
		"decision": "escalate",
	})
	req = testutil.WithUserID(req, f.officer.ID.String())
	rr := testutil.DoRequest(f.router, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "bad_request", testutil.ErrorCode(t, rr))
}

// submitAndPay submits the draft over HTTP, then advances it to PAID
// directly in the store, standing in for payment confirmation.
func (f *fixture) submitAndPay(t *testing.T, appID string) {
	t.Helper()

	req := testutil.NewJSONRequest(t, http.MethodPost, "/applications/"+appID+"/submit", nil)
	req = testutil.WithUserID(req, f.citizen.ID.String())
	rr := testutil.DoRequest(f.router, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	parsed, err := id.ParseApplicationID(appID)
	require.NoError(t, err)
	moved, err := f.apps.UpdateStatus(context.Background(), parsed,
		application.StatusSubmitted, application.StatusPaid)
	require.NoError(t, err)
	require.True(t, moved)
}
