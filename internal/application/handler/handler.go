package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lgac/internal/application"
	"lgac/internal/application/service"
	"lgac/internal/identity"
	id "lgac/pkg/domain"
	dErrors "lgac/pkg/domain-errors"
	"lgac/pkg/platform/httputil"
	"lgac/pkg/requestcontext"
)

// Service defines the interface for application lifecycle operations.
type Service interface {
	CreateDraft(ctx context.Context, actor *identity.User, in service.DraftInput) (*application.Application, error)
	UpdateDraft(ctx context.Context, actor *identity.User, appID id.ApplicationID, in service.DraftInput) (*application.Application, error)
	Submit(ctx context.Context, actor *identity.User, appID id.ApplicationID) (*application.Application, error)
	Withdraw(ctx context.Context, actor *identity.User, appID id.ApplicationID) (*application.Application, error)
	BeginReview(ctx context.Context, actor *identity.User, appID id.ApplicationID) (*application.Application, error)
	Decide(ctx context.Context, actor *identity.User, appID id.ApplicationID, decision service.Decision, notes string) (*application.Application, error)
	Get(ctx context.Context, actor *identity.User, appID id.ApplicationID) (*application.Application, error)
	ListMine(ctx context.Context, actor *identity.User) ([]*application.Application, error)
	ReviewQueue(ctx context.Context, actor *identity.User) ([]*application.Application, error)
}

// ActorLoader resolves the authenticated user for authorization decisions.
type ActorLoader interface {
	FindByID(ctx context.Context, userID id.UserID) (*identity.User, error)
}

// Handler wires application lifecycle endpoints to the service.
type Handler struct {
	service Service
	actors  ActorLoader
	logger  *slog.Logger
}

// New constructs an application handler with its dependencies.
func New(service Service, actors ActorLoader, logger *slog.Logger) *Handler {
	return &Handler{service: service, actors: actors, logger: logger}
}

// RegisterCitizen mounts citizen-facing application endpoints. The router
// group must already require authentication.
func (h *Handler) RegisterCitizen(r chi.Router) {
	r.Post("/applications", h.HandleCreate)
	r.Get("/applications", h.HandleListMine)
	r.Get("/applications/{applicationID}", h.HandleGet)
	r.Patch("/applications/{applicationID}", h.HandleUpdate)
	r.Post("/applications/{applicationID}/submit", h.HandleSubmit)
	r.Post("/applications/{applicationID}/withdraw", h.HandleWithdraw)
}

// RegisterOfficer mounts the LGA review endpoints.
func (h *Handler) RegisterOfficer(r chi.Router) {
	r.Get("/lga/applications", h.HandleReviewQueue)
	r.Post("/lga/applications/{applicationID}/review", h.HandleBeginReview)
	r.Post("/lga/applications/{applicationID}/decision", h.HandleDecide)
}

type draftRequest struct {
	LGAID            string `json:"lga_id"`
	DateOfBirth      string `json:"date_of_birth"`
	PlaceOfBirth     string `json:"place_of_birth"`
	HomeTown         string `json:"home_town"`
	FamilyCompound   string `json:"family_compound"`
	FatherName       string `json:"father_name"`
	MotherName       string `json:"mother_name"`
	Purpose          string `json:"purpose"`
	PassportPhotoKey string `json:"passport_photo_key"`
}

func (r draftRequest) toInput() (service.DraftInput, error) {
	in := service.DraftInput{
		PlaceOfBirth:     r.PlaceOfBirth,
		HomeTown:         r.HomeTown,
		FamilyCompound:   r.FamilyCompound,
		FatherName:       r.FatherName,
		MotherName:       r.MotherName,
		Purpose:          r.Purpose,
		PassportPhotoKey: r.PassportPhotoKey,
	}
	if r.LGAID != "" {
		lgaID, err := id.ParseLGAID(r.LGAID)
		if err != nil {
			return in, err
		}
		in.LGAID = lgaID
	}
	if r.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", r.DateOfBirth)
		if err != nil {
			return in, dErrors.New(dErrors.CodeValidation, "date_of_birth must be YYYY-MM-DD")
		}
		in.DateOfBirth = dob
	}
	return in, nil
}

type decisionRequest struct {
	Decision string `json:"decision"`
	Notes    string `json:"notes"`
}

type applicationResponse struct {
	ID                string `json:"id"`
	LGAID             string `json:"lga_id"`
	Status            string `json:"status"`
	FullName          string `json:"full_name,omitempty"`
	Email             string `json:"email,omitempty"`
	Phone             string `json:"phone,omitempty"`
	NIN               string `json:"nin,omitempty"`
	DateOfBirth       string `json:"date_of_birth,omitempty"`
	PlaceOfBirth      string `json:"place_of_birth,omitempty"`
	HomeTown          string `json:"home_town,omitempty"`
	FamilyCompound    string `json:"family_compound,omitempty"`
	FatherName        string `json:"father_name,omitempty"`
	MotherName        string `json:"mother_name,omitempty"`
	Purpose           string `json:"purpose,omitempty"`
	PassportPhotoKey  string `json:"passport_photo_key,omitempty"`
	CertificateNumber string `json:"certificate_number,omitempty"`
	CertificateHash   string `json:"certificate_hash,omitempty"`
	ReviewNotes       string `json:"review_notes,omitempty"`
	ApprovedAt        string `json:"approved_at,omitempty"`
	CreatedAt         string `json:"created_at"`
}

func fromApplication(a *application.Application) applicationResponse {
	resp := applicationResponse{
		ID:                a.ID.String(),
		LGAID:             a.LGAID.String(),
		Status:            string(a.Status),
		FullName:          a.FullName,
		Email:             a.Email,
		Phone:             a.Phone,
		NIN:               a.NIN,
		PlaceOfBirth:      a.PlaceOfBirth,
		HomeTown:          a.HomeTown,
		FamilyCompound:    a.FamilyCompound,
		FatherName:        a.FatherName,
		MotherName:        a.MotherName,
		Purpose:           a.Purpose,
		PassportPhotoKey:  a.PassportPhotoKey,
		CertificateNumber: a.CertificateNumber,
		CertificateHash:   a.CertificateHash,
		ReviewNotes:       a.ReviewNotes,
		CreatedAt:         a.CreatedAt.Format(time.RFC3339),
	}
	if !a.DateOfBirth.IsZero() {
		resp.DateOfBirth = a.DateOfBirth.Format("2006-01-02")
	}
	if !a.ApprovedAt.IsZero() {
		resp.ApprovedAt = a.ApprovedAt.Format(time.RFC3339)
	}
	return resp
}

// HandleCreate handles POST /applications requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.actor(ctx, w)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[draftRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	in, err := req.toInput()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	app, err := h.service.CreateDraft(ctx, actor, in)
	if err != nil {
		h.logError(ctx, "application creation failed", requestID, actor.ID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, fromApplication(app))
}

// HandleListMine handles GET /applications requests.
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := h.actor(ctx, w)
	if !ok {
		return
	}
	apps, err := h.service.ListMine(ctx, actor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"applications": toResponses(apps)})
}

// HandleGet handles GET /applications/{applicationID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := h.actor(ctx, w)
	if !ok {
		return
	}
	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	app, err := h.service.Get(ctx, actor, appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromApplication(app))
}

// HandleUpdate handles PATCH /applications/{applicationID} requests.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.actor(ctx, w)
	if !ok {
		return
	}
	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[draftRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	in, err := req.toInput()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	app, err := h.service.UpdateDraft(ctx, actor, appID, in)
	if err != nil {
		h.logError(ctx, "application update failed", requestID, actor.ID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromApplication(app))
}

// HandleSubmit handles POST /applications/{applicationID}/submit requests.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "application submission failed", h.service.Submit)
}

// HandleWithdraw handles POST /applications/{applicationID}/withdraw requests.
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "application withdrawal failed", h.service.Withdraw)
}

// HandleBeginReview handles POST /lga/applications/{applicationID}/review requests.
func (h *Handler) HandleBeginReview(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "begin review failed", h.service.BeginReview)
}

// HandleReviewQueue handles GET /lga/applications requests.
func (h *Handler) HandleReviewQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := h.actor(ctx, w)
	if !ok {
		return
	}
	apps, err := h.service.ReviewQueue(ctx, actor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"applications": toResponses(apps)})
}

// HandleDecide handles POST /lga/applications/{applicationID}/decision requests.
func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.actor(ctx, w)
	if !ok {
		return
	}
	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[decisionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	app, err := h.service.Decide(ctx, actor, appID, service.Decision(req.Decision), req.Notes)
	if err != nil {
		h.logError(ctx, "decision failed", requestID, actor.ID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromApplication(app))
}

type transitionFunc func(ctx context.Context, actor *identity.User, appID id.ApplicationID) (*application.Application, error)

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, logMsg string, fn transitionFunc) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.actor(ctx, w)
	if !ok {
		return
	}
	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	app, err := fn(ctx, actor, appID)
	if err != nil {
		h.logError(ctx, logMsg, requestID, actor.ID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromApplication(app))
}

func (h *Handler) actor(ctx context.Context, w http.ResponseWriter) (*identity.User, bool) {
	userID := requestcontext.UserID(ctx)
	if userID == (id.UserID{}) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return nil, false
	}
	actor, err := h.actors.FindByID(ctx, userID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "unknown user"))
		return nil, false
	}
	return actor, true
}

func (h *Handler) logError(ctx context.Context, msg, requestID string, actorID id.UserID, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestID,
		"actor_id", actorID,
		"error", err,
	)
}

func toResponses(apps []*application.Application) []applicationResponse {
	out := make([]applicationResponse, 0, len(apps))
	for _, a := range apps {
		out = append(out, fromApplication(a))
	}
	return out
}
