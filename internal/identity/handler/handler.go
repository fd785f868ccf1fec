package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"lgac/internal/identity"
	"lgac/internal/identity/service"
	"lgac/internal/nin"
	id "lgac/pkg/domain"
	dErrors "lgac/pkg/domain-errors"
	"lgac/pkg/platform/httputil"
	"lgac/pkg/requestcontext"
)

// Service defines the interface for account operations.
type Service interface {
	VerifyNIN(ctx context.Context, ninNumber string) (*nin.Credential, error)
	Signup(ctx context.Context, in service.SignupInput) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	CreateUser(ctx context.Context, actor *identity.User, in service.CreateUserInput) (*identity.User, error)
	UpdateProfile(ctx context.Context, actor *identity.User, in service.ProfileInput) (*identity.User, error)
}

// ActorLoader resolves the authenticated user for authorization decisions.
type ActorLoader interface {
	FindByID(ctx context.Context, userID id.UserID) (*identity.User, error)
}

// Handler wires account endpoints to the service.
type Handler struct {
	service Service
	actors  ActorLoader
	logger  *slog.Logger
}

// New constructs an identity handler with its dependencies.
func New(service Service, actors ActorLoader, logger *slog.Logger) *Handler {
	return &Handler{service: service, actors: actors, logger: logger}
}

// RegisterPublic mounts the unauthenticated account endpoints.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/nin-verify", h.HandleVerifyNIN)
	r.Post("/auth/signup", h.HandleSignup)
	r.Post("/auth/login", h.HandleLogin)
}

// RegisterCitizen mounts the self-service profile endpoints. The router group
// must already require authentication.
func (h *Handler) RegisterCitizen(r chi.Router) {
	r.Get("/me", h.HandleMe)
	r.Patch("/me", h.HandleUpdateProfile)
}

// RegisterAdmin mounts the account provisioning endpoint.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/users", h.HandleCreateUser)
}

type ninVerifyRequest struct {
	NIN string `json:"nin"`
}

type signupRequest struct {
	VerificationToken string `json:"verification_token"`
	FullName          string `json:"full_name"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	NIN               string `json:"nin"`
	Password          string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createUserRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	LGAID    string `json:"lga_id"`
	Password string `json:"password"`
}

type profileRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type userResponse struct {
	ID          string `json:"id"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	NIN         string `json:"nin,omitempty"`
	NINVerified bool   `json:"nin_verified"`
	Role        string `json:"role"`
	LGAID       string `json:"lga_id,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type authResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   string       `json:"expires_at"`
	User        userResponse `json:"user"`
}

func fromUser(u *identity.User) userResponse {
	resp := userResponse{
		ID:          u.ID.String(),
		FullName:    u.FullName,
		Email:       u.Email,
		Phone:       u.Phone,
		NIN:         u.NIN,
		NINVerified: u.NINVerified,
		Role:        string(u.Role),
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
	}
	if !u.LGA.IsNil() {
		resp.LGAID = u.LGA.String()
	}
	return resp
}

func fromAuthResult(r *service.AuthResult) authResponse {
	return authResponse{
		AccessToken: r.AccessToken,
		ExpiresAt:   r.ExpiresAt.Format(time.RFC3339),
		User:        fromUser(r.User),
	}
}

// HandleVerifyNIN handles POST /auth/nin-verify requests.
func (h *Handler) HandleVerifyNIN(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ninVerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	cred, err := h.service.VerifyNIN(ctx, req.NIN)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"verification_token": cred.Token.String(),
		"expires_at":         cred.ExpiresAt.Format(time.RFC3339),
	})
}

// HandleSignup handles POST /auth/signup requests.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[signupRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	token, err := uuid.Parse(req.VerificationToken)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "verification_token must be a valid UUID"))
		return
	}

	result, err := h.service.Signup(ctx, service.SignupInput{
		VerificationToken: token,
		FullName:          req.FullName,
		Email:             req.Email,
		Phone:             req.Phone,
		NIN:               req.NIN,
		Password:          req.Password,
	})
	if err != nil {
		h.logError(ctx, "signup failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, fromAuthResult(result))
}

// HandleLogin handles POST /auth/login requests.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[loginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromAuthResult(result))
}

// HandleMe handles GET /me requests.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := h.actor(ctx, w)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromUser(actor))
}

// HandleUpdateProfile handles PATCH /me requests.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.actor(ctx, w)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[profileRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	updated, err := h.service.UpdateProfile(ctx, actor, service.ProfileInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		h.logError(ctx, "profile update failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromUser(updated))
}

// HandleCreateUser handles POST /admin/users requests.
func (h *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.actor(ctx, w)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[createUserRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	in := service.CreateUserInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Role:     identity.Role(req.Role),
		Password: req.Password,
	}
	if req.LGAID != "" {
		lgaID, err := id.ParseLGAID(req.LGAID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		in.LGA = lgaID
	}

	user, err := h.service.CreateUser(ctx, actor, in)
	if err != nil {
		h.logError(ctx, "user provisioning failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, fromUser(user))
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

func (h *Handler) logError(ctx context.Context, msg, requestID string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestID,
		"error", err,
	)
}
