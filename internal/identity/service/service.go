// Package service implements account operations: NIN verification, signup,
// login and profile management.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"

	"lgac/internal/audit"
	"lgac/internal/identity"
	"lgac/internal/identity/metrics"
	"lgac/internal/identity/store"
	jwttoken "lgac/internal/jwt_token"
	"lgac/internal/nin"
	id "lgac/pkg/domain"
	dErrors "lgac/pkg/domain-errors"
	"lgac/pkg/platform/sentinel"
	"lgac/pkg/requestcontext"
)

const tracerName = "lgac/identity"

// minPasswordLength is the portal's only password rule. Complexity classes
// are not enforced.
const minPasswordLength = 8

// AuditEmitter receives account audit events.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event)
}

// Config carries the tunable account parameters.
type Config struct {
	AccessTokenTTL time.Duration
}

// Service implements the account operations.
type Service struct {
	users    store.Store
	creds    nin.CredentialStore
	verifier nin.Verifier
	tokens   *jwttoken.Service
	auditor  AuditEmitter
	logger   *slog.Logger
	metrics  *metrics.Metrics
	cfg      Config
}

func New(users store.Store, creds nin.CredentialStore, verifier nin.Verifier,
	tokens *jwttoken.Service, auditor AuditEmitter, logger *slog.Logger,
	m *metrics.Metrics, cfg Config) *Service {
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = time.Hour
	}
	return &Service{
		users:    users,
		creds:    creds,
		verifier: verifier,
		tokens:   tokens,
		auditor:  auditor,
		logger:   logger,
		metrics:  m,
		cfg:      cfg,
	}
}

// VerifyNIN checks the NIN against the national registry and, on success,
// mints the single-use credential that signup requires. The credential binds
// the verified NIN, so verifying one NIN and signing up with another fails.
func (s *Service) VerifyNIN(ctx context.Context, ninNumber string) (*nin.Credential, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "VerifyNIN")
	defer span.End()

	result, err := s.verifier.Verify(ctx, ninNumber)
	if err != nil {
		return nil, err
	}
	if !result.Verified {
		s.metrics.IncrementNINVerification("rejected")
		return nil, dErrors.New(dErrors.CodeValidation, "NIN could not be verified")
	}

	cred := nin.NewCredential(ninNumber, requestcontext.Now(ctx))
	if err := s.creds.Put(ctx, cred); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store verification")
	}

	s.metrics.IncrementNINVerification("verified")
	s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionNINVerified,
		RequestID: requestcontext.RequestID(ctx),
		Device:    requestcontext.Device(ctx),
	})
	return &cred, nil
}

// SignupInput carries the new-account fields plus the verification token from
// VerifyNIN.
type SignupInput struct {
	VerificationToken uuid.UUID
	FullName          string
	Email             string
	Phone             string
	NIN               string
	Password          string
}

// AuthResult is a signed-in principal.
type AuthResult struct {
	User        *identity.User
	AccessToken string
	ExpiresAt   time.Time
}

// Signup creates a citizen account. The verification credential is consumed
// even when a later step fails: a failed signup costs the applicant a fresh
// NIN verification, never an account with an unverified NIN.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Signup")
	defer span.End()

	cred, err := s.creds.Consume(ctx, in.VerificationToken)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound), errors.Is(err, sentinel.ErrAlreadyUsed):
			return nil, dErrors.New(dErrors.CodeUnauthorized, "NIN verification required before signup")
		case errors.Is(err, sentinel.ErrExpired):
			return nil, dErrors.New(dErrors.CodeUnauthorized, "NIN verification expired, verify again")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check verification")
		}
	}
	if cred.NIN != in.NIN {
		return nil, dErrors.New(dErrors.CodeValidation, "NIN does not match the verified NIN")
	}
	if len(in.Password) < minPasswordLength {
		return nil, dErrors.Newf(dErrors.CodeValidation, "password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	user := &identity.User{
		ID:           id.NewUserID(),
		FullName:     strings.TrimSpace(in.FullName),
		Email:        normalizeEmail(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		NIN:          in.NIN,
		NINVerified:  true,
		Role:         identity.RoleCitizen,
		PasswordHash: string(hash),
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an account with this email, phone or NIN already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}

	s.metrics.IncrementSignup()
	s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionUserCreated,
		ActorID:   user.ID,
		RequestID: requestcontext.RequestID(ctx),
		Device:    requestcontext.Device(ctx),
	})
	s.logger.InfoContext(ctx, "citizen account created", "user_id", user.ID)

	return s.authResult(ctx, user)
}

// Login authenticates by email and password. Unknown accounts and wrong
// passwords produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Login")
	defer span.End()

	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncrementLogin("failure")
			return nil, errBadCredentials()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.metrics.IncrementLogin("failure")
		return nil, errBadCredentials()
	}

	s.metrics.IncrementLogin("success")
	s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionUserLogin,
		ActorID:   user.ID,
		RequestID: requestcontext.RequestID(ctx),
		Device:    requestcontext.Device(ctx),
	})
	return s.authResult(ctx, user)
}

// CreateUserInput carries the admin-provisioned account fields. Officer and
// admin accounts are created here, never through signup.
type CreateUserInput struct {
	FullName string
	Email    string
	Phone    string
	Role     identity.Role
	LGA      id.LGAID
	Password string
}

// CreateUser provisions an officer or admin account.
func (s *Service) CreateUser(ctx context.Context, actor *identity.User, in CreateUserInput) (*identity.User, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "CreateUser")
	defer span.End()
	span.SetAttributes(attribute.String("role", string(in.Role)))

	if err := identity.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if in.Role == identity.RoleCitizen {
		return nil, dErrors.New(dErrors.CodeValidation, "citizen accounts are created through signup")
	}
	if len(in.Password) < minPasswordLength {
		return nil, dErrors.Newf(dErrors.CodeValidation, "password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	user := &identity.User{
		ID:           id.NewUserID(),
		FullName:     strings.TrimSpace(in.FullName),
		Email:        normalizeEmail(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         in.Role,
		LGA:          in.LGA,
		PasswordHash: string(hash),
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an account with this email or phone already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}

	s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionUserCreated,
		ActorID:   requestcontext.UserID(ctx),
		LGAID:     user.LGA,
		RequestID: requestcontext.RequestID(ctx),
		Device:    requestcontext.Device(ctx),
		Detail:    string(user.Role),
	})
	s.logger.InfoContext(ctx, "account provisioned",
		"user_id", user.ID,
		"role", user.Role,
		"created_by", actor.ID,
	)
	return user, nil
}

// ProfileInput carries the self-service editable fields. The NIN and role are
// immutable; applications snapshot the rest at submission anyway.
type ProfileInput struct {
	FullName string
	Email    string
	Phone    string
}

// UpdateProfile edits the actor's own contact details.
func (s *Service) UpdateProfile(ctx context.Context, actor *identity.User, in ProfileInput) (*identity.User, error) {
	if actor == nil {
		return nil, identity.ErrForbidden()
	}

	updated := *actor
	if in.FullName != "" {
		updated.FullName = strings.TrimSpace(in.FullName)
	}
	if in.Email != "" {
		updated.Email = normalizeEmail(in.Email)
	}
	if in.Phone != "" {
		updated.Phone = strings.TrimSpace(in.Phone)
	}
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, &updated); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an account with this email or phone already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update profile")
	}
	return &updated, nil
}

func (s *Service) authResult(ctx context.Context, user *identity.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateAccessToken(user.ID, string(user.Role), s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue access token")
	}
	return &AuthResult{
		User:        user,
		AccessToken: token,
		ExpiresAt:   requestcontext.Now(ctx).Add(s.cfg.AccessTokenTTL),
	}, nil
}

func errBadCredentials() error {
	return dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
