// Package httpapi assembles the portal's HTTP surface: public endpoints,
// the authenticated application/payment/certificate routes and the
// operational endpoints.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apphandler "lgac/internal/application/handler"
	certhandler "lgac/internal/certificate/handler"
	identityhandler "lgac/internal/identity/handler"
	jwttoken "lgac/internal/jwt_token"
	lgahandler "lgac/internal/lga/handler"
	paymenthandler "lgac/internal/payment/handler"
	"lgac/internal/platform/middleware"
	"lgac/pkg/platform/httputil"
)

// Handlers groups the per-domain HTTP handlers the router mounts.
type Handlers struct {
	Identity    *identityhandler.Handler
	LGA         *lgahandler.Handler
	Application *apphandler.Handler
	Payment     *paymenthandler.Handler
	Certificate *certhandler.Handler
}

// NewRouter builds the chi router. Authentication is the only transport-level
// gate; role checks live in the services so every caller goes through them
// regardless of route.
func NewRouter(h Handlers, tokens *jwttoken.Service, logger *slog.Logger) http.Handler {
	validator := tokenValidator{tokens: tokens}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestMeta)
	r.Use(middleware.RequestTime)

	r.Get("/healthz", handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	// Public surface: signup/login, LGA directory, certificate verification
	// and the payment provider webhook.
	h.Identity.RegisterPublic(r)
	h.LGA.RegisterPublic(r)
	h.Certificate.RegisterPublic(r)
	h.Payment.RegisterPublic(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, logger))

		h.Identity.RegisterCitizen(r)
		h.Identity.RegisterAdmin(r)
		h.LGA.RegisterAdmin(r)
		h.Application.RegisterCitizen(r)
		h.Application.RegisterOfficer(r)
		h.Payment.RegisterCitizen(r)
		h.Certificate.RegisterCitizen(r)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// tokenValidator adapts the JWT service to the auth middleware contract.
type tokenValidator struct {
	tokens *jwttoken.Service
}

func (v tokenValidator) ValidateToken(token string) (*middleware.TokenClaims, error) {
	claims, err := v.tokens.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return &middleware.TokenClaims{UserID: claims.UserID, Role: claims.Role}, nil
}
