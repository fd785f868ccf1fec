package testutil

import (
	"net/http"
	"time"

	id "lgac/pkg/domain"
	"lgac/pkg/requestcontext"
)

// WithUserID stamps a user ID on the request context, simulating what the
// auth middleware does for authenticated requests. Invalid UUIDs are silently
// ignored.
func WithUserID(req *http.Request, userID string) *http.Request {
	parsed, err := id.ParseUserID(userID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithUserID(req.Context(), parsed))
}

// WithActor stamps both user ID and role on the request context, the typical
// state of an authenticated request.
func WithActor(req *http.Request, userID, role string) *http.Request {
	ctx := req.Context()
	if parsed, err := id.ParseUserID(userID); err == nil {
		ctx = requestcontext.WithUserID(ctx, parsed)
	}
	if role != "" {
		ctx = requestcontext.WithRole(ctx, role)
	}
	return req.WithContext(ctx)
}

// WithRequestTime pins the request clock, so time-dependent assertions are
// deterministic.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithRequestID stamps a request ID on the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
