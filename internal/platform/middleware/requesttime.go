package middleware

import (
	"net/http"
	"time"

	"lgac/pkg/requestcontext"
)

// RequestTime pins a single "now" for the whole request so audit events,
// domain timestamps and token expiries within one request agree.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
