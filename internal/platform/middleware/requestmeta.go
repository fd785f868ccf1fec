package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"lgac/pkg/requestcontext"
)

// RequestMeta assigns a correlation id to every request and records a short
// client device summary for audit events.
func RequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		if ua := r.Header.Get("User-Agent"); ua != "" {
			ctx = requestcontext.WithDevice(ctx, deviceSummary(ua))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func deviceSummary(rawUA string) string {
	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	summary := name
	if version != "" {
		summary += " " + version
	}
	if os := ua.OS(); os != "" {
		summary += " (" + os + ")"
	}
	return summary
}
