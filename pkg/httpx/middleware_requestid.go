package httpx

import (
	"net/http"

	"github.com/sendhello/auth-service/pkg/slogx"
)

// RequireRequestID rejects requests without an X-Request-ID header when
// enabled. It must run before the logging middleware generates one.
func RequireRequestID(enabled bool) Middleware {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(slogx.RequestIDHeader) == "" {
				WriteError(w, http.StatusBadRequest, "invalid_request", "X-Request-ID is required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
