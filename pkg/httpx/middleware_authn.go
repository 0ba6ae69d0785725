package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sendhello/auth-service/pkg/jwtx"
	"github.com/sendhello/auth-service/pkg/slogx"
)

// ErrMissingBearer is passed to the error handler when no bearer token was sent.
var ErrMissingBearer = errors.New("httpx: missing bearer token")

// Authenticator validates a bearer token and returns its claims.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (jwtx.Claims, error)
}

// ErrorHandler writes the response for a failed request.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(authz, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authn requires a valid bearer token and stores its claims in the request
// context. Failures, including a missing header, go to onError.
func Authn(auth Authenticator, onError ErrorHandler) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				onError(w, r, ErrMissingBearer)
				return
			}

			claims, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				onError(w, r, err)
				return
			}

			ctx := WithClaims(r.Context(), claims, token)
			log := slogx.FromContext(ctx).With("user_id", claims.UserID)
			ctx = slogx.WithContext(ctx, log)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
