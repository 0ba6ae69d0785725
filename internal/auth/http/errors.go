package http

import (
	"errors"
	"net/http"

	"github.com/sendhello/auth-service/internal/auth/service"
	"github.com/sendhello/auth-service/internal/auth/session"
	"github.com/sendhello/auth-service/internal/auth/tenancy"
	"github.com/sendhello/auth-service/pkg/authsdk"
	"github.com/sendhello/auth-service/pkg/httpx"
	"github.com/sendhello/auth-service/pkg/slogx"
)

// responder writes error responses. With debug off, role and scope failures
// say only "Permission denied".
type responder struct {
	debug bool
}

// apiError maps a domain error to its HTTP form.
func (rs responder) apiError(err error) *authsdk.APIError {
	var missing *tenancy.MissingScopesError

	switch {
	case errors.Is(err, httpx.ErrMissingBearer),
		errors.Is(err, session.ErrTokenInvalid):
		return authsdk.ErrInvalidToken
	case errors.Is(err, session.ErrTokenRevoked):
		return authsdk.ErrTokenRevoked
	case errors.Is(err, session.ErrRateLimited):
		return authsdk.ErrRateLimitExceeded
	case errors.Is(err, session.ErrStoreUnavailable):
		return authsdk.ErrServiceUnavailable
	case errors.Is(err, session.ErrAccountInactive):
		return authsdk.ErrAccountInactive
	case errors.Is(err, service.ErrInvalidCredentials):
		return authsdk.ErrInvalidCredentials

	case errors.Is(err, tenancy.ErrTenantAccessDenied):
		return authsdk.ErrTenantDenied
	case errors.Is(err, tenancy.ErrNoTenantContext):
		return authsdk.ErrNoTenantContext
	case errors.Is(err, tenancy.ErrInsufficientRole):
		if rs.debug {
			return authsdk.ErrAccessDenied.WithDescription(err.Error())
		}
		return authsdk.ErrAccessDenied
	case errors.As(err, &missing):
		if rs.debug {
			return authsdk.ErrInsufficientScope.WithDescription(err.Error())
		}
		return authsdk.ErrInsufficientScope

	case errors.Is(err, service.ErrInvalidInput):
		return authsdk.ErrInvalidRequest.WithDescription(err.Error())
	case errors.Is(err, service.ErrUserExists),
		errors.Is(err, service.ErrSlugTaken),
		errors.Is(err, service.ErrMembershipExists):
		return authsdk.ErrConflict.WithDescription(err.Error())
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrOrgNotFound),
		errors.Is(err, service.ErrMembershipNotFound):
		return authsdk.ErrNotFound.WithDescription(err.Error())
	}
	return nil
}

// fail writes err. Unmapped errors are logged and reported as 500.
func (rs responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := rs.apiError(err)
	if apiErr == nil {
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		apiErr = authsdk.ErrServerError
	} else if apiErr.StatusCode == http.StatusServiceUnavailable {
		slogx.FromContext(r.Context()).Error("backing store unavailable", "err", err)
	}
	apiErr.WriteError(w)
}
