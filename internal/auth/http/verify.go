package http

import (
	"net/http"

	"github.com/sendhello/auth-service/internal/auth/tenancy"
	"github.com/sendhello/auth-service/pkg/authsdk"
	"github.com/sendhello/auth-service/pkg/httpx"
)

// VerifyHandler lets downstream services validate an access token and read
// the caller's roles and scopes in the resolved organization.
type VerifyHandler struct {
	responder
}

// ServeHTTP verifies the bearer token and optional scopes.
//
//	@Summary		Verify access token
//	@Description	Authenticates the access token (signature, expiry, rate limit, blacklist), resolves the
//	@Description	organization and, when scope parameters are given, requires all of them there.
//	@Tags			Verify
//	@Produce		json
//	@Param			X-Organization-ID	header		string		false	"Organization to act in"
//	@Param			scope				query		[]string	false	"Required scopes"	collectionFormat(multi)
//	@Success		200					{object}	authsdk.VerifyResponse
//	@Failure		401					{object}	authsdk.APIError
//	@Failure		403					{object}	authsdk.APIError
//	@Failure		429					{object}	authsdk.APIError
//	@Failure		503					{object}	authsdk.APIError
//	@Security		BearerAuth
//	@Router			/api/v1/verify [get].
func (h *VerifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, _ := httpx.ClaimsFromContext(r.Context())
	tc, _ := tenantFromContext(r.Context())

	if required := r.URL.Query()["scope"]; len(required) > 0 {
		if err := tenancy.RequireScopes(tc, required...); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.VerifyResponse{
		UserID:   claims.UserID,
		Email:    claims.Email,
		TenantID: tc.TenantID,
		Roles:    tc.Roles,
		Scopes:   tc.Scopes(),
	})
}
