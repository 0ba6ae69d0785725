package http

import (
	"net/http"

	"github.com/sendhello/auth-service/pkg/authsdk"
	"github.com/sendhello/auth-service/pkg/httpx"
	"github.com/sendhello/auth-service/pkg/jwtx"
)

// JWKSHandler exposes the JSON Web Key Set for public key discovery.
//
//	@Summary		Get JWKS
//	@Description	Returns the Ed25519 public keys used to verify access tokens. Empty when tokens are signed with HS256.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	authsdk.JWKSResponse	"The JSON Web Key Set"
//	@Router			/.well-known/jwks.json [get].
func JWKSHandler(keys jwtx.JWKS) http.HandlerFunc {
	if keys.Keys == nil {
		keys.Keys = []jwtx.JWK{}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.JWKSResponse(keys))
	}
}
