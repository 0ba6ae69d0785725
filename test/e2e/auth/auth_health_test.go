//go:build e2e

package auth_test

import (
	"crypto/ed25519"
	"encoding/base64"
	"testing"

	"github.com/sendhello/auth-service/pkg/authsdk"
	"github.com/sendhello/auth-service/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

// TestLivezEndpoint verifies the liveness check endpoint.
func TestLivezEndpoint(t *testing.T) {
	baseURL, cleanup := setupDefaultService(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)

	health, err := client.GetLiveness(t.Context())
	assertHealthy(t, health, err)
	require.NotEmpty(t, health.Version)
}

// TestReadyzEndpoint verifies the readiness check reaches the database and Redis.
func TestReadyzEndpoint(t *testing.T) {
	baseURL, cleanup := setupDefaultService(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)

	health, err := client.GetReadiness(t.Context())
	assertHealthy(t, health, err)
	require.NotNil(t, health.Checks)
	require.Equal(t, "ok", health.Checks.Database)
	require.Equal(t, "ok", health.Checks.Redis)
}

// TestJWKSVerifiesAccessTokens checks that the published key verifies a
// freshly issued access token offline.
func TestJWKSVerifiesAccessTokens(t *testing.T) {
	baseURL, cleanup := setupDefaultService(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)

	jwks, err := client.GetJWKS(t.Context())
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1)

	key := jwks.Keys[0]
	require.Equal(t, "OKP", key.Kty)
	require.Equal(t, "Ed25519", key.Crv)
	require.Equal(t, testKeyID, key.Kid)

	raw, err := base64.RawURLEncoding.DecodeString(key.X)
	require.NoError(t, err)
	require.Len(t, raw, ed25519.PublicKeySize)

	verifier := jwtx.NewVerifierEdDSA(jwtx.VerifyOptions{Issuer: testIssuer})
	verifier.AddKey(key.Kid, ed25519.PublicKey(raw))

	signupUser(t, client, "jane@example.com")
	session := performLogin(t, client, "jane@example.com", "")

	claims, err := verifier.Verify(session.AccessToken())
	require.NoError(t, err)
	require.Equal(t, jwtx.TypeAccess, claims.Type)
	require.Equal(t, "jane@example.com", claims.Email)

	t.Logf("Access token verified with published key %s", key.Kid)
}
