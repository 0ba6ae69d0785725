package authsdk_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sendhello/auth-service/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestAPIErrorIs(t *testing.T) {
	t.Parallel()

	err := authsdk.ErrTokenRevoked.WithDescription("gone")
	require.ErrorIs(t, err, authsdk.ErrTokenRevoked)
	require.NotErrorIs(t, err, authsdk.ErrInvalidToken)
	require.Equal(t, "token_revoked: gone", err.Error())
}

func TestAPIErrorWrite(t *testing.T) {
	t.Parallel()

	t.Run("unauthenticated carries bearer challenge", func(t *testing.T) {
		rec := httptest.NewRecorder()
		authsdk.ErrInvalidToken.WriteError(rec)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, `Bearer error="invalid_token"`, rec.Header().Get("WWW-Authenticate"))
		require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "invalid_token", body["error"])
		require.NotEmpty(t, body["error_description"])
	})

	t.Run("forbidden has no challenge", func(t *testing.T) {
		rec := httptest.NewRecorder()
		authsdk.ErrAccessDenied.WriteError(rec)

		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Empty(t, rec.Header().Get("WWW-Authenticate"))
		require.Contains(t, rec.Body.String(), "Permission denied")
	})
}

func TestLoginAndRefresh(t *testing.T) {
	t.Parallel()

	var gotUA, gotOrg, gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotOrg = r.Header.Get(authsdk.OrganizationHeader)

		var req authsdk.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			authsdk.ErrInvalidCredentials.WriteError(w)
			return
		}
		_ = json.NewEncoder(w).Encode(authsdk.TokenPairResponse{
			AccessToken:  "a1",
			RefreshToken: "r1",
			TokenType:    "Bearer",
			Scope:        "profile:read profile:write",
		})
	})
	mux.HandleFunc("POST /api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(authsdk.TokenPairResponse{AccessToken: "a2", RefreshToken: "r2"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := authsdk.NewSDKClient(srv.URL + "/")
	client.UserAgent = "test-device"
	ctx := context.Background()

	_, err := client.Login(ctx, "jane@example.com", "wrong", "")
	require.ErrorIs(t, err, authsdk.ErrInvalidCredentials)

	session, err := client.Login(ctx, "jane@example.com", "secret", "org-1")
	require.NoError(t, err)
	require.Equal(t, "test-device", gotUA)
	require.Equal(t, "org-1", gotOrg)
	require.True(t, session.HasScope("profile:write"))
	require.False(t, session.HasScope("users:read"))

	require.NoError(t, session.Refresh(ctx))
	require.Equal(t, "Bearer r1", gotAuth)
	require.Equal(t, "a2", session.AccessToken())
	require.Equal(t, "r2", session.RefreshToken())
	require.False(t, session.HasScope("profile:write"))
}

func TestUnstructuredErrorBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, err := authsdk.NewSDKClient(srv.URL).GetLiveness(context.Background())

	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	require.Equal(t, authsdk.ErrorCodeServerError, apiErr.Code)
}
