/*
Package authsdk provides a client SDK for the auth service, plus the request,
response and error types its HTTP handlers share.

# SDKClient vs Session

  - SDKClient: unauthenticated operations (signup, login, health, JWKS)
  - Session: operations that need an access token

	client := authsdk.NewSDKClient("https://auth.example.com")

	user, err := client.Signup(ctx, authsdk.SignupRequest{...})

	// Log in without selecting an organization
	session, err := client.Login(ctx, "jane@example.com", "correct-horse", "")

# Devices

Tokens are bound to the device that logged in, identified by the User-Agent
header. SDKClient.UserAgent is sent on every request; refresh and logout only
affect the pair issued to that same User-Agent.

# Organizations

An access token carries every membership of the user but scopes for one
selected organization only. Select a different one per request with
UseOrganization, or bake it into the next pair:

	session.UseOrganization(orgID)
	err := session.Refresh(ctx)

# Refresh

Refresh tokens are single use. After Refresh the previous refresh token is
rejected with ErrTokenRevoked, so a Session must not be copied between
goroutines that refresh independently.

# Error Handling

Non-2xx responses are returned as *APIError. Predefined values match with
errors.Is on status and code:

	_, err := session.Profile(ctx)
	if errors.Is(err, authsdk.ErrTokenRevoked) {
		// log in again
	}
*/
package authsdk
