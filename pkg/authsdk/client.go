package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OrganizationHeader selects the organization a request acts in.
const OrganizationHeader = "X-Organization-ID"

// SDKClient is a client for the auth service. It provides the
// unauthenticated operations and creates authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// UserAgent identifies the device. Tokens are bound to it: refresh and
	// logout must come from the same User-Agent that logged in.
	UserAgent string
}

// NewSDKClient creates a new auth service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		UserAgent: "authsdk-go",
	}
}

// Signup registers a new account.
func (c *SDKClient) Signup(ctx context.Context, req SignupRequest) (*UserResponse, error) {
	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/signup", body, nil)
	if err != nil {
		return nil, err
	}

	var user UserResponse
	if err := decodeJSON(resp, &user, http.StatusCreated); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a token pair and returns a Session. orgID
// optionally selects the organization the tokens are scoped to.
func (c *SDKClient) Login(ctx context.Context, email, password, orgID string) (*Session, error) {
	body, err := jsonBody(LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var headers map[string]string
	if orgID != "" {
		headers = map[string]string{OrganizationHeader: orgID}
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", body, headers)
	if err != nil {
		return nil, err
	}

	var pair TokenPairResponse
	if err := decodeJSON(resp, &pair, http.StatusOK); err != nil {
		return nil, err
	}
	return newSession(c, &pair), nil
}

// NewSessionFromTokens creates a Session from tokens obtained elsewhere.
func (c *SDKClient) NewSessionFromTokens(accessToken, refreshToken string) *Session {
	return newSession(c, &TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	})
}

func jsonBody(v any) (*bytes.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("authsdk: encode request: %w", err)
	}
	return bytes.NewReader(b), nil
}
