package authsdk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// Session is an authenticated session holding the current token pair.
// Refresh rotates the pair; the previous refresh token is dead afterwards.
type Session struct {
	client *SDKClient

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	scopes       map[string]bool
	org          string // sent as X-Organization-ID when set
}

func newSession(client *SDKClient, pair *TokenPairResponse) *Session {
	return &Session{
		client:       client,
		accessToken:  pair.AccessToken,
		refreshToken: pair.RefreshToken,
		scopes:       parseScopes(pair.Scope),
	}
}

// parseScopes parses a space-delimited scope string into a map for fast lookup.
func parseScopes(scopeStr string) map[string]bool {
	parts := strings.Fields(scopeStr)
	scopes := make(map[string]bool, len(parts))
	for _, scope := range parts {
		scopes[scope] = true
	}
	return scopes
}

// UseOrganization makes later requests act in orgID. An empty orgID clears it.
func (s *Session) UseOrganization(orgID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.org = orgID
}

// AccessToken returns the current access token.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// HasScope reports whether the last issued pair granted scope.
func (s *Session) HasScope(scope string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scopes[scope]
}

// Refresh rotates the token pair. The organization set with UseOrganization,
// if any, is requested for the new pair.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	headers := map[string]string{"Authorization": "Bearer " + s.refreshToken}
	if s.org != "" {
		headers[OrganizationHeader] = s.org
	}

	resp, err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/auth/refresh", nil, headers)
	if err != nil {
		return err
	}

	var pair TokenPairResponse
	if err := decodeJSON(resp, &pair, http.StatusOK); err != nil {
		return err
	}

	s.accessToken = pair.AccessToken
	s.refreshToken = pair.RefreshToken
	s.scopes = parseScopes(pair.Scope)
	return nil
}

// Logout revokes the access token and this device's refresh token.
func (s *Session) Logout(ctx context.Context) error {
	resp, err := s.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}

// do performs a request with the session's access token and
// selected organization.
func (s *Session) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	s.mu.RLock()
	headers := map[string]string{"Authorization": "Bearer " + s.accessToken}
	if s.org != "" {
		headers[OrganizationHeader] = s.org
	}
	s.mu.RUnlock()

	var r io.Reader
	if body != nil {
		b, err := jsonBody(body)
		if err != nil {
			return nil, err
		}
		r = b
	}
	return s.client.doRequest(ctx, method, path, r, headers)
}

// ============================================================================
// Profile
// ============================================================================

func (s *Session) Profile(ctx context.Context) (*ProfileResponse, error) {
	resp, err := s.do(ctx, http.MethodGet, "/api/v1/profile", nil)
	if err != nil {
		return nil, err
	}
	var out ProfileResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// History lists sign-ins newest first. page starts at 1.
func (s *Session) History(ctx context.Context, page, pageSize int) ([]HistoryEntry, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))

	resp, err := s.do(ctx, http.MethodGet, "/api/v1/profile/history?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var out []HistoryEntry
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) UpdateProfile(ctx context.Context, req ProfileUpdateRequest) (*UserResponse, error) {
	resp, err := s.do(ctx, http.MethodPost, "/api/v1/profile/update", req)
	if err != nil {
		return nil, err
	}
	var out UserResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) ChangePassword(ctx context.Context, current, next string) error {
	resp, err := s.do(ctx, http.MethodPost, "/api/v1/profile/change_password", ChangePasswordRequest{
		CurrentPassword: current,
		NewPassword:     next,
	})
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}

// Verify checks the access token in the selected organization and, when
// scopes are given, that all of them are granted there.
func (s *Session) Verify(ctx context.Context, scopes ...string) (*VerifyResponse, error) {
	path := "/api/v1/verify"
	if len(scopes) > 0 {
		q := url.Values{}
		for _, sc := range scopes {
			q.Add("scope", sc)
		}
		path += "?" + q.Encode()
	}

	resp, err := s.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var out VerifyResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ============================================================================
// Organizations
// ============================================================================

func (s *Session) CreateOrganization(ctx context.Context, req OrganizationRequest) (*OrganizationResponse, error) {
	resp, err := s.do(ctx, http.MethodPost, "/api/v1/organizations", req)
	if err != nil {
		return nil, err
	}
	var out OrganizationResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) ListOrganizations(ctx context.Context) ([]OrganizationResponse, error) {
	resp, err := s.do(ctx, http.MethodGet, "/api/v1/organizations", nil)
	if err != nil {
		return nil, err
	}
	var out []OrganizationResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) GetOrganization(ctx context.Context, orgID string) (*OrganizationResponse, error) {
	resp, err := s.do(ctx, http.MethodGet, "/api/v1/organizations/"+url.PathEscape(orgID), nil)
	if err != nil {
		return nil, err
	}
	var out OrganizationResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) UpdateOrganization(ctx context.Context, orgID string, req OrganizationUpdateRequest) (*OrganizationResponse, error) {
	resp, err := s.do(ctx, http.MethodPut, "/api/v1/organizations/"+url.PathEscape(orgID), req)
	if err != nil {
		return nil, err
	}
	var out OrganizationResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) DeleteOrganization(ctx context.Context, orgID string) error {
	resp, err := s.do(ctx, http.MethodDelete, "/api/v1/organizations/"+url.PathEscape(orgID), nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// ============================================================================
// Memberships
// ============================================================================

func membershipsPath(orgID string) string {
	return fmt.Sprintf("/api/v1/organizations/%s/memberships", url.PathEscape(orgID))
}

func (s *Session) ListMembers(ctx context.Context, orgID string) ([]MembershipResponse, error) {
	resp, err := s.do(ctx, http.MethodGet, membershipsPath(orgID), nil)
	if err != nil {
		return nil, err
	}
	var out []MembershipResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) AddMember(ctx context.Context, orgID string, req MembershipRequest) (*MembershipResponse, error) {
	resp, err := s.do(ctx, http.MethodPost, membershipsPath(orgID), req)
	if err != nil {
		return nil, err
	}
	var out MembershipResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) UpdateMember(ctx context.Context, orgID, membershipID string, req MembershipUpdateRequest) (*MembershipResponse, error) {
	resp, err := s.do(ctx, http.MethodPut, membershipsPath(orgID)+"/"+url.PathEscape(membershipID), req)
	if err != nil {
		return nil, err
	}
	var out MembershipResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) RemoveMember(ctx context.Context, orgID, membershipID string) error {
	resp, err := s.do(ctx, http.MethodDelete, membershipsPath(orgID)+"/"+url.PathEscape(membershipID), nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// ============================================================================
// User administration
// ============================================================================

// ListUsers pages through every account. The session must act in the admin
// organization as owner or admin.
func (s *Session) ListUsers(ctx context.Context, page, pageSize int) ([]UserResponse, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))

	resp, err := s.do(ctx, http.MethodGet, "/api/v1/users?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var out []UserResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) GetUser(ctx context.Context, userID string) (*UserResponse, error) {
	resp, err := s.do(ctx, http.MethodGet, "/api/v1/users/"+url.PathEscape(userID), nil)
	if err != nil {
		return nil, err
	}
	var out UserResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) DeleteUser(ctx context.Context, userID string) error {
	resp, err := s.do(ctx, http.MethodDelete, "/api/v1/users/"+url.PathEscape(userID), nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}
