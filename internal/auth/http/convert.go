package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/sendhello/auth-service/internal/auth/domain"
	"github.com/sendhello/auth-service/internal/auth/service"
	"github.com/sendhello/auth-service/internal/auth/session"
	"github.com/sendhello/auth-service/pkg/authsdk"
	"github.com/sendhello/auth-service/pkg/jwtx"
)

const maxBodyBytes = 1 << 20

// decodeBody reads a JSON request body into v. Malformed bodies surface as
// service.ErrInvalidInput.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: request body: %v", service.ErrInvalidInput, err)
	}
	return nil
}

func invalidParam(reason string) error {
	return fmt.Errorf("%w: %s", service.ErrInvalidInput, reason)
}

// pathUUID parses a path parameter as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, invalidParam(name + " must be a UUID")
	}
	return id, nil
}

// callerID is the authenticated user's id.
func callerID(claims jwtx.Claims) (uuid.UUID, error) {
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad user id", session.ErrTokenInvalid)
	}
	return id, nil
}

func toTokenPair(p domain.TokenPair) authsdk.TokenPairResponse {
	return authsdk.TokenPairResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    p.TokenType,
		ExpiresIn:    int(p.ExpiresIn.Seconds()),
		Scope:        p.Scope,
	}
}

func toUser(u domain.User) authsdk.UserResponse {
	return authsdk.UserResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		Login:     u.Login,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Status:    string(u.Status),
		CreatedAt: u.CreatedAt,
	}
}

func toProfile(c jwtx.Claims) authsdk.ProfileResponse {
	scopes := c.ScopeList()
	if scopes == nil {
		scopes = []string{}
	}
	orgRoles := c.OrgRoles
	if orgRoles == nil {
		orgRoles = map[string][]string{}
	}
	return authsdk.ProfileResponse{
		UserID:     c.UserID,
		Email:      c.Email,
		Login:      c.Login,
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		Status:     c.Status,
		OrgRoles:   orgRoles,
		Org:        c.Org,
		PrimaryOrg: c.PrimaryOrg,
		Scopes:     scopes,
	}
}

func toOrganization(o domain.Organization) authsdk.OrganizationResponse {
	return authsdk.OrganizationResponse{
		ID:     o.ID.String(),
		Name:   o.Name,
		Slug:   o.Slug,
		Plan:   o.Plan,
		Status: o.Status,
	}
}

func toMembership(m domain.Membership) authsdk.MembershipResponse {
	return authsdk.MembershipResponse{
		ID:        m.ID.String(),
		OrgID:     m.OrgID.String(),
		UserID:    m.UserID.String(),
		Role:      m.Role.String(),
		IsPrimary: m.IsPrimary,
	}
}
