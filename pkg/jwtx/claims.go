package jwtx

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sendhello/auth-service/pkg/idx"
)

// Operational token lifetimes.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
)

// Token types carried in the "type" claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims are the session claims shared by access and refresh tokens. The
// registered "sub" claim is the revocation key, not the user id.
type Claims struct {
	jwt.RegisteredClaims

	Type string `json:"type"`

	UserID    string `json:"user_id"`
	Login     string `json:"login,omitempty"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Status    string `json:"status,omitempty"`

	// OrgRoles maps organization id to the roles held there. Its keys are
	// exactly the user's memberships at issuance time.
	OrgRoles map[string][]string `json:"org_roles"`

	// Org is the selected organization, always a key of OrgRoles when set.
	Org *string `json:"org"`

	// PrimaryOrg is the membership flagged primary, used when no org is
	// selected or requested.
	PrimaryOrg string `json:"primary_org,omitempty"`

	// Scopes granted in Org, space-delimited. Empty when no org is selected.
	Scopes string `json:"scopes"`
}

// NewJTI returns a unique "jti" so that two tokens minted in the same second
// for the same claims never collide.
func NewJTI() string { return idx.New().String() }

// Stamp fills in the registered claims for a token of kind typ.
func (c Claims) Stamp(typ, subject, issuer string, ttl time.Duration, now time.Time) Claims {
	c.Type = typ
	c.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        NewJTI(),
	}
	return c
}

// ScopeList splits Scopes into its fields.
func (c Claims) ScopeList() []string {
	return strings.Fields(c.Scopes)
}

// SelectedOrg returns Org or "".
func (c Claims) SelectedOrg() string {
	if c.Org == nil {
		return ""
	}
	return *c.Org
}

// Remaining is the validity left at now, never negative.
func (c Claims) Remaining(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	d := c.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// ExpectType reports ErrTokenType unless the token is of kind typ.
func (c Claims) ExpectType(typ string) error {
	if c.Type != typ {
		return ErrTokenType
	}
	return nil
}
