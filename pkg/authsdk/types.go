package authsdk

import (
	"time"

	"github.com/sendhello/auth-service/pkg/jwtx"
)

// ============================================================================
// Account Types
// ============================================================================

// SignupRequest is the body of POST /api/v1/auth/signup.
type SignupRequest struct {
	Email          string `json:"email" example:"jane@example.com"`
	Login          string `json:"login,omitempty" example:"jane"`
	Password       string `json:"password" example:"correct-horse"`
	RepeatPassword string `json:"repeat_password" example:"correct-horse"`
	FirstName      string `json:"first_name" example:"Jane"`
	LastName       string `json:"last_name" example:"Doe"`

	// Phone must start with 0 and be 10 to 15 characters long
	Phone string `json:"phone" example:"0412345678"`
}

// LoginRequest is the body of POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" example:"jane@example.com"`
	Password string `json:"password" example:"correct-horse"`
}

// UserResponse is a user's stored profile.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Login     string    `json:"login,omitempty"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ProfileResponse is the caller's identity as carried in the access token.
type ProfileResponse struct {
	UserID     string              `json:"user_id"`
	Email      string              `json:"email"`
	Login      string              `json:"login,omitempty"`
	FirstName  string              `json:"first_name,omitempty"`
	LastName   string              `json:"last_name,omitempty"`
	Status     string              `json:"status,omitempty"`
	OrgRoles   map[string][]string `json:"org_roles"`
	Org        *string             `json:"org"`
	PrimaryOrg string              `json:"primary_org,omitempty"`
	Scopes     []string            `json:"scopes"`
}

// ProfileUpdateRequest changes profile fields. Omitted fields are left as they are.
type ProfileUpdateRequest struct {
	Login           *string `json:"login,omitempty"`
	FirstName       *string `json:"first_name,omitempty"`
	LastName        *string `json:"last_name,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	CurrentPassword string  `json:"current_password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// HistoryEntry is one successful sign-in.
type HistoryEntry struct {
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

// ============================================================================
// Token Types
// ============================================================================

// TokenPairResponse is returned by login and refresh.
type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`

	// TokenType is always "Bearer"
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token
	ExpiresIn int `json:"expires_in"`

	// Scope is the space-delimited scopes granted in the selected organization
	Scope string `json:"scope,omitempty"`
}

// VerifyResponse describes a validated access token in its resolved
// organization. Downstream services call GET /api/v1/verify to obtain it.
type VerifyResponse struct {
	UserID   string   `json:"user_id"`
	Email    string   `json:"email"`
	TenantID string   `json:"tenant_id"`
	Roles    []string `json:"roles"`
	Scopes   []string `json:"scopes"`
}

// ============================================================================
// Organization Types
// ============================================================================

type OrganizationRequest struct {
	Name string `json:"name" example:"Acme Deliveries"`
	Slug string `json:"slug" example:"acme"`

	// Plan is one of free, pro, enterprise (default free)
	Plan string `json:"plan,omitempty" example:"free"`

	// Status is one of active, pending, suspended (default active)
	Status string `json:"status,omitempty" example:"active"`
}

// OrganizationUpdateRequest changes organization fields. Omitted fields are
// left as they are.
type OrganizationUpdateRequest struct {
	Name   *string `json:"name,omitempty"`
	Plan   *string `json:"plan,omitempty"`
	Status *string `json:"status,omitempty"`
}

type OrganizationResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Plan   string `json:"plan"`
	Status string `json:"status"`
}

type MembershipRequest struct {
	UserID string `json:"user_id"`

	// Role is one of viewer, courier, dispatcher, admin, owner
	Role      string `json:"role" example:"dispatcher"`
	IsPrimary bool   `json:"is_primary"`
}

// MembershipUpdateRequest changes a membership. Omitted fields are left as they are.
type MembershipUpdateRequest struct {
	Role      *string `json:"role,omitempty"`
	IsPrimary *bool   `json:"is_primary,omitempty"`
}

type MembershipResponse struct {
	ID        string `json:"id"`
	OrgID     string `json:"org_id"`
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	IsPrimary bool   `json:"is_primary"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz (readyz adds Checks).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// Database indicates the relational store status
	Database string `json:"database"`

	// Redis indicates the revocation and rate-limit store status
	Redis string `json:"redis"`
}

// ============================================================================
// JWKS Types
// ============================================================================

// JWKSResponse contains the JSON Web Key Set published at
// /.well-known/jwks.json. It is empty for HS256 deployments.
type JWKSResponse jwtx.JWKS
