// Package tenancy resolves which organization a request acts in and gates
// access on the caller's role and scopes there. It works purely on claims
// already embedded in the token.
package tenancy

import (
	"errors"
	"slices"
	"strings"

	"github.com/sendhello/auth-service/internal/auth/catalog"
	"github.com/sendhello/auth-service/internal/auth/domain"
	"github.com/sendhello/auth-service/pkg/jwtx"
)

// Header carries the caller's requested organization.
const Header = "X-Organization-ID"

var (
	ErrTenantAccessDenied = errors.New("tenancy: organization not accessible")
	ErrNoTenantContext    = errors.New("tenancy: no organization context")
	ErrInsufficientRole   = errors.New("tenancy: insufficient role")
	ErrMissingScopes      = errors.New("tenancy: missing scopes")
)

// MissingScopesError lists the required scopes the caller lacks. It matches
// ErrMissingScopes with errors.Is.
type MissingScopesError struct {
	Missing []string
}

func (e *MissingScopesError) Error() string {
	return "tenancy: missing scopes: " + strings.Join(e.Missing, " ")
}

func (e *MissingScopesError) Is(target error) bool { return target == ErrMissingScopes }

// Context is the organization a request acts in and the caller's roles there.
type Context struct {
	TenantID string
	Roles    []string
}

// Resolve picks the active organization:
//  1. the requested one, when the caller is a member
//  2. ErrTenantAccessDenied, when requested but not a member
//  3. the org selected at issuance
//  4. the primary membership, else the lowest organization id
//  5. ErrNoTenantContext
func Resolve(claims jwtx.Claims, requested string) (Context, error) {
	requested = strings.TrimSpace(requested)
	if requested != "" {
		roles, ok := claims.OrgRoles[requested]
		if !ok {
			return Context{}, ErrTenantAccessDenied
		}
		return newContext(requested, roles), nil
	}

	if org := claims.SelectedOrg(); org != "" {
		if roles, ok := claims.OrgRoles[org]; ok {
			return newContext(org, roles), nil
		}
	}

	if tenant, ok := Fallback(claims.OrgRoles, claims.PrimaryOrg); ok {
		return newContext(tenant, claims.OrgRoles[tenant]), nil
	}

	return Context{}, ErrNoTenantContext
}

// Fallback chooses an organization when none was requested or selected:
// primary when it is a membership, otherwise the lowest id. Map order never
// decides.
func Fallback(orgRoles map[string][]string, primary string) (string, bool) {
	if len(orgRoles) == 0 {
		return "", false
	}
	if _, ok := orgRoles[primary]; ok && primary != "" {
		return primary, true
	}

	ids := make([]string, 0, len(orgRoles))
	for id := range orgRoles {
		ids = append(ids, id)
	}
	return slices.Min(ids), true
}

func newContext(tenant string, roles []string) Context {
	return Context{TenantID: tenant, Roles: slices.Clone(roles)}
}

// Scopes is the union of the catalog scopes of every role held.
func (c Context) Scopes() []string {
	var out []string
	for _, r := range c.Roles {
		out = append(out, catalog.RoleScopes(r)...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// HasRole reports whether any held role is listed in allowed.
func (c Context) HasRole(allowed ...domain.Role) bool {
	for _, r := range c.Roles {
		if slices.Contains(allowed, domain.Role(r)) {
			return true
		}
	}
	return false
}

// RequireRole succeeds only if a held role is explicitly listed in allowed.
// There is no hierarchy: owner does not imply admin unless both are listed.
func RequireRole(c Context, allowed ...domain.Role) error {
	if !c.HasRole(allowed...) {
		return ErrInsufficientRole
	}
	return nil
}

// RequireScopes succeeds when the held roles grant every required scope.
func RequireScopes(c Context, required ...string) error {
	if missing := catalog.Missing(c.Scopes(), required); len(missing) > 0 {
		return &MissingScopesError{Missing: missing}
	}
	return nil
}
