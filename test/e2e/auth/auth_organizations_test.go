//go:build e2e

package auth_test

import (
	"testing"

	"github.com/sendhello/auth-service/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestBootstrapAdmin checks the admin seeded from configuration owns the
// administration organization.
func TestBootstrapAdmin(t *testing.T) {
	baseURL, cleanup := setupDefaultService(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)

	session, err := client.Login(t.Context(), adminEmail, adminPassword, "")
	require.NoError(t, err, "Bootstrapped admin should log in")

	orgs, err := session.ListOrganizations(t.Context())
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	require.Equal(t, adminOrgSlug, orgs[0].Slug)

	verified, err := session.Verify(t.Context())
	require.NoError(t, err)
	require.Equal(t, orgs[0].ID, verified.TenantID, "Primary organization is the fallback tenant")
	require.Equal(t, []string{"owner"}, verified.Roles)
}

// TestOrganizationRoles walks an organization through its roles:
// 1. Owner creates the organization and adds a viewer
// 2. Viewer is limited to viewer scopes
// 3. Promotion reaches the viewer's token on refresh
// 4. Removal takes the organization away on refresh
func TestOrganizationRoles(t *testing.T) {
	baseURL, cleanup := setupDefaultService(t)
	defer cleanup()

	ownerClient := authsdk.NewSDKClient(baseURL)
	viewerClient := authsdk.NewSDKClient(baseURL)

	signupUser(t, ownerClient, "owner@example.com")
	viewerID := signupUser(t, viewerClient, "viewer@example.com")

	owner := performLogin(t, ownerClient, "owner@example.com", "")
	org, err := owner.CreateOrganization(t.Context(), authsdk.OrganizationRequest{Name: "Acme", Slug: "acme"})
	require.NoError(t, err)
	t.Logf("Created organization %s", org.ID)

	// New membership is in the token after refresh
	owner.UseOrganization(org.ID)
	require.NoError(t, owner.Refresh(t.Context()))
	require.True(t, owner.HasScope("organisations:delete"))

	member, err := owner.AddMember(t.Context(), org.ID, authsdk.MembershipRequest{UserID: viewerID, Role: "viewer"})
	require.NoError(t, err)

	viewer := performLogin(t, viewerClient, "viewer@example.com", org.ID)
	require.True(t, viewer.HasScope("profile:read_self"))
	require.False(t, viewer.HasScope("organisations:read_self"))

	_, err = viewer.GetOrganization(t.Context(), org.ID)
	assertAPIError(t, err, authsdk.ErrInsufficientScope, "Viewer reading organization")

	_, err = viewer.ListMembers(t.Context(), org.ID)
	assertAPIError(t, err, authsdk.ErrAccessDenied, "Viewer listing members")

	_, err = viewer.Verify(t.Context(), "organisations:read_self")
	assertAPIError(t, err, authsdk.ErrInsufficientScope, "Viewer verifying a scope it lacks")

	// Promote
	dispatcher := "dispatcher"
	_, err = owner.UpdateMember(t.Context(), org.ID, member.ID, authsdk.MembershipUpdateRequest{Role: &dispatcher})
	require.NoError(t, err)

	require.NoError(t, viewer.Refresh(t.Context()))
	require.True(t, viewer.HasScope("organisations:read_self"))

	got, err := viewer.GetOrganization(t.Context(), org.ID)
	require.NoError(t, err)
	require.Equal(t, "acme", got.Slug)

	members, err := viewer.ListMembers(t.Context(), org.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	// Remove
	require.NoError(t, owner.RemoveMember(t.Context(), org.ID, member.ID))

	viewer.UseOrganization(org.ID)
	assertAPIError(t, viewer.Refresh(t.Context()), authsdk.ErrTenantDenied, "Refresh into a removed organization")
}

// TestTenantSelection checks that a login may only select organizations
// the user belongs to.
func TestTenantSelection(t *testing.T) {
	baseURL, cleanup := setupDefaultService(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	signupUser(t, client, "jane@example.com")

	session := performLogin(t, client, "jane@example.com", "")
	_, err := session.Verify(t.Context())
	assertAPIError(t, err, authsdk.ErrNoTenantContext, "Verify without memberships")

	first, err := session.CreateOrganization(t.Context(), authsdk.OrganizationRequest{Name: "First", Slug: "first"})
	require.NoError(t, err)
	second, err := session.CreateOrganization(t.Context(), authsdk.OrganizationRequest{Name: "Second", Slug: "second"})
	require.NoError(t, err)

	admin, err := client.Login(t.Context(), adminEmail, adminPassword, "")
	require.NoError(t, err)
	adminOrgs, err := admin.ListOrganizations(t.Context())
	require.NoError(t, err)
	require.Len(t, adminOrgs, 1)

	_, err = client.Login(t.Context(), "jane@example.com", userPassword, adminOrgs[0].ID)
	assertAPIError(t, err, authsdk.ErrTenantDenied, "Login into a foreign organization")

	session = performLogin(t, client, "jane@example.com", second.ID)
	verified, err := session.Verify(t.Context())
	require.NoError(t, err)
	require.Equal(t, second.ID, verified.TenantID)

	// The header overrides the token's selection
	session.UseOrganization(first.ID)
	verified, err = session.Verify(t.Context())
	require.NoError(t, err)
	require.Equal(t, first.ID, verified.TenantID)

	// Deleting takes effect immediately for the organization itself
	require.NoError(t, session.DeleteOrganization(t.Context(), first.ID))
	_, err = session.GetOrganization(t.Context(), first.ID)
	assertAPIError(t, err, authsdk.ErrNotFound, "Deleted organization")
}

// TestUserAdministration checks the admin organization manages every account
// while owners of other organizations cannot.
func TestUserAdministration(t *testing.T) {
	baseURL, cleanup := setupDefaultService(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	janeID := signupUser(t, client, "jane@example.com")

	admin, err := client.Login(t.Context(), adminEmail, adminPassword, "")
	require.NoError(t, err)

	users, err := admin.ListUsers(t.Context(), 1, 20)
	require.NoError(t, err)
	require.Len(t, users, 2)

	jane, err := admin.GetUser(t.Context(), janeID)
	require.NoError(t, err)
	require.Equal(t, "jane@example.com", jane.Email)

	// Jane owns an organization, which is not the admin one
	janeSession := performLogin(t, client, "jane@example.com", "")
	_, err = janeSession.CreateOrganization(t.Context(), authsdk.OrganizationRequest{Name: "Jane Co", Slug: "jane-co"})
	require.NoError(t, err)
	require.NoError(t, janeSession.Refresh(t.Context()))
	_, err = janeSession.ListUsers(t.Context(), 1, 20)
	assertAPIError(t, err, authsdk.ErrAccessDenied, "Other organizations may not list users")

	require.NoError(t, admin.DeleteUser(t.Context(), janeID))
	_, err = admin.GetUser(t.Context(), janeID)
	assertAPIError(t, err, authsdk.ErrNotFound, "Deleted user is gone")

	err = janeSession.Refresh(t.Context())
	assertAPIError(t, err, authsdk.ErrTokenRevoked, "Deleted user cannot refresh")
}
