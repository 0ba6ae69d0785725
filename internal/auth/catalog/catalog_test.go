package catalog_test

import (
	"strings"
	"testing"

	"github.com/sendhello/auth-service/internal/auth/catalog"
	"github.com/sendhello/auth-service/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestRoleScopes(t *testing.T) {
	t.Parallel()

	t.Run("owner and admin hold full access everywhere", func(t *testing.T) {
		for _, role := range []domain.Role{domain.RoleOwner, domain.RoleAdmin} {
			scopes := catalog.RoleScopes(role.String())
			require.Len(t, scopes, len(catalog.Services())*5)
			for _, svc := range catalog.Services() {
				require.Empty(t, catalog.Missing(scopes, catalog.FullAccess(svc)), "%s on %s", role, svc)
			}
		}
	})

	t.Run("dispatcher bundle", func(t *testing.T) {
		scopes := catalog.RoleScopes("dispatcher")
		require.Empty(t, catalog.Missing(scopes, []string{
			"profile:write_self", "profile:read_self",
			"users:read", "users:write", "users:delete",
			"routes:write", "couriers:read_self",
			"media:read", "media:write_self",
			"organisations:read_self",
		}))
		require.NotContains(t, scopes, "media:write")
		require.NotContains(t, scopes, "organisations:read")
		require.NotContains(t, scopes, "profile:write")
	})

	t.Run("courier bundle", func(t *testing.T) {
		require.Equal(t, []string{
			"couriers:read_self",
			"couriers:write_self",
			"media:read_self",
			"media:write_self",
			"organisations:read_self",
			"profile:write_self",
			"routes:read_self",
			"routes:write_self",
		}, catalog.RoleScopes("courier"))
	})

	t.Run("viewer reads own profile only", func(t *testing.T) {
		require.Equal(t, []string{"profile:read_self"}, catalog.RoleScopes("viewer"))
	})

	t.Run("unknown role maps to empty set", func(t *testing.T) {
		require.Empty(t, catalog.RoleScopes("superuser"))
		require.Empty(t, catalog.RoleScopes(""))
		require.NotNil(t, catalog.RoleScopes("superuser"))
	})
}

func TestRoleScopesIsPure(t *testing.T) {
	t.Parallel()

	first := catalog.RoleScopes("owner")
	first[0] = "tampered"

	second := catalog.RoleScopes("owner")
	third := catalog.RoleScopes("owner")
	require.Equal(t, second, third)
	require.NotContains(t, second, "tampered")
}

func TestScopeString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "profile:read_self", catalog.ScopeString("viewer"))
	require.Equal(t, "", catalog.ScopeString("nobody"))

	s := catalog.ScopeString("courier")
	require.Equal(t, catalog.RoleScopes("courier"), strings.Split(s, " "))
}

func TestMissing(t *testing.T) {
	t.Parallel()

	t.Run("dispatcher may delete users", func(t *testing.T) {
		require.Empty(t, catalog.Missing(catalog.RoleScopes("dispatcher"), []string{"users:delete"}))
	})

	t.Run("courier may not delete users", func(t *testing.T) {
		require.Equal(t,
			[]string{"users:delete"},
			catalog.Missing(catalog.RoleScopes("courier"), []string{"users:delete"}),
		)
	})

	t.Run("keeps requirement order", func(t *testing.T) {
		missing := catalog.Missing([]string{"b"}, []string{"c", "b", "a"})
		require.Equal(t, []string{"c", "a"}, missing)
	})
}
