// Package catalog maps membership roles to the scope strings that downstream
// services check. The mapping is static and has no state.
package catalog

import (
	"slices"
	"strings"

	"github.com/sendhello/auth-service/internal/auth/domain"
)

// Services that publish scopes, in catalog order.
const (
	ServiceProfile       = "profile"
	ServiceUsers         = "users"
	ServiceOrganisations = "organisations"
	ServiceRoutes        = "routes"
	ServiceCouriers      = "couriers"
	ServiceMedia         = "media"
)

// Scope actions. read/write act on any record of the service, the _self
// variants only on records owned by the caller.
const (
	ActionRead      = "read"
	ActionWrite     = "write"
	ActionDelete    = "delete"
	ActionReadSelf  = "read_self"
	ActionWriteSelf = "write_self"
)

// Services returns every service in catalog order.
func Services() []string {
	return []string{
		ServiceProfile,
		ServiceUsers,
		ServiceOrganisations,
		ServiceRoutes,
		ServiceCouriers,
		ServiceMedia,
	}
}

// Scope formats "{service}:{action}".
func Scope(service, action string) string {
	return service + ":" + action
}

// FullAccess is every action on service. Delete is included so a role that
// fully manages a service, like the dispatcher with users, may remove records.
func FullAccess(service string) []string {
	return []string{
		Scope(service, ActionRead),
		Scope(service, ActionWrite),
		Scope(service, ActionDelete),
		Scope(service, ActionReadSelf),
		Scope(service, ActionWriteSelf),
	}
}

var bundles = map[domain.Role][]string{
	domain.RoleOwner: everything(),
	domain.RoleAdmin: everything(),
	domain.RoleDispatcher: concat(
		[]string{Scope(ServiceProfile, ActionWriteSelf), Scope(ServiceProfile, ActionReadSelf)},
		FullAccess(ServiceUsers),
		[]string{Scope(ServiceOrganisations, ActionReadSelf)},
		FullAccess(ServiceRoutes),
		FullAccess(ServiceCouriers),
		[]string{Scope(ServiceMedia, ActionRead), Scope(ServiceMedia, ActionWriteSelf)},
	),
	domain.RoleCourier: {
		Scope(ServiceProfile, ActionWriteSelf),
		Scope(ServiceOrganisations, ActionReadSelf),
		Scope(ServiceRoutes, ActionReadSelf),
		Scope(ServiceRoutes, ActionWriteSelf),
		Scope(ServiceCouriers, ActionReadSelf),
		Scope(ServiceCouriers, ActionWriteSelf),
		Scope(ServiceMedia, ActionReadSelf),
		Scope(ServiceMedia, ActionWriteSelf),
	},
	domain.RoleViewer: {
		Scope(ServiceProfile, ActionReadSelf),
	},
}

// RoleScopes returns the sorted scope set granted to role. Unknown roles get
// an empty set. The returned slice is a fresh copy on every call.
func RoleScopes(role string) []string {
	src, ok := bundles[domain.Role(role)]
	if !ok {
		return []string{}
	}
	out := slices.Clone(src)
	slices.Sort(out)
	return slices.Compact(out)
}

// ScopeString is RoleScopes joined with single spaces, the claims format.
func ScopeString(role string) string {
	return strings.Join(RoleScopes(role), " ")
}

// Missing returns the entries of required that granted does not contain,
// in the order they were required.
func Missing(granted, required []string) []string {
	have := make(map[string]struct{}, len(granted))
	for _, s := range granted {
		have[s] = struct{}{}
	}

	var missing []string
	for _, s := range required {
		if _, ok := have[s]; !ok {
			missing = append(missing, s)
		}
	}
	return missing
}

func everything() []string {
	var out []string
	for _, svc := range Services() {
		out = append(out, FullAccess(svc)...)
	}
	return out
}

func concat(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
