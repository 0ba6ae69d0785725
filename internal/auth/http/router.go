package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sendhello/auth-service/internal/auth/domain"
	"github.com/sendhello/auth-service/internal/auth/service"
	"github.com/sendhello/auth-service/internal/auth/session"
	"github.com/sendhello/auth-service/pkg/httpx"
	"github.com/sendhello/auth-service/pkg/jwtx"
	"github.com/sendhello/auth-service/pkg/slogx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	_ "github.com/sendhello/auth-service/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Limits are the in-process rate limit profiles applied per route group.
type Limits struct {
	Strict   httpx.RateLimitConfig
	Moderate httpx.RateLimitConfig
	Lenient  httpx.RateLimitConfig
	Public   httpx.RateLimitConfig
}

// DefaultLimits returns the stock httpx profiles.
func DefaultLimits() Limits {
	return Limits{
		Strict:   httpx.StrictLimit,
		Moderate: httpx.ModerateLimit,
		Lenient:  httpx.LenientLimit,
		Public:   httpx.PublicLimit,
	}
}

// Deps are the collaborators the router wires into its handlers.
type Deps struct {
	Logger  *slog.Logger
	Version string

	// Debug exposes role and scope detail in 403 bodies.
	Debug bool
	// RequireRequestID rejects requests without X-Request-ID.
	RequireRequestID bool
	Limits           Limits

	Guard         *session.Guard
	Issuer        *session.Issuer
	Accounts      *service.AccountService
	Organizations *service.OrganizationService

	// AdminOrgID is the organization whose owners and admins manage every
	// account. uuid.Nil turns the user administration routes into 403s.
	AdminOrgID uuid.UUID

	Database Pinger
	Redis    Pinger
	Keys     jwtx.JWKS
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	deps      Deps
	rs        responder
	startTime time.Time
}

func NewRouter(deps Deps) *Router {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Limits == (Limits{}) {
		deps.Limits = DefaultLimits()
	}

	r := &Router{
		Mux:       http.NewServeMux(),
		deps:      deps,
		rs:        responder{debug: deps.Debug},
		startTime: time.Now(),
	}

	// Request id enforcement runs before logging so rejected requests are
	// still answered without a generated id.
	r.middlewares = []httpx.Middleware{
		httpx.RequireRequestID(deps.RequireRequestID),
		slogx.HTTPMiddleware(deps.Logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerProfile()
	r.registerOrganizations()
	r.registerUsers()
	r.registerVerify()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Auth Service API
//	@version		0.1.0
//	@description	Session and access-control service: signup and login, rotating refresh tokens,
//	@description	token revocation, per-organization roles and scopes, and token verification
//	@description	for downstream services.
//	@description
//	@description				Access tokens are signed with HS256 or EdDSA. EdDSA keys are published at /.well-known/jwks.json.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// Handler returns the router wrapped in OpenTelemetry server instrumentation.
func (r *Router) Handler() http.Handler {
	return otelhttp.NewHandler(r, "auth-service",
		otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
			return req.Method + " " + req.URL.Path
		}),
	)
}

// authenticated verifies the bearer access token before mws run.
func (r *Router) authenticated(h http.Handler, mws ...httpx.Middleware) http.Handler {
	chain := append([]httpx.Middleware{httpx.Authn(r.deps.Guard, r.rs.fail)}, mws...)
	return httpx.Chain(h, chain...)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		responder: r.rs,
		Accounts:  r.deps.Accounts,
		Issuer:    r.deps.Issuer,
	}
	limits := r.deps.Limits

	// Credential endpoints - strict limit by IP (brute force prevention)
	r.Mux.Handle("POST /api/v1/auth/signup",
		httpx.Chain(http.HandlerFunc(h.HandleSignup),
			httpx.RateLimitByIP(limits.Strict),
		),
	)
	r.Mux.Handle("POST /api/v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(limits.Strict),
		),
	)

	// Refresh carries a refresh token, which the access Guard would reject
	r.Mux.Handle("POST /api/v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(limits.Moderate),
		),
	)

	r.Mux.Handle("POST /api/v1/auth/logout", r.authenticated(http.HandlerFunc(h.HandleLogout)))
}

func (r *Router) registerProfile() {
	h := &ProfileHandler{
		responder: r.rs,
		Accounts:  r.deps.Accounts,
	}

	r.Mux.Handle("GET /api/v1/profile", r.authenticated(http.HandlerFunc(h.HandleGet)))
	r.Mux.Handle("GET /api/v1/profile/history", r.authenticated(http.HandlerFunc(h.HandleHistory)))
	r.Mux.Handle("POST /api/v1/profile/update", r.authenticated(http.HandlerFunc(h.HandleUpdate)))

	// Password changes check the current password - strict limit by user
	r.Mux.Handle("POST /api/v1/profile/change_password",
		r.authenticated(http.HandlerFunc(h.HandleChangePassword),
			httpx.RateLimitByUser(r.deps.Limits.Strict),
		),
	)
}

func (r *Router) registerOrganizations() {
	h := &OrganizationsHandler{
		responder:     r.rs,
		Organizations: r.deps.Organizations,
	}

	tenant := r.rs.requireTenant()
	managers := r.rs.requireRoles(domain.RoleOwner, domain.RoleAdmin)
	viewers := r.rs.requireRoles(domain.RoleOwner, domain.RoleAdmin, domain.RoleDispatcher)

	// Any authenticated user may create an organization; they become its owner
	r.Mux.Handle("POST /api/v1/organizations",
		r.authenticated(http.HandlerFunc(h.HandleCreate),
			httpx.RateLimitByUser(r.deps.Limits.Moderate),
		),
	)
	r.Mux.Handle("GET /api/v1/organizations", r.authenticated(http.HandlerFunc(h.HandleList), tenant))

	r.Mux.Handle("GET /api/v1/organizations/{org_id}",
		r.authenticated(http.HandlerFunc(h.HandleGet),
			tenant,
			r.rs.requireScopes("organisations:read_self"),
		),
	)
	r.Mux.Handle("PUT /api/v1/organizations/{org_id}",
		r.authenticated(http.HandlerFunc(h.HandleUpdate), tenant, managers),
	)
	r.Mux.Handle("DELETE /api/v1/organizations/{org_id}",
		r.authenticated(http.HandlerFunc(h.HandleDelete), tenant, managers),
	)

	r.Mux.Handle("GET /api/v1/organizations/{org_id}/memberships",
		r.authenticated(http.HandlerFunc(h.HandleListMembers), tenant, viewers),
	)
	r.Mux.Handle("POST /api/v1/organizations/{org_id}/memberships",
		r.authenticated(http.HandlerFunc(h.HandleAddMember), tenant, managers),
	)
	r.Mux.Handle("PUT /api/v1/organizations/{org_id}/memberships/{membership_id}",
		r.authenticated(http.HandlerFunc(h.HandleUpdateMember), tenant, managers),
	)
	r.Mux.Handle("DELETE /api/v1/organizations/{org_id}/memberships/{membership_id}",
		r.authenticated(http.HandlerFunc(h.HandleRemoveMember), tenant, managers),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{
		responder: r.rs,
		Accounts:  r.deps.Accounts,
	}

	tenant := r.rs.requireTenant()
	adminOrg := r.rs.requireAdminOrg(r.deps.AdminOrgID)
	managers := r.rs.requireRoles(domain.RoleOwner, domain.RoleAdmin)

	// Acting in the admin organization as owner or admin
	r.Mux.Handle("GET /api/v1/users",
		r.authenticated(http.HandlerFunc(h.HandleList),
			tenant, adminOrg, managers, r.rs.requireScopes("users:read"),
		),
	)
	r.Mux.Handle("GET /api/v1/users/{user_id}",
		r.authenticated(http.HandlerFunc(h.HandleGet),
			tenant, adminOrg, managers, r.rs.requireScopes("users:read"),
		),
	)
	r.Mux.Handle("DELETE /api/v1/users/{user_id}",
		r.authenticated(http.HandlerFunc(h.HandleDelete),
			tenant, adminOrg, managers, r.rs.requireScopes("users:delete"),
		),
	)
}

func (r *Router) registerVerify() {
	h := &VerifyHandler{responder: r.rs}
	r.Mux.Handle("GET /api/v1/verify", r.authenticated(h, r.rs.requireTenant()))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.deps.Version),
			httpx.RateLimitByIP(r.deps.Limits.Lenient),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.deps.Version, r.deps.Database, r.deps.Redis),
			httpx.RateLimitByIP(r.deps.Limits.Lenient),
		),
	)

	// GET /jwks.json - public endpoint with high limit
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.deps.Keys),
			httpx.RateLimitByIP(r.deps.Limits.Public),
		),
	)
}
