// Package session issues, rotates and revokes the token pairs that carry a
// user's session claims, and authenticates access tokens on protected calls.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sendhello/auth-service/internal/auth/catalog"
	"github.com/sendhello/auth-service/internal/auth/domain"
	"github.com/sendhello/auth-service/internal/auth/revocation"
	"github.com/sendhello/auth-service/internal/auth/store"
	"github.com/sendhello/auth-service/internal/auth/tenancy"
	"github.com/sendhello/auth-service/pkg/cryptox"
	"github.com/sendhello/auth-service/pkg/jwtx"
	"github.com/sendhello/auth-service/pkg/slogx"
)

// UserLookup loads a user with current memberships. Rotation uses it so a
// refreshed pair reflects membership changes since login. A user that no
// longer exists is reported with an error wrapping store.ErrNotFound.
type UserLookup interface {
	UserWithMemberships(ctx context.Context, id uuid.UUID) (domain.User, error)
}

type Issuer struct {
	Signer      jwtx.Signer
	Verifier    jwtx.Verifier
	Revocations revocation.Store
	Users       UserLookup
	IssuerName  string // "iss" claim
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	Now         func() time.Time // defaults to time.Now
}

func (s *Issuer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// BuildClaims derives session claims from user's memberships with tenant
// selected. tenant must be empty or one of the memberships.
func BuildClaims(user domain.User, tenant string) (jwtx.Claims, error) {
	claims := jwtx.Claims{
		UserID:    user.ID.String(),
		Login:     user.Login,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Status:    string(user.Status),
		OrgRoles:  make(map[string][]string, len(user.Memberships)),
	}

	for _, m := range user.Memberships {
		org := m.OrgID.String()
		claims.OrgRoles[org] = append(claims.OrgRoles[org], m.Role.String())
		if m.IsPrimary {
			claims.PrimaryOrg = org
		}
	}

	if tenant == "" {
		return claims, nil
	}

	roles, ok := claims.OrgRoles[tenant]
	if !ok {
		return jwtx.Claims{}, tenancy.ErrTenantAccessDenied
	}
	selected := tenant
	claims.Org = &selected
	claims.Scopes = joinScopes(roles)
	return claims, nil
}

func joinScopes(roles []string) string {
	if len(roles) == 1 {
		return catalog.ScopeString(roles[0])
	}
	return strings.Join(tenancy.Context{Roles: roles}.Scopes(), " ")
}

// Issue signs a new access/refresh pair for user on device and records the
// refresh pointer. No tokens are returned unless the pointer write succeeds.
func (s *Issuer) Issue(ctx context.Context, user domain.User, device, tenant string) (domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := s.now()

	// 1. Claims from current memberships
	claims, err := BuildClaims(user, tenant)
	if err != nil {
		return domain.TokenPair{}, err
	}

	// 2. Sign both kinds with their own revocation key as subject
	userID := user.ID.String()
	accessKey := revocation.Key(revocation.KindAccess, userID, device)
	refreshKey := revocation.Key(revocation.KindRefresh, userID, device)

	accessToken, err := s.Signer.Sign(claims.Stamp(jwtx.TypeAccess, accessKey, s.IssuerName, s.AccessTTL, now))
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("session: sign access token: %w", err)
	}
	refreshToken, err := s.Signer.Sign(claims.Stamp(jwtx.TypeRefresh, refreshKey, s.IssuerName, s.RefreshTTL, now))
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("session: sign refresh token: %w", err)
	}

	// 3. Record the live refresh token before handing anything out
	if err := s.Revocations.SetRefreshPointer(ctx, refreshKey, refreshToken, s.RefreshTTL); err != nil {
		l.Error("refresh pointer write failed", slog.String("user_id", userID), slog.Any("err", err))
		return domain.TokenPair{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	l.Debug("token pair issued", slog.String("user_id", userID), slog.String("org", claims.SelectedOrg()))

	return domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.AccessTTL,
		Scope:        claims.Scopes,
	}, nil
}

// Rotate exchanges a live refresh token for a new pair. The stored pointer is
// deleted before the new pair is issued, so a presented refresh token can
// never be replayed even if issuance then fails. Two rotations racing on the
// same token may both pass the pointer check; both pairs then stay valid
// until the losing device logs out or rotates again.
func (s *Issuer) Rotate(ctx context.Context, refreshToken, device, requestedTenant string) (domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	// 1. Decode and verify
	claims, err := s.Verifier.Verify(refreshToken)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if err := claims.ExpectType(jwtx.TypeRefresh); err != nil {
		return domain.TokenPair{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	// 2. The presented token must be exactly the live pointer
	key := claims.Subject
	live, err := s.Revocations.RefreshPointer(ctx, key)
	switch {
	case errors.Is(err, revocation.ErrNoPointer):
		return domain.TokenPair{}, ErrTokenRevoked
	case err != nil:
		return domain.TokenPair{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if subtle.ConstantTimeCompare([]byte(live), []byte(refreshToken)) != 1 {
		l.Warn("refresh token replay rejected",
			slog.String("user_id", claims.UserID),
			slog.String("token_fp", cryptox.FingerprintToken(refreshToken)),
		)
		return domain.TokenPair{}, ErrTokenRevoked
	}

	// 3. Consume it unconditionally
	if err := s.Revocations.DeleteRefreshPointer(ctx, key); err != nil {
		return domain.TokenPair{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	// 4. Reload the user so memberships are current
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("%w: bad user id", ErrTokenInvalid)
	}
	user, err := s.Users.UserWithMemberships(ctx, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		l.Info("refresh for deleted user rejected", slog.String("user_id", claims.UserID))
		return domain.TokenPair{}, ErrTokenRevoked
	case err != nil:
		return domain.TokenPair{}, fmt.Errorf("session: load user: %w", err)
	}
	if user.Status != "" && user.Status != domain.UserStatusActive {
		return domain.TokenPair{}, ErrAccountInactive
	}

	// 5. Tenant: requested header, else the previous selection if still held
	tenant, err := rotationTenant(user, claims.SelectedOrg(), requestedTenant)
	if err != nil {
		return domain.TokenPair{}, err
	}

	return s.Issue(ctx, user, device, tenant)
}

func rotationTenant(user domain.User, previous, requested string) (string, error) {
	fresh, err := BuildClaims(user, "")
	if err != nil {
		return "", err
	}
	if requested != "" {
		ctx, err := tenancy.Resolve(fresh, requested)
		if err != nil {
			return "", err
		}
		return ctx.TenantID, nil
	}
	if _, ok := fresh.OrgRoles[previous]; ok {
		return previous, nil
	}
	return "", nil
}

// Revoke logs device out: the access token is blacklisted for the rest of its
// lifetime and the device's refresh pointer is deleted.
func (s *Issuer) Revoke(ctx context.Context, accessToken, device string) error {
	claims, err := s.Verifier.Verify(accessToken)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if err := claims.ExpectType(jwtx.TypeAccess); err != nil {
		return fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	ttl := claims.Remaining(s.now())
	if err := s.Revocations.Blacklist(ctx, claims.Subject, accessToken, ttl); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	refreshKey := revocation.Key(revocation.KindRefresh, claims.UserID, device)
	if err := s.Revocations.DeleteRefreshPointer(ctx, refreshKey); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	slogx.FromContext(ctx).Info("session revoked",
		slog.String("user_id", claims.UserID),
		slog.String("token_fp", cryptox.FingerprintToken(accessToken)),
	)
	return nil
}
