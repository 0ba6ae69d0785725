package session_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sendhello/auth-service/internal/auth/domain"
	"github.com/sendhello/auth-service/internal/auth/ratelimit"
	"github.com/sendhello/auth-service/internal/auth/revocation"
	"github.com/sendhello/auth-service/internal/auth/session"
	"github.com/sendhello/auth-service/internal/auth/store"
	"github.com/sendhello/auth-service/internal/auth/tenancy"
	"github.com/sendhello/auth-service/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const (
	device = "Mozilla/5.0 (X11; Linux x86_64)"
	issuer = "auth-test"
)

var (
	orgA = uuid.MustParse("a0000000-0000-0000-0000-00000000000a")
	orgB = uuid.MustParse("b0000000-0000-0000-0000-00000000000b")
	orgC = uuid.MustParse("c0000000-0000-0000-0000-00000000000c")
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]domain.User
}

func (f *fakeUsers) put(u domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
}

func (f *fakeUsers) UserWithMemberships(_ context.Context, id uuid.UUID) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

type fixture struct {
	issuer *session.Issuer
	guard  *session.Guard
	users  *fakeUsers
	mr     *miniredis.Miniredis
	user   domain.User
}

func newFixture(t *testing.T, limit int) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	hs, err := jwtx.NewHS256([]byte("session-test-secret"), jwtx.VerifyOptions{Issuer: issuer})
	require.NoError(t, err)

	revocations := revocation.NewRedisStore(client)
	user := domain.User{
		ID:     uuid.New(),
		Email:  "owner@example.com",
		Status: domain.UserStatusActive,
		Memberships: []domain.Membership{
			{OrgID: orgA, Role: domain.RoleOwner, IsPrimary: true},
			{OrgID: orgB, Role: domain.RoleViewer},
		},
	}
	users := &fakeUsers{users: map[uuid.UUID]domain.User{}}
	users.put(user)

	return &fixture{
		issuer: &session.Issuer{
			Signer:      hs,
			Verifier:    hs,
			Revocations: revocations,
			Users:       users,
			IssuerName:  issuer,
			AccessTTL:   15 * time.Minute,
			RefreshTTL:  30 * 24 * time.Hour,
		},
		guard: &session.Guard{
			Verifier:    hs,
			Limiter:     ratelimit.NewFixedWindow(client, limit).WithClock(func() time.Time { return time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC) }),
			Revocations: revocations,
		},
		users: users,
		mr:    mr,
		user:  user,
	}
}

func (f *fixture) refreshKey() string {
	return revocation.Key(revocation.KindRefresh, f.user.ID.String(), device)
}

func TestIssue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("records the refresh pointer", func(t *testing.T) {
		f := newFixture(t, 0)

		pair, err := f.issuer.Issue(ctx, f.user, device, orgA.String())
		require.NoError(t, err)
		require.Equal(t, "Bearer", pair.TokenType)
		require.Equal(t, 15*time.Minute, pair.ExpiresIn)

		stored, err := f.mr.Get(f.refreshKey())
		require.NoError(t, err)
		require.Equal(t, pair.RefreshToken, stored)
		require.Equal(t, 30*24*time.Hour, f.mr.TTL(f.refreshKey()))
	})

	t.Run("claims carry memberships and selected scopes", func(t *testing.T) {
		f := newFixture(t, 0)

		pair, err := f.issuer.Issue(ctx, f.user, device, orgB.String())
		require.NoError(t, err)

		claims, err := f.issuer.Verifier.Verify(pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, jwtx.TypeAccess, claims.Type)
		require.Equal(t, revocation.Key(revocation.KindAccess, f.user.ID.String(), device), claims.Subject)
		require.Equal(t, map[string][]string{
			orgA.String(): {"owner"},
			orgB.String(): {"viewer"},
		}, claims.OrgRoles)
		require.Equal(t, orgB.String(), claims.SelectedOrg())
		require.Equal(t, orgA.String(), claims.PrimaryOrg)
		require.Equal(t, "profile:read_self", claims.Scopes)
		require.Equal(t, claims.Scopes, pair.Scope)

		refresh, err := f.issuer.Verifier.Verify(pair.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, jwtx.TypeRefresh, refresh.Type)
		require.Equal(t, f.refreshKey(), refresh.Subject)
		require.Equal(t, claims.OrgRoles, refresh.OrgRoles)
	})

	t.Run("no tenant means empty scopes", func(t *testing.T) {
		f := newFixture(t, 0)

		pair, err := f.issuer.Issue(ctx, f.user, device, "")
		require.NoError(t, err)

		claims, err := f.issuer.Verifier.Verify(pair.AccessToken)
		require.NoError(t, err)
		require.Nil(t, claims.Org)
		require.Empty(t, claims.Scopes)
	})

	t.Run("tenant outside memberships is rejected", func(t *testing.T) {
		f := newFixture(t, 0)

		pair, err := f.issuer.Issue(ctx, f.user, device, orgC.String())
		require.ErrorIs(t, err, tenancy.ErrTenantAccessDenied)
		require.Empty(t, pair.AccessToken)
		require.False(t, f.mr.Exists(f.refreshKey()))
	})

	t.Run("store outage returns no tokens", func(t *testing.T) {
		f := newFixture(t, 0)
		f.mr.Close()

		pair, err := f.issuer.Issue(ctx, f.user, device, "")
		require.ErrorIs(t, err, session.ErrStoreUnavailable)
		require.Equal(t, domain.TokenPair{}, pair)
	})

	t.Run("missing device is tolerated", func(t *testing.T) {
		f := newFixture(t, 0)

		_, err := f.issuer.Issue(ctx, f.user, "", "")
		require.NoError(t, err)
		require.True(t, f.mr.Exists(revocation.Key(revocation.KindRefresh, f.user.ID.String(), "")))
	})
}

func TestGuard(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("limit one allows a single call per bucket", func(t *testing.T) {
		f := newFixture(t, 1)
		pair, err := f.issuer.Issue(ctx, f.user, device, orgA.String())
		require.NoError(t, err)

		claims, err := f.guard.Authenticate(ctx, pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, f.user.ID.String(), claims.UserID)

		_, err = f.guard.Authenticate(ctx, pair.AccessToken)
		require.ErrorIs(t, err, session.ErrRateLimited)
	})

	t.Run("zero limit never rate limits", func(t *testing.T) {
		f := newFixture(t, 0)
		pair, err := f.issuer.Issue(ctx, f.user, device, "")
		require.NoError(t, err)

		for i := 0; i < 200; i++ {
			_, err := f.guard.Authenticate(ctx, pair.AccessToken)
			require.NoError(t, err)
		}
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		f := newFixture(t, 0)
		pair, err := f.issuer.Issue(ctx, f.user, device, "")
		require.NoError(t, err)

		_, err = f.guard.Authenticate(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, session.ErrTokenInvalid)
	})

	t.Run("garbage token", func(t *testing.T) {
		f := newFixture(t, 0)
		_, err := f.guard.Authenticate(ctx, "garbage")
		require.ErrorIs(t, err, session.ErrTokenInvalid)
	})

	t.Run("store outage fails closed", func(t *testing.T) {
		f := newFixture(t, 5)
		pair, err := f.issuer.Issue(ctx, f.user, device, "")
		require.NoError(t, err)
		f.mr.Close()

		_, err = f.guard.Authenticate(ctx, pair.AccessToken)
		require.ErrorIs(t, err, session.ErrStoreUnavailable)
	})

	t.Run("store outage fails closed without limiter", func(t *testing.T) {
		f := newFixture(t, 0)
		pair, err := f.issuer.Issue(ctx, f.user, device, "")
		require.NoError(t, err)
		f.mr.Close()

		_, err = f.guard.Authenticate(ctx, pair.AccessToken)
		require.ErrorIs(t, err, session.ErrStoreUnavailable)
	})
}

func TestRotate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("refresh token is single use", func(t *testing.T) {
		f := newFixture(t, 0)
		pair, err := f.issuer.Issue(ctx, f.user, device, orgA.String())
		require.NoError(t, err)

		next, err := f.issuer.Rotate(ctx, pair.RefreshToken, device, "")
		require.NoError(t, err)
		require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

		_, err = f.issuer.Rotate(ctx, pair.RefreshToken, device, "")
		require.ErrorIs(t, err, session.ErrTokenRevoked)

		_, err = f.issuer.Rotate(ctx, next.RefreshToken, device, "")
		require.NoError(t, err)
	})

	t.Run("keeps the previous org", func(t *testing.T) {
		f := newFixture(t, 0)
		pair, err := f.issuer.Issue(ctx, f.user, device, orgB.String())
		require.NoError(t, err)

		next, err := f.issuer.Rotate(ctx, pair.RefreshToken, device, "")
		require.NoError(t, err)

		claims, err := f.issuer.Verifier.Verify(next.AccessToken)
		require.NoError(t, err)
		require.Equal(t, orgB.String(), claims.SelectedOrg())
		require.Equal(t, "profile:read_self", claims.Scopes)
	})

	t.Run("switches org from header", func(t *testing.T) {
		f := newFixture(t, 0)
		pair, err := f.issuer.Issue(ctx, f.user, device, orgB.String())
		require.NoError(t, err)

		next, err := f.issuer.Rotate(ctx, pair.RefreshToken, device, orgA.String())
		require.NoError(t, err)

		claims, err := f.issuer.Verifier.Verify(next.AccessToken)
		require.NoError(t, err)
		require.Equal(t, orgA.String(), claims.SelectedOrg())
		require.Contains(t, claims.ScopeList(), "users:delete")
	})

	t.Run("picks up membership changes", func(t *testing.T) {
		f := newFixture(t, 0)
		pair, err := f.issuer.Issue(ctx, f.user, device, orgB.String())
		require.NoError(t, err)

		changed := f.user
		changed.Memberships = []domain.Membership{{OrgID: orgC, Role: domain.RoleCourier}}
		f.users.put(changed)

		next, err := f.issuer.Rotate(ctx, pair.RefreshToken, device, "")
		require.NoError(t, err)

		claims, err := f.issuer.Verifier.Verify(next.AccessToken)
		require.NoError(t, err)
		require.Equal(t, map[string][]string{orgC.String(): {"courier"}}, claims.OrgRoles)
		require.Nil(t, claims.Org, "previous org no longer held")
	})

	t.Run("denied tenant still consumes the token", func(t *testing.T) {
		f := newFixture(t, 0)
		pair, err := f.issuer.Issue(ctx, f.user, device, "")
		require.NoError(t, err)

		_, err = f.issuer.Rotate(ctx, pair.RefreshToken, device, orgC.String())
		require.ErrorIs(t, err, tenancy.ErrTenantAccessDenied)

		_, err = f.issuer.Rotate(ctx, pair.RefreshToken, device, "")
		require.ErrorIs(t, err, session.ErrTokenRevoked)
	})

	t.Run("access token cannot rotate", func(t *testing.T) {
		f := newFixture(t, 0)
		pair, err := f.issuer.Issue(ctx, f.user, device, "")
		require.NoError(t, err)

		_, err = f.issuer.Rotate(ctx, pair.AccessToken, device, "")
		require.ErrorIs(t, err, session.ErrTokenInvalid)
	})

	t.Run("superseded token under the same key is rejected", func(t *testing.T) {
		f := newFixture(t, 0)
		first, err := f.issuer.Issue(ctx, f.user, device, "")
		require.NoError(t, err)
		_, err = f.issuer.Issue(ctx, f.user, device, "")
		require.NoError(t, err)

		_, err = f.issuer.Rotate(ctx, first.RefreshToken, device, "")
		require.ErrorIs(t, err, session.ErrTokenRevoked)
	})

	t.Run("inactive account", func(t *testing.T) {
		f := newFixture(t, 0)
		pair, err := f.issuer.Issue(ctx, f.user, device, "")
		require.NoError(t, err)

		blocked := f.user
		blocked.Status = domain.UserStatusBlocked
		f.users.put(blocked)

		_, err = f.issuer.Rotate(ctx, pair.RefreshToken, device, "")
		require.ErrorIs(t, err, session.ErrAccountInactive)
	})

	t.Run("deleted account", func(t *testing.T) {
		f := newFixture(t, 0)
		pair, err := f.issuer.Issue(ctx, f.user, device, "")
		require.NoError(t, err)

		f.users.mu.Lock()
		delete(f.users.users, f.user.ID)
		f.users.mu.Unlock()

		_, err = f.issuer.Rotate(ctx, pair.RefreshToken, device, "")
		require.ErrorIs(t, err, session.ErrTokenRevoked)
		require.False(t, f.mr.Exists(f.refreshKey()))
	})
}

func TestRevoke(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("blacklists only the presented token", func(t *testing.T) {
		f := newFixture(t, 0)
		first, err := f.issuer.Issue(ctx, f.user, device, "")
		require.NoError(t, err)
		second, err := f.issuer.Issue(ctx, f.user, device, "")
		require.NoError(t, err)

		require.NoError(t, f.issuer.Revoke(ctx, first.AccessToken, device))

		_, err = f.guard.Authenticate(ctx, first.AccessToken)
		require.ErrorIs(t, err, session.ErrTokenRevoked)

		_, err = f.guard.Authenticate(ctx, second.AccessToken)
		require.NoError(t, err)

		accessKey := revocation.Key(revocation.KindAccess, f.user.ID.String(), device)
		require.InDelta(t, (15 * time.Minute).Seconds(), f.mr.TTL(accessKey).Seconds(), 2)
	})

	t.Run("kills refreshes from the same device", func(t *testing.T) {
		f := newFixture(t, 0)
		pair, err := f.issuer.Issue(ctx, f.user, device, "")
		require.NoError(t, err)

		require.NoError(t, f.issuer.Revoke(ctx, pair.AccessToken, device))
		require.False(t, f.mr.Exists(f.refreshKey()))

		_, err = f.issuer.Rotate(ctx, pair.RefreshToken, device, "")
		require.ErrorIs(t, err, session.ErrTokenRevoked)
	})

	t.Run("other devices keep their session", func(t *testing.T) {
		f := newFixture(t, 0)
		phone, err := f.issuer.Issue(ctx, f.user, "okhttp/4.12", "")
		require.NoError(t, err)
		laptop, err := f.issuer.Issue(ctx, f.user, device, "")
		require.NoError(t, err)

		require.NoError(t, f.issuer.Revoke(ctx, laptop.AccessToken, device))

		_, err = f.guard.Authenticate(ctx, phone.AccessToken)
		require.NoError(t, err)
		_, err = f.issuer.Rotate(ctx, phone.RefreshToken, "okhttp/4.12", "")
		require.NoError(t, err)
	})

	t.Run("older logout keeps newer token revoked", func(t *testing.T) {
		f := newFixture(t, 0)
		now := time.Now()

		f.issuer.Now = func() time.Time { return now.Add(-12 * time.Minute) }
		older, err := f.issuer.Issue(ctx, f.user, device, "")
		require.NoError(t, err)
		f.issuer.Now = func() time.Time { return now.Add(-time.Minute) }
		newer, err := f.issuer.Issue(ctx, f.user, device, "")
		require.NoError(t, err)
		f.issuer.Now = func() time.Time { return now }

		require.NoError(t, f.issuer.Revoke(ctx, newer.AccessToken, device))
		require.NoError(t, f.issuer.Revoke(ctx, older.AccessToken, device))

		f.mr.FastForward(4 * time.Minute)
		_, err = f.guard.Authenticate(ctx, newer.AccessToken)
		require.ErrorIs(t, err, session.ErrTokenRevoked)
	})

	t.Run("refresh token cannot log out", func(t *testing.T) {
		f := newFixture(t, 0)
		pair, err := f.issuer.Issue(ctx, f.user, device, "")
		require.NoError(t, err)

		require.ErrorIs(t, f.issuer.Revoke(ctx, pair.RefreshToken, device), session.ErrTokenInvalid)
	})
}

// gatedStore holds the first two pointer reads until both have happened, so
// two rotations deterministically pass the pointer check together.
type gatedStore struct {
	revocation.Store
	reads atomic.Int32
	gate  sync.WaitGroup
}

func (g *gatedStore) RefreshPointer(ctx context.Context, key string) (string, error) {
	v, err := g.Store.RefreshPointer(ctx, key)
	if g.reads.Add(1) <= 2 {
		g.gate.Done()
		g.gate.Wait()
	}
	return v, err
}

func TestConcurrentRotationWindow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, 0)

	pair, err := f.issuer.Issue(ctx, f.user, device, "")
	require.NoError(t, err)

	gated := &gatedStore{Store: f.issuer.Revocations}
	gated.gate.Add(2)
	racing := *f.issuer
	racing.Revocations = gated

	var (
		wg      sync.WaitGroup
		results [2]domain.TokenPair
		errs    [2]error
	)
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = racing.Rotate(ctx, pair.RefreshToken, device, "")
		}()
	}
	wg.Wait()

	// Both rotations succeed: the accepted double-validity window.
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	for _, r := range results {
		_, err := f.guard.Authenticate(ctx, r.AccessToken)
		require.NoError(t, err)
	}

	// Only the pointer written last can rotate again.
	live, err := f.mr.Get(f.refreshKey())
	require.NoError(t, err)
	require.Contains(t, []string{results[0].RefreshToken, results[1].RefreshToken}, live)

	rotated := 0
	for _, r := range results {
		if _, err := f.issuer.Rotate(ctx, r.RefreshToken, device, ""); err == nil {
			rotated++
		} else {
			require.ErrorIs(t, err, session.ErrTokenRevoked)
		}
	}
	require.Equal(t, 1, rotated)
}
