package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sendhello/auth-service/internal/auth/domain"
	"github.com/sendhello/auth-service/internal/auth/store"
	"github.com/sendhello/auth-service/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedUser(t *testing.T, s store.Store, email string) domain.User {
	t.Helper()

	u := domain.User{
		ID:           uuid.New(),
		Email:        email,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Phone:        "0123456789",
		PasswordHash: "argon2id$dummy",
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func seedOrg(t *testing.T, s store.Store, slug string) domain.Organization {
	t.Helper()

	o := domain.Organization{ID: uuid.New(), Name: slug, Slug: slug, Plan: "free", Status: "active"}
	require.NoError(t, s.Organizations().CreateOrganization(context.Background(), o))
	return o
}

func TestMigrationsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := seedUser(t, s, "ada@example.com")

	t.Run("get by id and email", func(t *testing.T) {
		byID, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, u.Email, byID.Email)
		require.Equal(t, domain.UserStatusActive, byID.Status)
		require.Empty(t, byID.Login)

		byEmail, err := s.Users().GetUserByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		require.Equal(t, u.ID, byEmail.ID)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := s.Users().GetUserByID(ctx, uuid.New())
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.Users().GetUserByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate email", func(t *testing.T) {
		dup := domain.User{ID: uuid.New(), Email: "ada@example.com", PasswordHash: "x"}
		require.ErrorIs(t, s.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("empty logins do not collide", func(t *testing.T) {
		seedUser(t, s, "first@example.com")
		seedUser(t, s, "second@example.com")
	})

	t.Run("duplicate login", func(t *testing.T) {
		a := domain.User{ID: uuid.New(), Email: "a@example.com", Login: "taken", PasswordHash: "x"}
		b := domain.User{ID: uuid.New(), Email: "b@example.com", Login: "taken", PasswordHash: "x"}
		require.NoError(t, s.Users().CreateUser(ctx, a))
		require.ErrorIs(t, s.Users().CreateUser(ctx, b), store.ErrAlreadyExists)
	})

	t.Run("update profile and password", func(t *testing.T) {
		changed := u
		changed.Login = "ada"
		changed.FirstName = "Augusta"
		require.NoError(t, s.Users().UpdateProfile(ctx, changed))
		require.NoError(t, s.Users().UpdatePasswordHash(ctx, u.ID, "argon2id$new"))

		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, "ada", got.Login)
		require.Equal(t, "Augusta", got.FirstName)
		require.Equal(t, "argon2id$new", got.PasswordHash)
	})

	t.Run("update missing user", func(t *testing.T) {
		require.ErrorIs(t, s.Users().UpdatePasswordHash(ctx, uuid.New(), "x"), store.ErrNotFound)
	})
}

func TestListAndDeleteUsers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i, email := range []string{"c@example.com", "a@example.com", "b@example.com"} {
		u := domain.User{ID: uuid.New(), Email: email, PasswordHash: "x", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, s.Users().CreateUser(ctx, u))
		ids = append(ids, u.ID)
	}

	t.Run("pages oldest first", func(t *testing.T) {
		first, err := s.Users().ListUsers(ctx, 2, 0)
		require.NoError(t, err)
		require.Len(t, first, 2)
		require.Equal(t, ids[0], first[0].ID)
		require.Equal(t, ids[1], first[1].ID)

		rest, err := s.Users().ListUsers(ctx, 2, 2)
		require.NoError(t, err)
		require.Len(t, rest, 1)
		require.Equal(t, ids[2], rest[0].ID)

		none, err := s.Users().ListUsers(ctx, 2, 10)
		require.NoError(t, err)
		require.Empty(t, none)
	})

	t.Run("delete cascades", func(t *testing.T) {
		org := seedOrg(t, s, "acme")
		victim := ids[0]
		require.NoError(t, s.Memberships().CreateMembership(ctx, domain.Membership{
			ID: uuid.New(), OrgID: org.ID, UserID: victim, Role: domain.RoleViewer, IsPrimary: true,
		}))
		require.NoError(t, s.History().RecordLogin(ctx, domain.LoginEvent{
			ID: idx.New().String(), UserID: victim, UserAgent: "curl/8.0",
		}))

		require.NoError(t, s.Users().DeleteUser(ctx, victim))

		_, err := s.Users().GetUserByID(ctx, victim)
		require.ErrorIs(t, err, store.ErrNotFound)
		ms, err := s.Memberships().ListOrganizationMemberships(ctx, org.ID)
		require.NoError(t, err)
		require.Empty(t, ms)
		events, err := s.History().ListLogins(ctx, victim, 10, 0)
		require.NoError(t, err)
		require.Empty(t, events)

		require.ErrorIs(t, s.Users().DeleteUser(ctx, victim), store.ErrNotFound)
	})
}

func TestOrganizationsAndMemberships(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := seedUser(t, s, "owner@example.com")
	beta := seedOrg(t, s, "beta")
	alpha := seedOrg(t, s, "alpha")
	seedOrg(t, s, "unrelated")

	t.Run("duplicate slug", func(t *testing.T) {
		dup := domain.Organization{ID: uuid.New(), Name: "Beta", Slug: "beta", Plan: "free", Status: "active"}
		require.ErrorIs(t, s.Organizations().CreateOrganization(ctx, dup), store.ErrAlreadyExists)
	})

	first := domain.Membership{ID: uuid.New(), OrgID: beta.ID, UserID: u.ID, Role: domain.RoleOwner, IsPrimary: true}
	second := domain.Membership{ID: uuid.New(), OrgID: alpha.ID, UserID: u.ID, Role: domain.RoleViewer}
	require.NoError(t, s.Memberships().CreateMembership(ctx, first))
	require.NoError(t, s.Memberships().CreateMembership(ctx, second))

	t.Run("one membership per org and user", func(t *testing.T) {
		dup := domain.Membership{ID: uuid.New(), OrgID: beta.ID, UserID: u.ID, Role: domain.RoleAdmin}
		require.ErrorIs(t, s.Memberships().CreateMembership(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("orgs for user ordered by name", func(t *testing.T) {
		orgs, err := s.Organizations().ListOrganizationsForUser(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, orgs, 2)
		require.Equal(t, "alpha", orgs[0].Slug)
		require.Equal(t, "beta", orgs[1].Slug)
	})

	t.Run("user memberships", func(t *testing.T) {
		ms, err := s.Memberships().ListUserMemberships(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, ms, 2)

		roles := map[uuid.UUID]domain.Role{}
		for _, m := range ms {
			roles[m.OrgID] = m.Role
		}
		require.Equal(t, domain.RoleOwner, roles[beta.ID])
		require.Equal(t, domain.RoleViewer, roles[alpha.ID])
	})

	t.Run("update and clear primary", func(t *testing.T) {
		promoted := second
		promoted.Role = domain.RoleDispatcher
		require.NoError(t, s.Memberships().ClearPrimary(ctx, u.ID))
		promoted.IsPrimary = true
		require.NoError(t, s.Memberships().UpdateMembership(ctx, promoted))

		got, err := s.Memberships().GetMembershipByID(ctx, second.ID)
		require.NoError(t, err)
		require.Equal(t, domain.RoleDispatcher, got.Role)
		require.True(t, got.IsPrimary)

		old, err := s.Memberships().GetMembershipByID(ctx, first.ID)
		require.NoError(t, err)
		require.False(t, old.IsPrimary)
	})

	t.Run("unknown role rejected by schema", func(t *testing.T) {
		other := seedUser(t, s, "other@example.com")
		bad := domain.Membership{ID: uuid.New(), OrgID: beta.ID, UserID: other.ID, Role: "superuser"}
		require.Error(t, s.Memberships().CreateMembership(ctx, bad))
	})

	t.Run("deleting an org cascades", func(t *testing.T) {
		require.NoError(t, s.Organizations().DeleteOrganization(ctx, alpha.ID))

		_, err := s.Memberships().GetMembershipByID(ctx, second.ID)
		require.ErrorIs(t, err, store.ErrNotFound)

		require.ErrorIs(t, s.Organizations().DeleteOrganization(ctx, alpha.ID), store.ErrNotFound)
	})

	t.Run("delete membership", func(t *testing.T) {
		require.NoError(t, s.Memberships().DeleteMembership(ctx, first.ID))
		ms, err := s.Memberships().ListOrganizationMemberships(ctx, beta.ID)
		require.NoError(t, err)
		require.Empty(t, ms)
	})

	t.Run("membership for unknown user violates fk", func(t *testing.T) {
		orphan := domain.Membership{ID: uuid.New(), OrgID: beta.ID, UserID: uuid.New(), Role: domain.RoleViewer}
		require.Error(t, s.Memberships().CreateMembership(ctx, orphan))
	})
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "history@example.com")

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := range 5 {
		at := base.Add(time.Duration(i) * 24 * time.Hour)
		require.NoError(t, s.History().RecordLogin(ctx, domain.LoginEvent{
			ID:        idx.NewAt(at).String(),
			UserID:    u.ID,
			UserAgent: "agent",
			CreatedAt: at,
		}))
	}

	t.Run("newest first with paging", func(t *testing.T) {
		page, err := s.History().ListLogins(ctx, u.ID, 2, 0)
		require.NoError(t, err)
		require.Len(t, page, 2)
		require.True(t, page[0].CreatedAt.After(page[1].CreatedAt))
		require.Equal(t, base.Add(4*24*time.Hour), page[0].CreatedAt.UTC())

		last, err := s.History().ListLogins(ctx, u.ID, 2, 4)
		require.NoError(t, err)
		require.Len(t, last, 1)
		require.Equal(t, base, last[0].CreatedAt.UTC())
	})

	t.Run("prune older than cutoff", func(t *testing.T) {
		n, err := s.History().DeleteLoginsBefore(ctx, base.Add(2*24*time.Hour))
		require.NoError(t, err)
		require.EqualValues(t, 2, n)

		rest, err := s.History().ListLogins(ctx, u.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, rest, 3)
	})
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	t.Run("rollback on error", func(t *testing.T) {
		id := uuid.New()
		err := s.WithTx(ctx, func(tx store.Tx) error {
			require.NoError(t, tx.Users().CreateUser(ctx, domain.User{ID: id, Email: "tx@example.com", PasswordHash: "x"}))
			return store.ErrAlreadyExists
		})
		require.ErrorIs(t, err, store.ErrAlreadyExists)

		_, err = s.Users().GetUserByID(ctx, id)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("commit on success", func(t *testing.T) {
		id := uuid.New()
		require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
			return tx.Users().CreateUser(ctx, domain.User{ID: id, Email: "commit@example.com", PasswordHash: "x"})
		}))

		_, err := s.Users().GetUserByID(ctx, id)
		require.NoError(t, err)
	})

	t.Run("no nesting", func(t *testing.T) {
		require.Error(t, s.WithTx(ctx, func(tx store.Tx) error {
			return tx.WithTx(ctx, func(store.Tx) error { return nil })
		}))
	})
}
