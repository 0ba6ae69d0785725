package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/sendhello/auth-service/internal/auth/domain"
	"github.com/sendhello/auth-service/internal/auth/store"
	"github.com/sendhello/auth-service/pkg/slogx"
)

// BootstrapAdmin describes the first administrator seeded at startup.
type BootstrapAdmin struct {
	Email    string
	Password string
	OrgName  string
	OrgSlug  string
}

// BootstrapService seeds an owner account and its organization on a fresh
// deployment.
type BootstrapService struct {
	Accounts      *AccountService
	Organizations *OrganizationService
}

// EnsureAdmin creates the admin user and an organization they own, and
// returns that organization's id. It is idempotent: an existing account with
// the same email is left untouched and the organization it owns under
// admin.OrgSlug is looked up instead. orgID is uuid.Nil when that account no
// longer owns such an organization.
func (s *BootstrapService) EnsureAdmin(ctx context.Context, admin BootstrapAdmin) (orgID uuid.UUID, created bool, err error) {
	l := slogx.FromContext(ctx)

	// 1. Skip when the account already exists
	email, err := normalizeEmail(admin.Email)
	if err != nil {
		return uuid.Nil, false, err
	}
	existing, err := s.Accounts.Store.Users().GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		l.Debug("bootstrap admin already present", slog.String("email", email))
		orgID, err = s.ownedOrganization(ctx, existing.ID, admin.OrgSlug)
		return orgID, false, err
	case !errors.Is(err, store.ErrNotFound):
		return uuid.Nil, false, err
	}

	// 2. Hash and insert directly; the admin has no phone on record
	hash, err := s.Accounts.Hasher.Hash(admin.Password)
	if err != nil {
		return uuid.Nil, false, err
	}
	user := domain.User{
		ID:           uuid.New(),
		Email:        email,
		Login:        "admin",
		PasswordHash: hash,
		Status:       domain.UserStatusActive,
	}
	if err := s.Accounts.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return uuid.Nil, false, ErrUserExists
		}
		return uuid.Nil, false, err
	}

	// 3. Organization owned by the admin
	org, _, err := s.Organizations.Create(ctx, user.ID, CreateOrganizationInput{
		Name: admin.OrgName,
		Slug: admin.OrgSlug,
	})
	if err != nil {
		return uuid.Nil, false, err
	}

	l.Info("bootstrap admin created",
		slog.String("user_id", user.ID.String()),
		slog.String("org_id", org.ID.String()),
	)
	return org.ID, true, nil
}

// ownedOrganization finds the organization with slug that userID owns.
func (s *BootstrapService) ownedOrganization(ctx context.Context, userID uuid.UUID, slug string) (uuid.UUID, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	ms, err := s.Accounts.Store.Memberships().ListUserMemberships(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	for _, m := range ms {
		if m.Role != domain.RoleOwner {
			continue
		}
		org, err := s.Organizations.Get(ctx, m.OrgID)
		if err != nil {
			return uuid.Nil, err
		}
		if org.Slug == slug {
			return org.ID, nil
		}
	}
	slogx.FromContext(ctx).Warn("bootstrap admin owns no organization with the admin slug",
		slog.String("user_id", userID.String()),
		slog.String("slug", slug),
	)
	return uuid.Nil, nil
}
