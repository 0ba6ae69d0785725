package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/sendhello/auth-service/internal/auth/domain"
	"github.com/sendhello/auth-service/internal/auth/store"
	"github.com/sendhello/auth-service/pkg/slogx"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type OrganizationService struct {
	Store store.Store
}

type CreateOrganizationInput struct {
	Name   string
	Slug   string
	Plan   string // defaults to free
	Status string // defaults to active
}

// OrganizationUpdate carries the fields to change; nil leaves a field untouched.
type OrganizationUpdate struct {
	Name   *string
	Plan   *string
	Status *string
}

type AddMemberInput struct {
	UserID    uuid.UUID
	Role      domain.Role
	IsPrimary bool
}

// MembershipUpdate carries the fields to change; nil leaves a field untouched.
type MembershipUpdate struct {
	Role      *domain.Role
	IsPrimary *bool
}

func validateOrganization(o domain.Organization) error {
	if strings.TrimSpace(o.Name) == "" {
		return invalid("name is required")
	}
	if !slugPattern.MatchString(o.Slug) {
		return invalid("slug must be lowercase letters, digits and single dashes")
	}
	if !domain.ValidPlan(o.Plan) {
		return invalid("unknown plan")
	}
	if !domain.ValidOrgStatus(o.Status) {
		return invalid("unknown organization status")
	}
	return nil
}

// Create makes a new organization with creatorID as its owner. The owner
// membership is primary when it is the creator's first.
func (s *OrganizationService) Create(ctx context.Context, creatorID uuid.UUID, in CreateOrganizationInput) (domain.Organization, domain.Membership, error) {
	org := domain.Organization{
		ID:     uuid.New(),
		Name:   strings.TrimSpace(in.Name),
		Slug:   strings.ToLower(strings.TrimSpace(in.Slug)),
		Plan:   in.Plan,
		Status: in.Status,
	}
	if org.Plan == "" {
		org.Plan = domain.PlanFree
	}
	if org.Status == "" {
		org.Status = domain.OrgStatusActive
	}
	if err := validateOrganization(org); err != nil {
		return domain.Organization{}, domain.Membership{}, err
	}

	owner := domain.Membership{
		ID:     uuid.New(),
		OrgID:  org.ID,
		UserID: creatorID,
		Role:   domain.RoleOwner,
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		existing, err := tx.Memberships().ListUserMemberships(ctx, creatorID)
		if err != nil {
			return err
		}
		owner.IsPrimary = len(existing) == 0

		if err := tx.Organizations().CreateOrganization(ctx, org); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrSlugTaken
			}
			return err
		}
		return tx.Memberships().CreateMembership(ctx, owner)
	})
	if err != nil {
		return domain.Organization{}, domain.Membership{}, err
	}

	slogx.FromContext(ctx).Info("organization created",
		slog.String("org_id", org.ID.String()),
		slog.String("owner_id", creatorID.String()),
	)
	return org, owner, nil
}

func (s *OrganizationService) Get(ctx context.Context, id uuid.UUID) (domain.Organization, error) {
	org, err := s.Store.Organizations().GetOrganizationByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Organization{}, ErrOrgNotFound
	}
	return org, err
}

// ListForUser returns the organizations userID belongs to.
func (s *OrganizationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Organization, error) {
	orgs, err := s.Store.Organizations().ListOrganizationsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if orgs == nil {
		orgs = []domain.Organization{}
	}
	return orgs, nil
}

func (s *OrganizationService) Update(ctx context.Context, id uuid.UUID, upd OrganizationUpdate) (domain.Organization, error) {
	org, err := s.Get(ctx, id)
	if err != nil {
		return domain.Organization{}, err
	}

	if upd.Name != nil {
		org.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Plan != nil {
		org.Plan = *upd.Plan
	}
	if upd.Status != nil {
		org.Status = *upd.Status
	}
	if err := validateOrganization(org); err != nil {
		return domain.Organization{}, err
	}

	if err := s.Store.Organizations().UpdateOrganization(ctx, org); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Organization{}, ErrOrgNotFound
		}
		return domain.Organization{}, err
	}
	return org, nil
}

// Delete removes the organization and, by cascade, its memberships.
func (s *OrganizationService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.Store.Organizations().DeleteOrganization(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrOrgNotFound
	}
	if err == nil {
		slogx.FromContext(ctx).Info("organization deleted", slog.String("org_id", id.String()))
	}
	return err
}

// AddMember creates a membership in orgID. Making it primary clears the
// user's other primary flag in the same transaction.
func (s *OrganizationService) AddMember(ctx context.Context, orgID uuid.UUID, in AddMemberInput) (domain.Membership, error) {
	if !in.Role.Valid() {
		return domain.Membership{}, invalid("unknown role")
	}

	m := domain.Membership{
		ID:        uuid.New(),
		OrgID:     orgID,
		UserID:    in.UserID,
		Role:      in.Role,
		IsPrimary: in.IsPrimary,
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Organizations().GetOrganizationByID(ctx, orgID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrOrgNotFound
			}
			return err
		}
		if _, err := tx.Users().GetUserByID(ctx, in.UserID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if m.IsPrimary {
			if err := tx.Memberships().ClearPrimary(ctx, m.UserID); err != nil {
				return err
			}
		}
		if err := tx.Memberships().CreateMembership(ctx, m); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrMembershipExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.Membership{}, err
	}
	return m, nil
}

func (s *OrganizationService) ListMembers(ctx context.Context, orgID uuid.UUID) ([]domain.Membership, error) {
	ms, err := s.Store.Memberships().ListOrganizationMemberships(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if ms == nil {
		ms = []domain.Membership{}
	}
	return ms, nil
}

// membershipIn loads id and checks it belongs to orgID.
func membershipIn(ctx context.Context, st store.Store, orgID, id uuid.UUID) (domain.Membership, error) {
	m, err := st.Memberships().GetMembershipByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && m.OrgID != orgID) {
		return domain.Membership{}, ErrMembershipNotFound
	}
	return m, err
}

func (s *OrganizationService) UpdateMember(ctx context.Context, orgID, membershipID uuid.UUID, upd MembershipUpdate) (domain.Membership, error) {
	if upd.Role != nil && !upd.Role.Valid() {
		return domain.Membership{}, invalid("unknown role")
	}

	var m domain.Membership
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		m, err = membershipIn(ctx, tx, orgID, membershipID)
		if err != nil {
			return err
		}

		if upd.Role != nil {
			m.Role = *upd.Role
		}
		if upd.IsPrimary != nil {
			if *upd.IsPrimary && !m.IsPrimary {
				if err := tx.Memberships().ClearPrimary(ctx, m.UserID); err != nil {
					return err
				}
			}
			m.IsPrimary = *upd.IsPrimary
		}
		return tx.Memberships().UpdateMembership(ctx, m)
	})
	if err != nil {
		return domain.Membership{}, err
	}
	return m, nil
}

func (s *OrganizationService) RemoveMember(ctx context.Context, orgID, membershipID uuid.UUID) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		m, err := membershipIn(ctx, tx, orgID, membershipID)
		if err != nil {
			return err
		}
		return tx.Memberships().DeleteMembership(ctx, m.ID)
	})
}
