package sqlstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sendhello/auth-service/internal/auth/domain"
)

const membershipColumns = `id, org_id, user_id, role, is_primary, created_at, updated_at`

type membershipsRepo struct {
	q *queries
}

func scanMembership(row scanner) (domain.Membership, error) {
	var (
		m    domain.Membership
		role string
	)
	err := row.Scan(&m.ID, &m.OrgID, &m.UserID, &role, &m.IsPrimary, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return domain.Membership{}, mapNotFound(err)
	}
	m.Role = domain.Role(role)
	return m, nil
}

func (r *membershipsRepo) list(ctx context.Context, query string, args ...any) ([]domain.Membership, error) {
	rows, err := r.q.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *membershipsRepo) CreateMembership(ctx context.Context, m domain.Membership) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}

	_, err := r.q.exec(ctx,
		`INSERT INTO memberships (`+membershipColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.OrgID, m.UserID, m.Role.String(), m.IsPrimary, m.CreatedAt, m.UpdatedAt,
	)
	return err
}

func (r *membershipsRepo) GetMembershipByID(ctx context.Context, id uuid.UUID) (domain.Membership, error) {
	return scanMembership(r.q.queryRow(ctx, `SELECT `+membershipColumns+` FROM memberships WHERE id = ?`, id))
}

func (r *membershipsRepo) ListUserMemberships(ctx context.Context, userID uuid.UUID) ([]domain.Membership, error) {
	return r.list(ctx, `SELECT `+membershipColumns+` FROM memberships WHERE user_id = ? ORDER BY created_at, id`, userID)
}

func (r *membershipsRepo) ListOrganizationMemberships(ctx context.Context, orgID uuid.UUID) ([]domain.Membership, error) {
	return r.list(ctx, `SELECT `+membershipColumns+` FROM memberships WHERE org_id = ? ORDER BY created_at, id`, orgID)
}

func (r *membershipsRepo) UpdateMembership(ctx context.Context, m domain.Membership) error {
	return r.q.execOne(ctx,
		`UPDATE memberships SET role = ?, is_primary = ?, updated_at = ? WHERE id = ?`,
		m.Role.String(), m.IsPrimary, time.Now().UTC(), m.ID,
	)
}

func (r *membershipsRepo) ClearPrimary(ctx context.Context, userID uuid.UUID) error {
	_, err := r.q.exec(ctx,
		`UPDATE memberships SET is_primary = ?, updated_at = ? WHERE user_id = ? AND is_primary = ?`,
		false, time.Now().UTC(), userID, true,
	)
	return err
}

func (r *membershipsRepo) DeleteMembership(ctx context.Context, id uuid.UUID) error {
	return r.q.execOne(ctx, `DELETE FROM memberships WHERE id = ?`, id)
}
