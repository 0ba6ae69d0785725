package sqlstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sendhello/auth-service/internal/auth/domain"
)

const organizationColumns = `id, name, slug, plan, status, created_at, updated_at`

type organizationsRepo struct {
	q *queries
}

func scanOrganization(row scanner) (domain.Organization, error) {
	var o domain.Organization
	err := row.Scan(&o.ID, &o.Name, &o.Slug, &o.Plan, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return domain.Organization{}, mapNotFound(err)
	}
	return o, nil
}

func (r *organizationsRepo) CreateOrganization(ctx context.Context, o domain.Organization) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = o.CreatedAt
	}

	_, err := r.q.exec(ctx,
		`INSERT INTO organizations (`+organizationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.Name, o.Slug, o.Plan, o.Status, o.CreatedAt, o.UpdatedAt,
	)
	return err
}

func (r *organizationsRepo) GetOrganizationByID(ctx context.Context, id uuid.UUID) (domain.Organization, error) {
	return scanOrganization(r.q.queryRow(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE id = ?`, id))
}

func (r *organizationsRepo) ListOrganizationsForUser(ctx context.Context, userID uuid.UUID) ([]domain.Organization, error) {
	rows, err := r.q.query(ctx,
		`SELECT o.id, o.name, o.slug, o.plan, o.status, o.created_at, o.updated_at
		   FROM organizations o
		   JOIN memberships m ON m.org_id = o.id
		  WHERE m.user_id = ?
		  ORDER BY o.name, o.id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *organizationsRepo) UpdateOrganization(ctx context.Context, o domain.Organization) error {
	return r.q.execOne(ctx,
		`UPDATE organizations SET name = ?, slug = ?, plan = ?, status = ?, updated_at = ? WHERE id = ?`,
		o.Name, o.Slug, o.Plan, o.Status, time.Now().UTC(), o.ID,
	)
}

func (r *organizationsRepo) DeleteOrganization(ctx context.Context, id uuid.UUID) error {
	return r.q.execOne(ctx, `DELETE FROM organizations WHERE id = ?`, id)
}
