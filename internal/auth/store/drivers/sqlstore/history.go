package sqlstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sendhello/auth-service/internal/auth/domain"
)

type historyRepo struct {
	q *queries
}

func (r *historyRepo) RecordLogin(ctx context.Context, e domain.LoginEvent) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := r.q.exec(ctx,
		`INSERT INTO login_history (id, user_id, user_agent, created_at) VALUES (?, ?, ?, ?)`,
		e.ID, e.UserID, e.UserAgent, e.CreatedAt,
	)
	return err
}

func (r *historyRepo) ListLogins(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.LoginEvent, error) {
	rows, err := r.q.query(ctx,
		`SELECT id, user_id, user_agent, created_at
		   FROM login_history
		  WHERE user_id = ?
		  ORDER BY id DESC
		  LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LoginEvent
	for rows.Next() {
		var e domain.LoginEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *historyRepo) DeleteLoginsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.q.exec(ctx, `DELETE FROM login_history WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
