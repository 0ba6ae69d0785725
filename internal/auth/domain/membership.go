package domain

import (
	"time"

	"github.com/google/uuid"
)

// Membership binds a user to an organization with exactly one role.
// (org_id, user_id) is unique.
type Membership struct {
	ID        uuid.UUID
	OrgID     uuid.UUID
	UserID    uuid.UUID
	Role      Role
	IsPrimary bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
