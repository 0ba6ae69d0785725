package domain

import (
	"time"

	"github.com/google/uuid"
)

// LoginEvent is one successful login, kept for the user's sign-in history.
type LoginEvent struct {
	ID        string // ULID
	UserID    uuid.UUID
	UserAgent string
	CreatedAt time.Time
}
