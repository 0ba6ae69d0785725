package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sendhello/auth-service/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Sub-repositories are reached through methods so a Tx-scoped
// Store hands out repos bound to the same transaction.
type Store interface {
	Users() Users
	Organizations() Organizations
	Memberships() Memberships
	History() History

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction. A non-nil error from fn rolls back,
	// otherwise the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (domain.User, error)

	// GetUserByEmail is used during login. email must already be lowercased.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user. Duplicate email or login is ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateProfile writes login, names, email and phone and bumps updated_at.
	UpdateProfile(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID uuid.UUID, newHash string) error

	// ListUsers returns a page of users, oldest first.
	ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error)

	// DeleteUser cascades to memberships and login history (per schema).
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type Organizations interface {
	// CreateOrganization inserts a new organization. Duplicate slug is ErrAlreadyExists.
	CreateOrganization(ctx context.Context, o domain.Organization) error

	GetOrganizationByID(ctx context.Context, id uuid.UUID) (domain.Organization, error)

	// ListOrganizationsForUser returns every organization userID is a member of,
	// ordered by name.
	ListOrganizationsForUser(ctx context.Context, userID uuid.UUID) ([]domain.Organization, error)

	UpdateOrganization(ctx context.Context, o domain.Organization) error

	// DeleteOrganization cascades to memberships (per schema).
	DeleteOrganization(ctx context.Context, id uuid.UUID) error
}

type Memberships interface {
	// CreateMembership inserts a membership. A second membership of the same
	// user in the same organization is ErrAlreadyExists.
	CreateMembership(ctx context.Context, m domain.Membership) error

	GetMembershipByID(ctx context.Context, id uuid.UUID) (domain.Membership, error)

	// ListUserMemberships returns userID's memberships, oldest first.
	ListUserMemberships(ctx context.Context, userID uuid.UUID) ([]domain.Membership, error)

	// ListOrganizationMemberships returns orgID's memberships, oldest first.
	ListOrganizationMemberships(ctx context.Context, orgID uuid.UUID) ([]domain.Membership, error)

	// UpdateMembership writes role and is_primary.
	UpdateMembership(ctx context.Context, m domain.Membership) error

	// ClearPrimary unsets is_primary on all of userID's memberships.
	ClearPrimary(ctx context.Context, userID uuid.UUID) error

	DeleteMembership(ctx context.Context, id uuid.UUID) error
}

type History interface {
	RecordLogin(ctx context.Context, e domain.LoginEvent) error

	// ListLogins returns a page of userID's logins, newest first.
	ListLogins(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.LoginEvent, error)

	// DeleteLoginsBefore is housekeeping; it returns the number of rows removed.
	DeleteLoginsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
