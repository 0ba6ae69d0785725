package domain

import (
	"time"

	"github.com/google/uuid"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
	UserStatusBlocked  UserStatus = "blocked"
)

type User struct {
	ID           uuid.UUID
	Email        string
	Login        string // optional, unique when set
	FirstName    string
	LastName     string
	Phone        string
	PasswordHash string // argon2id PHC string
	Status       UserStatus
	Memberships  []Membership // populated by UserWithMemberships lookups only
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName joins first and last name.
func (u User) DisplayName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// MembershipFor returns the membership the user holds in orgID, if any.
func (u User) MembershipFor(orgID uuid.UUID) (Membership, bool) {
	for _, m := range u.Memberships {
		if m.OrgID == orgID {
			return m, true
		}
	}
	return Membership{}, false
}
