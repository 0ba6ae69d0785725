package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	PlanFree       = "free"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

const (
	OrgStatusActive    = "active"
	OrgStatusPending   = "pending"
	OrgStatusSuspended = "suspended"
)

type Organization struct {
	ID        uuid.UUID
	Name      string
	Slug      string // unique
	Plan      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidPlan reports whether p is a known billing plan.
func ValidPlan(p string) bool {
	switch p {
	case PlanFree, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

func ValidOrgStatus(s string) bool {
	switch s {
	case OrgStatusActive, OrgStatusPending, OrgStatusSuspended:
		return true
	}
	return false
}
