package models

import (
	"time"

	"github.com/google/uuid"
)

// HouseholdStatus is the lifecycle status of a household.
type HouseholdStatus string

const (
	HouseholdActive    HouseholdStatus = "active"
	HouseholdInactive  HouseholdStatus = "inactive"
	HouseholdSuspended HouseholdStatus = "suspended"
)

// Household is a tenant-scoped residence unit.
type Household struct {
	ID        uuid.UUID       `json:"id"`
	TenantID  uuid.UUID       `json:"tenant_id"`
	Name      string          `json:"name"`
	Block     string          `json:"block"`
	Lot       string          `json:"lot"`
	Status    HouseholdStatus `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Resident is a person living in a household. Residents are records, not
// accounts; a resident may or may not correspond to a platform user.
type Resident struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	HouseholdID uuid.UUID `json:"household_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	IsOwner     bool      `json:"is_owner"`
	CreatedAt   time.Time `json:"created_at"`
}
