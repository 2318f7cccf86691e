// Package models contains all persisted resources of the budget ledger.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultModel is the base model for most models in the ledger.
// Resources that use a composite primary key only embed Timestamps.
type DefaultModel struct {
	ID uuid.UUID `json:"id" example:"65392deb-5e92-4268-b114-297faad6cdce"` // UUID for the resource
	Timestamps
}

// Timestamps only contains the timestamps that gorm sets automatically to enable other
// primary keys than ID.
type Timestamps struct {
	CreatedAt time.Time       `json:"createdAt" example:"2022-04-02T19:28:44.491514Z"` // Time the resource was created
	UpdatedAt time.Time       `json:"updatedAt" example:"2022-04-17T20:14:01.048145Z"` // Last time the resource was updated
	DeletedAt *gorm.DeletedAt `json:"deletedAt" gorm:"index"`                          // Time the resource was marked as deleted
}

// AfterFind updates the timestamps to use UTC as
// timezone, not +0000. Yes, this is different.
//
// We already store them in UTC, but somehow reading
// them from the database returns them as +0000.
func (m *Timestamps) AfterFind(_ *gorm.DB) (err error) {
	m.CreatedAt = m.CreatedAt.In(time.UTC)
	m.UpdatedAt = m.UpdatedAt.In(time.UTC)

	if m.DeletedAt != nil {
		m.DeletedAt.Time = m.DeletedAt.Time.In(time.UTC)
	}

	return nil
}

// BeforeCreate is set to generate a UUID for the resource.
func (m *DefaultModel) BeforeCreate(_ *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Owner identifies who a resource belongs to. Exactly one of UserID and
// HouseholdID is set: personal resources are owned by a user, shared
// resources by a household. Resources are never shared across owners.
type Owner struct {
	UserID      uuid.UUID `json:"userId"`
	HouseholdID uuid.UUID `json:"householdId"`
}

// UserOwner returns the Owner for a personal budget.
func UserOwner(userID uuid.UUID) Owner {
	return Owner{UserID: userID}
}

// HouseholdOwner returns the Owner for a household budget.
func HouseholdOwner(householdID uuid.UUID) Owner {
	return Owner{HouseholdID: householdID}
}

// IsHousehold reports whether the owner is a household.
func (o Owner) IsHousehold() bool {
	return o.HouseholdID != uuid.Nil
}

// Valid reports whether exactly one of the user and household IDs is set.
func (o Owner) Valid() bool {
	return (o.UserID == uuid.Nil) != (o.HouseholdID == uuid.Nil)
}

// checkOwner validates the owner fields of a resource before it is saved.
func checkOwner(userID, householdID uuid.UUID) error {
	if !(Owner{UserID: userID, HouseholdID: householdID}).Valid() {
		return ErrOwnerInvalid
	}
	return nil
}
