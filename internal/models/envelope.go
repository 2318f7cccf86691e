package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Envelope represents a named spending or saving category. Its monthly
// allocated and spent amounts live in EnvelopeAllocation rows.
type Envelope struct {
	DefaultModel
	UserID      uuid.UUID `json:"userId" gorm:"uniqueIndex:envelope_owner_name"`
	HouseholdID uuid.UUID `json:"householdId" gorm:"uniqueIndex:envelope_owner_name"`
	Name        string    `json:"name" gorm:"uniqueIndex:envelope_owner_name"`
	Note        string    `json:"note"`
	Archived    bool      `json:"archived"`
}

func (e *Envelope) BeforeSave(_ *gorm.DB) error {
	e.Name = strings.TrimSpace(e.Name)
	e.Note = strings.TrimSpace(e.Note)

	return checkOwner(e.UserID, e.HouseholdID)
}

// Owner returns the owner of the envelope.
func (e Envelope) Owner() Owner {
	return Owner{UserID: e.UserID, HouseholdID: e.HouseholdID}
}

// Saved returns the amount saved in the envelope across all periods.
//
// This is the sum of allocated minus spent over all allocation rows and
// is the source of truth for how much a savings goal has accumulated.
func (e Envelope) Saved(db *gorm.DB) (decimal.Decimal, error) {
	var saved decimal.NullDecimal

	err := db.
		Select("SUM(allocated - spent)").
		Where("envelope_id = ?", e.ID).
		Table("envelope_allocations").
		Find(&saved).
		Error
	if err != nil {
		return decimal.Zero, err
	}

	// If no allocation rows exist, the value is nil
	if !saved.Valid {
		return decimal.Zero, nil
	}

	return saved.Decimal, nil
}
