package models

import (
	"github.com/google/uuid"
	"github.com/pocketfold/backend/internal/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AllocationStatus is the outcome of one attempted auto-contribution.
type AllocationStatus string

const (
	AllocationSuccess AllocationStatus = "success"
	AllocationSkipped AllocationStatus = "skipped"
	AllocationError   AllocationStatus = "error"
)

// Skip reasons recorded on AutoAllocationEntry rows.
const (
	ReasonAlreadyProcessed  = "already_processed_this_month"
	ReasonTargetReached     = "target_reached"
	ReasonInsufficientFunds = "insufficient_funds"
)

// AutoAllocationEntry is the append-only record of one attempted
// auto-contribution to a savings goal.
//
// A row with status "success" for an (envelope, month) pair is the
// idempotency key that prevents the engine from contributing to the
// same goal twice in one period.
type AutoAllocationEntry struct {
	DefaultModel
	UserID      uuid.UUID        `json:"userId"`
	HouseholdID uuid.UUID        `json:"householdId"`
	GoalID      uuid.UUID        `json:"goalId" gorm:"index"`
	EnvelopeID  uuid.UUID        `json:"envelopeId" gorm:"index:auto_allocation_envelope_month"`
	Month       types.Month      `json:"month" gorm:"index:auto_allocation_envelope_month"`
	Amount      decimal.Decimal  `json:"amount" gorm:"type:DECIMAL(20,8)"`
	Priority    Priority         `json:"priority"`
	Status      AllocationStatus `json:"status"`
	Reason      string           `json:"reason"`
	Message     string           `json:"message"`
}

func (a *AutoAllocationEntry) BeforeSave(_ *gorm.DB) error {
	return checkOwner(a.UserID, a.HouseholdID)
}

// ContributedThisMonth reports whether a successful contribution for
// the envelope has already been recorded in the month.
func ContributedThisMonth(db *gorm.DB, envelopeID uuid.UUID, month types.Month) (bool, error) {
	var count int64
	err := db.
		Model(&AutoAllocationEntry{}).
		Where("envelope_id = ? AND month = ?", envelopeID, month).
		Where("status = ?", AllocationSuccess).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
