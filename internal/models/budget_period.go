package models

import (
	"errors"

	"github.com/google/uuid"
	"github.com/pocketfold/backend/internal/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BudgetPeriod holds the per-month state of an owner's budget.
//
// AvailablePool is the "to be budgeted" amount: income for the month
// that has not been allocated to an envelope yet. It is a persisted
// scalar for cheap reads; the invariant
//
//	AvailablePool == TotalIncome(month) - sum(allocated over month)
//
// is maintained by the atomic adjustment primitives and verified by the
// integrity checker. Rows are created lazily on the first income or
// allocation in a month and are never hard-deleted.
type BudgetPeriod struct {
	DefaultModel
	UserID        uuid.UUID       `json:"userId" gorm:"uniqueIndex:budget_period_owner_month"`
	HouseholdID   uuid.UUID       `json:"householdId" gorm:"uniqueIndex:budget_period_owner_month"`
	Month         types.Month     `json:"month" gorm:"uniqueIndex:budget_period_owner_month"`
	AvailablePool decimal.Decimal `json:"availablePool" gorm:"type:DECIMAL(20,8)"`
}

// BeforeCreate validates the owner. Validation happens on create only:
// the pool adjustments update the available_pool column through an
// empty model value, which must not re-trigger owner checks.
func (p *BudgetPeriod) BeforeCreate(tx *gorm.DB) error {
	if err := p.DefaultModel.BeforeCreate(tx); err != nil {
		return err
	}

	return checkOwner(p.UserID, p.HouseholdID)
}

// Owner returns the owner of the budget period.
func (p BudgetPeriod) Owner() Owner {
	return Owner{UserID: p.UserID, HouseholdID: p.HouseholdID}
}

// TotalIncome returns the sum of all income entries for an owner in a month.
func TotalIncome(db *gorm.DB, owner Owner, month types.Month) (decimal.Decimal, error) {
	var income decimal.NullDecimal

	err := db.
		Select("SUM(amount)").
		Where("user_id = ? AND household_id = ?", owner.UserID, owner.HouseholdID).
		Where("month = ?", month).
		Where("deleted_at IS NULL").
		Table("income_entries").
		Find(&income).
		Error
	if err != nil {
		return decimal.Zero, err
	}

	// If no income entries are found, the value is nil
	if !income.Valid {
		return decimal.Zero, nil
	}

	return income.Decimal, nil
}

// TotalAllocated returns the sum that the owner has allocated to
// envelopes in a month, recomputed from the allocation rows.
func TotalAllocated(db *gorm.DB, owner Owner, month types.Month) (decimal.Decimal, error) {
	var allocated decimal.NullDecimal

	err := db.
		Select("SUM(allocated)").
		Joins("JOIN envelopes ON envelope_allocations.envelope_id = envelopes.id AND envelopes.deleted_at IS NULL").
		Where("envelopes.user_id = ? AND envelopes.household_id = ?", owner.UserID, owner.HouseholdID).
		Where("envelope_allocations.month = ?", month).
		Table("envelope_allocations").
		Find(&allocated).
		Error
	if err != nil {
		return decimal.Zero, err
	}

	if !allocated.Valid {
		return decimal.Zero, nil
	}

	return allocated.Decimal, nil
}

// AvailablePool returns the owner's current pool for a month.
// A missing period row reads as zero since periods are created lazily.
func AvailablePool(db *gorm.DB, owner Owner, month types.Month) (decimal.Decimal, error) {
	var period BudgetPeriod
	err := db.
		Where("user_id = ? AND household_id = ?", owner.UserID, owner.HouseholdID).
		Where("month = ?", month).
		First(&period).
		Error
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}

	return period.AvailablePool, nil
}
