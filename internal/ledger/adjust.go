package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pocketfold/backend/internal/models"
	"github.com/pocketfold/backend/internal/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// The adjustment primitives below are the only code paths that mutate
// allocation rows and the available pool. Each one is a single guarded
// UPDATE so that concurrent callers interleave at the database, not in
// application code. There is deliberately no read-modify-write
// fallback: a fallback path would reintroduce the race the guarded
// update exists to prevent.

// AdjustAllocated atomically adds delta to the allocated amount of an
// envelope for a month. A missing allocation row is created lazily with
// allocated = max(delta, 0). A delta that would drive the allocated
// amount negative is rejected with models.ErrAllocatedNegative and
// nothing is written.
func AdjustAllocated(db *gorm.DB, envelopeID uuid.UUID, month types.Month, delta decimal.Decimal) error {
	return adjustAllocationColumn(db, envelopeID, month, "allocated", delta, models.ErrAllocatedNegative)
}

// AdjustSpent is the spent-side equivalent of AdjustAllocated with the
// same atomicity contract. A missing row is created with allocated = 0
// and spent = max(delta, 0), so a spend against a never-funded envelope
// simply shows up as overspend.
func AdjustSpent(db *gorm.DB, envelopeID uuid.UUID, month types.Month, delta decimal.Decimal) error {
	return adjustAllocationColumn(db, envelopeID, month, "spent", delta, models.ErrSpentNegative)
}

func adjustAllocationColumn(db *gorm.DB, envelopeID uuid.UUID, month types.Month, column string, delta decimal.Decimal, negativeErr error) error {
	update := func() *gorm.DB {
		return db.
			Model(&models.EnvelopeAllocation{}).
			Where("envelope_id = ? AND month = ?", envelopeID, month).
			Where(fmt.Sprintf("%s + ? >= 0", column), delta).
			Update(column, gorm.Expr(fmt.Sprintf("%s + ?", column), delta))
	}

	res := update()
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// No row was updated: either the row does not exist yet, or the
	// guard rejected a delta that would make the value negative.
	var count int64
	err := db.
		Model(&models.EnvelopeAllocation{}).
		Where("envelope_id = ? AND month = ?", envelopeID, month).
		Count(&count).
		Error
	if err != nil {
		return err
	}
	if count > 0 {
		return negativeErr
	}

	row := models.EnvelopeAllocation{
		EnvelopeID: envelopeID,
		Month:      month,
	}
	amount := decimal.Max(delta, decimal.Zero)
	if column == "spent" {
		row.Spent = amount
	} else {
		row.Allocated = amount
	}

	err = db.Create(&row).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, models.ErrAllocationMonthNotUnique) {
		return err
	}

	// Lost the insert race against a concurrent caller.
	// The row exists now, retry the guarded update once.
	res = update()
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return negativeErr
	}

	return nil
}

// AdjustAvailablePool atomically adds delta to the owner's available
// pool for a month. A missing budget period is created lazily. A delta
// that would drive the pool negative is rejected with
// models.ErrPoolNegative and nothing is written.
func AdjustAvailablePool(db *gorm.DB, owner models.Owner, month types.Month, delta decimal.Decimal) error {
	if !owner.Valid() {
		return models.ErrOwnerInvalid
	}

	update := func() *gorm.DB {
		return db.
			Model(&models.BudgetPeriod{}).
			Where("user_id = ? AND household_id = ?", owner.UserID, owner.HouseholdID).
			Where("month = ?", month).
			Where("available_pool + ? >= 0", delta).
			Update("available_pool", gorm.Expr("available_pool + ?", delta))
	}

	res := update()
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	err := db.
		Model(&models.BudgetPeriod{}).
		Where("user_id = ? AND household_id = ?", owner.UserID, owner.HouseholdID).
		Where("month = ?", month).
		Count(&count).
		Error
	if err != nil {
		return err
	}
	if count > 0 {
		return models.ErrPoolNegative
	}

	// Periods are created lazily, but an initial negative pool is still
	// a violation.
	if delta.IsNegative() {
		return models.ErrPoolNegative
	}

	period := models.BudgetPeriod{
		UserID:        owner.UserID,
		HouseholdID:   owner.HouseholdID,
		Month:         month,
		AvailablePool: delta,
	}

	err = db.Create(&period).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, models.ErrPeriodMonthNotUnique) {
		return err
	}

	res = update()
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrPoolNegative
	}

	return nil
}
