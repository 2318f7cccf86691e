package ledger

import (
	"errors"

	"github.com/pocketfold/backend/internal/models"
	"github.com/pocketfold/backend/internal/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// driftEpsilon is the tolerance for comparing the stored pool against
// the recalculated one. It absorbs rounding of values that were written
// by clients computing with binary floats.
var driftEpsilon = decimal.NewFromFloat(0.005)

// IntegrityReport is the result of checking one owner's budget period.
type IntegrityReport struct {
	Owner          models.Owner
	Month          types.Month
	TotalIncome    decimal.Decimal
	TotalAllocated decimal.Decimal
	StoredPool     decimal.Decimal
	CalculatedPool decimal.Decimal
	Discrepancy    decimal.Decimal
	Valid          bool
	Fixed          bool
}

// CheckIntegrity recomputes the available pool for an owner and month
// from the income and allocation source rows and compares it against
// the stored pool value. The stored value is never part of the
// recalculation. Safe to call repeatedly.
func CheckIntegrity(db *gorm.DB, owner models.Owner, month types.Month) (IntegrityReport, error) {
	if !owner.Valid() {
		return IntegrityReport{}, models.ErrOwnerInvalid
	}

	report := IntegrityReport{
		Owner: owner,
		Month: month,
	}

	income, err := models.TotalIncome(db, owner, month)
	if err != nil {
		return IntegrityReport{}, err
	}
	report.TotalIncome = income

	allocated, err := models.TotalAllocated(db, owner, month)
	if err != nil {
		return IntegrityReport{}, err
	}
	report.TotalAllocated = allocated

	report.CalculatedPool = income.Sub(allocated)

	stored, err := models.AvailablePool(db, owner, month)
	if err != nil {
		return IntegrityReport{}, err
	}
	report.StoredPool = stored

	report.Discrepancy = report.CalculatedPool.Sub(stored)
	report.Valid = report.Discrepancy.Abs().LessThan(driftEpsilon)

	return report, nil
}

// FixIntegrity checks the invariant and, if it does not hold,
// overwrites the stored pool with the recalculated value. When the
// stored value is already valid this is a no-op that reports
// Fixed=false, so repairing repeatedly is always safe.
func FixIntegrity(db *gorm.DB, owner models.Owner, month types.Month) (IntegrityReport, error) {
	report, err := CheckIntegrity(db, owner, month)
	if err != nil {
		return IntegrityReport{}, err
	}

	if report.Valid {
		return report, nil
	}

	var period models.BudgetPeriod
	err = db.
		Where("user_id = ? AND household_id = ?", owner.UserID, owner.HouseholdID).
		Where("month = ?", month).
		First(&period).
		Error
	if err != nil {
		if !errors.Is(err, models.ErrResourceNotFound) {
			return IntegrityReport{}, err
		}

		period = models.BudgetPeriod{
			UserID:        owner.UserID,
			HouseholdID:   owner.HouseholdID,
			Month:         month,
			AvailablePool: report.CalculatedPool,
		}
		err = db.Create(&period).Error
		if err != nil {
			return IntegrityReport{}, err
		}
	} else {
		err = db.
			Model(&period).
			Update("available_pool", report.CalculatedPool).
			Error
		if err != nil {
			return IntegrityReport{}, err
		}
	}

	report.StoredPool = report.CalculatedPool
	report.Discrepancy = decimal.Zero
	report.Valid = true
	report.Fixed = true

	return report, nil
}
