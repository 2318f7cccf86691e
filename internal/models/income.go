package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pocketfold/backend/internal/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// IncomeEntry is one recorded income for an owner in a month.
// The total income of a BudgetPeriod is always derived from these rows.
type IncomeEntry struct {
	DefaultModel
	UserID      uuid.UUID       `json:"userId" gorm:"index:income_owner_month"`
	HouseholdID uuid.UUID       `json:"householdId" gorm:"index:income_owner_month"`
	Month       types.Month     `json:"month" gorm:"index:income_owner_month"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:DECIMAL(20,8)"`
	Source      string          `json:"source"`
	Note        string          `json:"note"`
}

func (i *IncomeEntry) BeforeSave(_ *gorm.DB) error {
	i.Source = strings.TrimSpace(i.Source)
	i.Note = strings.TrimSpace(i.Note)

	return checkOwner(i.UserID, i.HouseholdID)
}

func (i *IncomeEntry) AfterSave(_ *gorm.DB) error {
	if !i.Amount.IsPositive() {
		return ErrAmountNotPositive
	}

	return nil
}
