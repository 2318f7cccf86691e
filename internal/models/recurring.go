package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Frequency is how often a recurring obligation is due.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// Valid reports whether the frequency is one of the supported values.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// Next returns the due date following from, advanced by exactly one
// period. Month-based frequencies land on the same day of the month,
// clamped to the last valid day for shorter target months, so an
// obligation anchored on the 31st is due on Feb 28 (or 29).
func (f Frequency) Next(from time.Time) time.Time {
	switch f {
	case FrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case FrequencyBiweekly:
		return from.AddDate(0, 0, 14)
	case FrequencyMonthly:
		return addMonthsClamped(from, 1)
	case FrequencyQuarterly:
		return addMonthsClamped(from, 3)
	case FrequencyYearly:
		return addMonthsClamped(from, 12)
	}

	return from
}

// addMonthsClamped adds months without the day overflow of
// time.Time.AddDate, which would turn Jan 31 + 1 month into Mar 3.
func addMonthsClamped(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)

	// Last day of the target month
	last := first.AddDate(0, 1, -1).Day()

	day := t.Day()
	if day > last {
		day = last
	}

	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// RecurringObligation is a template that the scheduler materializes
// into a real spend entry every time it comes due.
//
// The scheduler only ever advances NextDueDate; the amount is never
// mutated automatically. Inactive obligations are excluded from due
// scans entirely until they are explicitly reactivated.
type RecurringObligation struct {
	DefaultModel
	UserID      uuid.UUID       `json:"userId"`
	HouseholdID uuid.UUID       `json:"householdId"`
	EnvelopeID  uuid.UUID       `json:"envelopeId" gorm:"index"`
	Envelope    Envelope        `json:"-"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:DECIMAL(20,8)"`
	Frequency   Frequency       `json:"frequency"`
	NextDueDate time.Time       `json:"nextDueDate" gorm:"index"`
	Active      bool            `json:"active"`
}

func (r *RecurringObligation) BeforeSave(_ *gorm.DB) error {
	r.Name = strings.TrimSpace(r.Name)

	if !r.Frequency.Valid() {
		return ErrFrequencyInvalid
	}

	if r.NextDueDate.IsZero() {
		r.NextDueDate = time.Now().In(time.UTC)
	} else {
		r.NextDueDate = r.NextDueDate.In(time.UTC)
	}

	return checkOwner(r.UserID, r.HouseholdID)
}

func (r *RecurringObligation) AfterSave(_ *gorm.DB) error {
	if !r.Amount.IsPositive() {
		return ErrAmountNotPositive
	}

	return nil
}

// AfterFind updates the due date to use UTC as timezone, not +0000.
func (r *RecurringObligation) AfterFind(_ *gorm.DB) (err error) {
	r.NextDueDate = r.NextDueDate.In(time.UTC)
	return nil
}

// Owner returns the owner of the obligation.
func (r RecurringObligation) Owner() Owner {
	return Owner{UserID: r.UserID, HouseholdID: r.HouseholdID}
}
