package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SpendEntry is one materialized spend against an envelope.
//
// Entries created by the recurring obligation scheduler carry a
// backlink to the obligation they were materialized from.
type SpendEntry struct {
	DefaultModel
	UserID                uuid.UUID       `json:"userId"`
	HouseholdID           uuid.UUID       `json:"householdId"`
	EnvelopeID            uuid.UUID       `json:"envelopeId" gorm:"index"`
	Envelope              Envelope        `json:"-"`
	RecurringObligationID *uuid.UUID      `json:"recurringObligationId" gorm:"index"`
	Amount                decimal.Decimal `json:"amount" gorm:"type:DECIMAL(20,8)"`
	Date                  time.Time       `json:"date"`
	Note                  string          `json:"note"`
}

// BeforeSave sets the timezone for the Date to UTC.
func (s *SpendEntry) BeforeSave(_ *gorm.DB) error {
	if s.Date.IsZero() {
		s.Date = time.Now().In(time.UTC)
	} else {
		s.Date = s.Date.In(time.UTC)
	}

	s.Note = strings.TrimSpace(s.Note)

	return checkOwner(s.UserID, s.HouseholdID)
}

func (s *SpendEntry) AfterSave(_ *gorm.DB) error {
	if !s.Amount.IsPositive() {
		return ErrAmountNotPositive
	}

	return nil
}

// AfterFind updates the date to use UTC as timezone, not +0000.
func (s *SpendEntry) AfterFind(_ *gorm.DB) (err error) {
	s.Date = s.Date.In(time.UTC)
	return nil
}
