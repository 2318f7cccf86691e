package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Priority determines the order in which savings goals are funded.
// Goals with a lower rank are funded first.
type Priority string

const (
	PriorityEssential Priority = "essential"
	PriorityHigh      Priority = "high"
	PriorityMedium    Priority = "medium"
	PriorityLow       Priority = "low"
)

// Valid reports whether the priority is one of the supported values.
func (p Priority) Valid() bool {
	switch p {
	case PriorityEssential, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Rank returns the funding order of the priority, starting at 0 for
// essential.
func (p Priority) Rank() int {
	switch p {
	case PriorityEssential:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// SavingsGoal is a savings target tied to one envelope.
//
// Exactly one of MonthlyContribution and ContributionPercent is set.
// How much the goal has accumulated is always derived from the
// envelope's allocation rows; CachedSaved is a display hint that is
// refreshed after contributions but never used for decisions.
type SavingsGoal struct {
	DefaultModel
	UserID              uuid.UUID       `json:"userId"`
	HouseholdID         uuid.UUID       `json:"householdId"`
	EnvelopeID          uuid.UUID       `json:"envelopeId" gorm:"uniqueIndex"`
	Envelope            Envelope        `json:"-"`
	Name                string          `json:"name"`
	TargetAmount        decimal.Decimal `json:"targetAmount" gorm:"type:DECIMAL(20,8)"`
	MonthlyContribution decimal.Decimal `json:"monthlyContribution" gorm:"type:DECIMAL(20,8)"`
	ContributionPercent decimal.Decimal `json:"contributionPercent" gorm:"type:DECIMAL(20,8)"`
	Priority            Priority        `json:"priority"`
	AutoContribute      bool            `json:"autoContribute"`
	Paused              bool            `json:"paused"`
	CachedSaved         decimal.Decimal `json:"cachedSaved" gorm:"type:DECIMAL(20,8)"`
}

func (g *SavingsGoal) BeforeSave(_ *gorm.DB) error {
	g.Name = strings.TrimSpace(g.Name)

	if g.Priority == "" {
		g.Priority = PriorityMedium
	}

	if !g.Priority.Valid() {
		return ErrPriorityInvalid
	}

	if g.MonthlyContribution.IsPositive() == g.ContributionPercent.IsPositive() {
		return ErrContributionRuleInvalid
	}

	if g.ContributionPercent.IsNegative() || g.ContributionPercent.GreaterThan(decimal.NewFromInt(100)) {
		return ErrContributionPercentRange
	}

	if g.TargetAmount.IsNegative() || g.MonthlyContribution.IsNegative() {
		return ErrAmountNotPositive
	}

	return checkOwner(g.UserID, g.HouseholdID)
}

// Owner returns the owner of the goal.
func (g SavingsGoal) Owner() Owner {
	return Owner{UserID: g.UserID, HouseholdID: g.HouseholdID}
}
