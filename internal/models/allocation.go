package models

import (
	"github.com/google/uuid"
	"github.com/pocketfold/backend/internal/types"
	"github.com/shopspring/decimal"
)

// EnvelopeAllocation holds the allocated and spent amounts of one
// envelope for one month.
//
// Both amounts only ever change through the atomic adjustment
// primitives in the ledger package. Allocated and Spent are each
// non-negative; Spent exceeding Allocated (overspend) is a valid state
// that is displayed to users, not an error.
type EnvelopeAllocation struct {
	Timestamps
	EnvelopeID uuid.UUID       `json:"envelopeId" gorm:"primaryKey"` // ID of the envelope
	Month      types.Month     `json:"month" gorm:"primaryKey"`
	Allocated  decimal.Decimal `json:"allocated" gorm:"type:DECIMAL(20,8)"`
	Spent      decimal.Decimal `json:"spent" gorm:"type:DECIMAL(20,8)"`
}
