package models

import (
	"github.com/google/uuid"
)

// ActivityEntry is one row in the household activity log.
//
// The log is a pure side-effect sink for displaying recent changes to
// household members. Nothing in the ledger depends on it for
// correctness and failures to append are logged, never propagated.
type ActivityEntry struct {
	DefaultModel
	HouseholdID uuid.UUID `json:"householdId" gorm:"index"`
	ActorID     uuid.UUID `json:"actorId"`
	Action      string    `json:"action"`
	EntityType  string    `json:"entityType"`
	EntityID    uuid.UUID `json:"entityId"`
	Details     string    `json:"details"`
}
