package ledger

import (
	"github.com/google/uuid"
	"github.com/pocketfold/backend/internal/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// RecordActivity appends an entry to the household activity log.
//
// The activity log is household-scoped, entries for personal budgets
// are dropped. Append failures are logged and swallowed: the log is a
// side-effect sink and must never fail a ledger operation.
func RecordActivity(db *gorm.DB, entry models.ActivityEntry) {
	if entry.HouseholdID == uuid.Nil {
		return
	}

	err := db.Create(&entry).Error
	if err != nil {
		log.Error().
			Err(err).
			Str("action", entry.Action).
			Str("household", entry.HouseholdID.String()).
			Msg("recording activity failed")
	}
}
