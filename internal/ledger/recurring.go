package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/pocketfold/backend/internal/models"
	"github.com/pocketfold/backend/internal/types"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ObligationResult is the outcome of applying one due obligation.
type ObligationResult struct {
	ObligationID uuid.UUID       `json:"obligationId"`
	EnvelopeID   uuid.UUID       `json:"envelopeId"`
	Name         string          `json:"name"`
	Amount       decimal.Decimal `json:"amount"`
	DueDate      time.Time       `json:"dueDate"`
	NextDueDate  time.Time       `json:"nextDueDate"`
	Error        *string         `json:"error"`
}

// RecurringRunResult aggregates one scheduler invocation.
type RecurringRunResult struct {
	Processed int                `json:"processed"`
	Errors    int                `json:"errors"`
	Results   []ObligationResult `json:"results"`
}

// FindDue returns all active obligations of one owner that are due on
// or before today, ordered by due date.
func FindDue(db *gorm.DB, owner models.Owner, today time.Time) ([]models.RecurringObligation, error) {
	if !owner.Valid() {
		return nil, models.ErrOwnerInvalid
	}

	return findDue(db.Where("user_id = ? AND household_id = ?", owner.UserID, owner.HouseholdID), today)
}

func findDue(db *gorm.DB, today time.Time) ([]models.RecurringObligation, error) {
	var due []models.RecurringObligation
	err := db.
		Where("active = ?", true).
		Where("date(next_due_date) <= date(?)", today.In(time.UTC).Format("2006-01-02")).
		Order("next_due_date ASC").
		Find(&due).
		Error
	if err != nil {
		return nil, err
	}

	return due, nil
}

// ApplyObligation materializes one due application of an obligation:
// it creates a spend entry, books the amount against the envelope's
// spent column and advances the due date by exactly one period.
//
// The advance is computed from the stored due date, not from today, so
// an obligation that missed runs catches up one period per application.
// If booking the spend fails after the spend entry was created, the
// entry is removed again (compensation) before the error is returned.
func ApplyObligation(db *gorm.DB, obligation *models.RecurringObligation) error {
	month := types.MonthOf(obligation.NextDueDate)

	spend := models.SpendEntry{
		UserID:                obligation.UserID,
		HouseholdID:           obligation.HouseholdID,
		EnvelopeID:            obligation.EnvelopeID,
		RecurringObligationID: &obligation.ID,
		Amount:                obligation.Amount,
		Date:                  obligation.NextDueDate,
		Note:                  obligation.Name,
	}
	err := db.Create(&spend).Error
	if err != nil {
		return err
	}

	err = AdjustSpent(db, obligation.EnvelopeID, month, obligation.Amount)
	if err != nil {
		compErr := db.Unscoped().Delete(&spend).Error
		if compErr != nil {
			return &CompensationError{
				Op:           "recurring spend entry",
				Cause:        err,
				Compensation: compErr,
			}
		}
		return err
	}

	newDue := obligation.Frequency.Next(obligation.NextDueDate)
	err = db.
		Model(obligation).
		Update("next_due_date", newDue).
		Error
	if err != nil {
		return err
	}
	obligation.NextDueDate = newDue

	RecordActivity(db, models.ActivityEntry{
		HouseholdID: obligation.HouseholdID,
		ActorID:     obligation.UserID,
		Action:      "recurring_applied",
		EntityType:  "recurring_obligation",
		EntityID:    obligation.ID,
		Details:     obligation.Name,
	})

	return nil
}

// ProcessDue applies all due obligations across all owners.
//
// It loops until nothing is due anymore, so an obligation that is
// months behind catches up one period per pass instead of jumping
// straight to today. A failing obligation is recorded in the result and
// excluded for the rest of the run; it never aborts the batch.
func ProcessDue(db *gorm.DB, today time.Time) (RecurringRunResult, error) {
	result := RecurringRunResult{
		Results: []ObligationResult{},
	}

	failed := map[uuid.UUID]bool{}

	for {
		due, err := findDue(db, today)
		if err != nil {
			return RecurringRunResult{}, err
		}

		applied := 0
		for i := range due {
			obligation := due[i]
			if failed[obligation.ID] {
				continue
			}

			item := ObligationResult{
				ObligationID: obligation.ID,
				EnvelopeID:   obligation.EnvelopeID,
				Name:         obligation.Name,
				Amount:       obligation.Amount,
				DueDate:      obligation.NextDueDate,
			}

			err := ApplyObligation(db, &obligation)
			if err != nil {
				s := err.Error()
				item.NextDueDate = obligation.NextDueDate
				item.Error = &s
				result.Errors++
				failed[obligation.ID] = true

				log.Error().
					Err(err).
					Str("obligation", obligation.ID.String()).
					Msg("applying recurring obligation failed")
			} else {
				item.NextDueDate = obligation.NextDueDate
				result.Processed++
				applied++
			}

			result.Results = append(result.Results, item)
		}

		// Nothing was applied in this pass, everything still due has
		// failed. Stop instead of spinning.
		if applied == 0 {
			break
		}
	}

	return result, nil
}
