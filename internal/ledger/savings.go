package ledger

import (
	"github.com/google/uuid"
	"github.com/pocketfold/backend/internal/models"
	"github.com/pocketfold/backend/internal/types"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// ContributionResult is the outcome for one goal in an engine run.
type ContributionResult struct {
	GoalID     uuid.UUID               `json:"goalId"`
	EnvelopeID uuid.UUID               `json:"envelopeId"`
	Name       string                  `json:"name"`
	Priority   models.Priority         `json:"priority"`
	Amount     decimal.Decimal         `json:"amount"`
	Status     models.AllocationStatus `json:"status"`
	Reason     string                  `json:"reason,omitempty"`
	Error      *string                 `json:"error"`
}

// ContributionRunResult aggregates one engine invocation.
type ContributionRunResult struct {
	Processed int                  `json:"processed"`
	Skipped   int                  `json:"skipped"`
	Errors    int                  `json:"errors"`
	Results   []ContributionResult `json:"results"`
}

// ProcessContributions funds savings goals from the available pool for
// one month, honoring priority order within each owner.
//
// A nil scope processes all owners; a non-nil scope restricts the run
// to that owner. Each owner's goals are processed independently against
// that owner's pool, strictly ordered essential > high > medium > low.
// The engine is idempotent per (envelope, month): a successful history
// entry gates every goal, so overlapping runs (cron plus a manual
// trigger) never contribute twice. Individual goal failures are
// captured per item; only failing to load the goals at all is fatal.
func ProcessContributions(db *gorm.DB, scope *models.Owner, month types.Month) (ContributionRunResult, error) {
	q := db.
		Where("auto_contribute = ?", true).
		Where("paused = ?", false)
	if scope != nil {
		if !scope.Valid() {
			return ContributionRunResult{}, models.ErrOwnerInvalid
		}
		q = q.Where("user_id = ? AND household_id = ?", scope.UserID, scope.HouseholdID)
	}

	var goals []models.SavingsGoal
	err := q.Order("created_at ASC").Find(&goals).Error
	if err != nil {
		return ContributionRunResult{}, err
	}

	// Priority order decides who draws from the pool first. The sort is
	// stable, so goals of equal priority keep their creation order.
	slices.SortStableFunc(goals, func(a, b models.SavingsGoal) int {
		return a.Priority.Rank() - b.Priority.Rank()
	})

	// Group per owner. Goals never compete across owners, each group
	// runs against its own pool.
	owners := []models.Owner{}
	grouped := map[models.Owner][]models.SavingsGoal{}
	for _, goal := range goals {
		owner := goal.Owner()
		if _, ok := grouped[owner]; !ok {
			owners = append(owners, owner)
		}
		grouped[owner] = append(grouped[owner], goal)
	}

	result := ContributionRunResult{
		Results: []ContributionResult{},
	}

	for _, owner := range owners {
		for _, goal := range grouped[owner] {
			item := processGoal(db, goal, month)

			switch item.Status {
			case models.AllocationSuccess:
				result.Processed++
			case models.AllocationSkipped:
				result.Skipped++
			default:
				result.Errors++
			}

			result.Results = append(result.Results, item)
		}
	}

	return result, nil
}

// processGoal runs the contribution algorithm for a single goal.
// It never returns an error: every failure is captured in the result
// item and in the history.
func processGoal(db *gorm.DB, goal models.SavingsGoal, month types.Month) ContributionResult {
	item := ContributionResult{
		GoalID:     goal.ID,
		EnvelopeID: goal.EnvelopeID,
		Name:       goal.Name,
		Priority:   goal.Priority,
		Amount:     decimal.Zero,
	}

	// Idempotency gate: one successful contribution per envelope and
	// month. Checked per goal so that re-invoking mid-period is safe.
	done, err := models.ContributedThisMonth(db, goal.EnvelopeID, month)
	if err != nil {
		return errorResult(db, goal, month, item, err, "contribution not attempted")
	}
	if done {
		item.Status = models.AllocationSkipped
		item.Reason = models.ReasonAlreadyProcessed
		return item
	}

	// The saved amount is always derived from the allocation rows, the
	// cached value on the goal is a display hint only.
	saved, err := models.Envelope{DefaultModel: models.DefaultModel{ID: goal.EnvelopeID}}.Saved(db)
	if err != nil {
		return errorResult(db, goal, month, item, err, "contribution not attempted")
	}

	if goal.TargetAmount.IsPositive() && saved.GreaterThanOrEqual(goal.TargetAmount) {
		item.Status = models.AllocationSkipped
		item.Reason = models.ReasonTargetReached
		recordContribution(db, goal, month, item)
		return item
	}

	// Re-read the pool for every goal: earlier goals in this run have
	// already drawn from it.
	pool, err := models.AvailablePool(db, goal.Owner(), month)
	if err != nil {
		return errorResult(db, goal, month, item, err, "contribution not attempted")
	}

	contribution := goal.MonthlyContribution
	if !contribution.IsPositive() {
		contribution = pool.Mul(goal.ContributionPercent).Div(decimal.NewFromInt(100)).Round(2)
	}

	if goal.TargetAmount.IsPositive() {
		contribution = decimal.Min(contribution, goal.TargetAmount.Sub(saved))
	}
	contribution = decimal.Min(contribution, pool)

	if !contribution.IsPositive() {
		item.Status = models.AllocationSkipped
		item.Reason = models.ReasonInsufficientFunds
		recordContribution(db, goal, month, item)
		return item
	}

	item.Amount = contribution

	// Apply as a saga: fund the envelope, then draw down the pool. If
	// the second half fails the envelope adjustment is compensated, so
	// the ledger is as if nothing happened.
	err = AdjustAllocated(db, goal.EnvelopeID, month, contribution)
	if err != nil {
		item.Amount = decimal.Zero
		return errorResult(db, goal, month, item, err, "contribution not attempted")
	}

	err = AdjustAvailablePool(db, goal.Owner(), month, contribution.Neg())
	if err != nil {
		compErr := AdjustAllocated(db, goal.EnvelopeID, month, contribution.Neg())
		item.Amount = decimal.Zero
		if compErr != nil {
			cErr := &CompensationError{
				Op:           "savings contribution",
				Cause:        err,
				Compensation: compErr,
			}
			log.Error().Err(cErr).Str("goal", goal.ID.String()).Msg("ledger inconsistent, run integrity fix")
			return errorResult(db, goal, month, item, cErr, "compensation failed, envelope allocation not restored")
		}

		return errorResult(db, goal, month, item, err, "contribution rolled back")
	}

	item.Status = models.AllocationSuccess
	recordContribution(db, goal, month, item)

	// Refresh the display hint. Never authoritative, failures ignored.
	_ = db.Model(&goal).Update("cached_saved", saved.Add(contribution)).Error

	RecordActivity(db, models.ActivityEntry{
		HouseholdID: goal.HouseholdID,
		ActorID:     goal.UserID,
		Action:      "auto_contribution",
		EntityType:  "savings_goal",
		EntityID:    goal.ID,
		Details:     goal.Name,
	})

	return item
}

// errorResult marks the item as errored and records a history entry
// whose message distinguishes a rolled back attempt from one that was
// never applied.
func errorResult(db *gorm.DB, goal models.SavingsGoal, month types.Month, item ContributionResult, cause error, message string) ContributionResult {
	s := cause.Error()
	item.Status = models.AllocationError
	item.Error = &s

	entry := models.AutoAllocationEntry{
		UserID:      goal.UserID,
		HouseholdID: goal.HouseholdID,
		GoalID:      goal.ID,
		EnvelopeID:  goal.EnvelopeID,
		Month:       month,
		Amount:      item.Amount,
		Priority:    goal.Priority,
		Status:      models.AllocationError,
		Message:     message + ": " + s,
	}

	err := db.Create(&entry).Error
	if err != nil {
		log.Error().Err(err).Str("goal", goal.ID.String()).Msg("recording auto-allocation history failed")
	}

	return item
}

// recordContribution appends the history entry for a successful or
// skipped contribution. A zero-amount entry is never recorded as
// success.
func recordContribution(db *gorm.DB, goal models.SavingsGoal, month types.Month, item ContributionResult) {
	entry := models.AutoAllocationEntry{
		UserID:      goal.UserID,
		HouseholdID: goal.HouseholdID,
		GoalID:      goal.ID,
		EnvelopeID:  goal.EnvelopeID,
		Month:       month,
		Amount:      item.Amount,
		Priority:    goal.Priority,
		Status:      item.Status,
		Reason:      item.Reason,
	}

	err := db.Create(&entry).Error
	if err != nil {
		log.Error().Err(err).Str("goal", goal.ID.String()).Msg("recording auto-allocation history failed")
	}
}
