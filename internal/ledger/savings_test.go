package ledger_test

import (
	"errors"

	"github.com/google/uuid"
	"github.com/pocketfold/backend/internal/ledger"
	"github.com/pocketfold/backend/internal/models"
	"github.com/pocketfold/backend/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func (suite *TestSuiteStandard) pool(owner models.Owner, month types.Month) decimal.Decimal {
	pool, err := models.AvailablePool(suite.db, owner, month)
	require.Nil(suite.T(), err)
	return pool
}

func (suite *TestSuiteStandard) TestProcessContributionsFixedAmount() {
	owner := models.UserOwner(uuid.New())
	month := types.NewMonth(2024, 6)
	require.Nil(suite.T(), ledger.AdjustAvailablePool(suite.db, owner, month, decimal.NewFromFloat(500)))

	envelope := suite.createTestEnvelope(models.Envelope{UserID: owner.UserID, Name: "Vacation"})
	goal := suite.createTestSavingsGoal(models.SavingsGoal{
		UserID:              owner.UserID,
		EnvelopeID:          envelope.ID,
		Name:                "Vacation",
		MonthlyContribution: decimal.NewFromFloat(100),
		AutoContribute:      true,
	})

	result, err := ledger.ProcessContributions(suite.db, &owner, month)
	require.Nil(suite.T(), err)

	assert.Equal(suite.T(), 1, result.Processed)
	assert.Equal(suite.T(), 0, result.Skipped)
	assert.Equal(suite.T(), 0, result.Errors)
	require.Len(suite.T(), result.Results, 1)

	item := result.Results[0]
	assert.Equal(suite.T(), goal.ID, item.GoalID)
	assert.Equal(suite.T(), models.AllocationSuccess, item.Status)
	assert.True(suite.T(), item.Amount.Equal(decimal.NewFromFloat(100)), "Contribution is %s, should be 100", item.Amount)

	// Envelope funded, pool drawn down
	saved, err := envelope.Saved(suite.db)
	require.Nil(suite.T(), err)
	assert.True(suite.T(), saved.Equal(decimal.NewFromFloat(100)), "Saved is %s, should be 100", saved)
	assert.True(suite.T(), suite.pool(owner, month).Equal(decimal.NewFromFloat(400)))

	// History records the success
	var entries []models.AutoAllocationEntry
	require.Nil(suite.T(), suite.db.Where("goal_id = ?", goal.ID).Find(&entries).Error)
	require.Len(suite.T(), entries, 1)
	assert.Equal(suite.T(), models.AllocationSuccess, entries[0].Status)
	assert.True(suite.T(), entries[0].Amount.Equal(decimal.NewFromFloat(100)))
}

func (suite *TestSuiteStandard) TestProcessContributionsIdempotent() {
	owner := models.UserOwner(uuid.New())
	month := types.NewMonth(2024, 6)
	require.Nil(suite.T(), ledger.AdjustAvailablePool(suite.db, owner, month, decimal.NewFromFloat(500)))

	envelope := suite.createTestEnvelope(models.Envelope{UserID: owner.UserID, Name: "Vacation"})
	_ = suite.createTestSavingsGoal(models.SavingsGoal{
		UserID:              owner.UserID,
		EnvelopeID:          envelope.ID,
		MonthlyContribution: decimal.NewFromFloat(100),
		AutoContribute:      true,
	})

	_, err := ledger.ProcessContributions(suite.db, &owner, month)
	require.Nil(suite.T(), err)

	// The second run in the same month must not contribute again
	result, err := ledger.ProcessContributions(suite.db, &owner, month)
	require.Nil(suite.T(), err)

	assert.Equal(suite.T(), 0, result.Processed)
	assert.Equal(suite.T(), 1, result.Skipped)
	require.Len(suite.T(), result.Results, 1)
	assert.Equal(suite.T(), models.ReasonAlreadyProcessed, result.Results[0].Reason)

	saved, err := envelope.Saved(suite.db)
	require.Nil(suite.T(), err)
	assert.True(suite.T(), saved.Equal(decimal.NewFromFloat(100)), "Saved is %s, should still be 100", saved)
	assert.True(suite.T(), suite.pool(owner, month).Equal(decimal.NewFromFloat(400)))

	// The next month is a fresh period
	nextMonth := month.AddDate(0, 1)
	require.Nil(suite.T(), ledger.AdjustAvailablePool(suite.db, owner, nextMonth, decimal.NewFromFloat(500)))

	result, err = ledger.ProcessContributions(suite.db, &owner, nextMonth)
	require.Nil(suite.T(), err)
	assert.Equal(suite.T(), 1, result.Processed)
}

func (suite *TestSuiteStandard) TestProcessContributionsPriorityOrder() {
	owner := models.UserOwner(uuid.New())
	month := types.NewMonth(2024, 6)
	require.Nil(suite.T(), ledger.AdjustAvailablePool(suite.db, owner, month, decimal.NewFromFloat(150)))

	carEnvelope := suite.createTestEnvelope(models.Envelope{UserID: owner.UserID, Name: "Car"})
	emergencyEnvelope := suite.createTestEnvelope(models.Envelope{UserID: owner.UserID, Name: "Emergency fund"})

	// Created first, but funded last because of its priority
	car := suite.createTestSavingsGoal(models.SavingsGoal{
		UserID:              owner.UserID,
		EnvelopeID:          carEnvelope.ID,
		Name:                "Car",
		MonthlyContribution: decimal.NewFromFloat(100),
		Priority:            models.PriorityLow,
		AutoContribute:      true,
	})
	emergency := suite.createTestSavingsGoal(models.SavingsGoal{
		UserID:              owner.UserID,
		EnvelopeID:          emergencyEnvelope.ID,
		Name:                "Emergency fund",
		MonthlyContribution: decimal.NewFromFloat(100),
		Priority:            models.PriorityEssential,
		AutoContribute:      true,
	})

	result, err := ledger.ProcessContributions(suite.db, &owner, month)
	require.Nil(suite.T(), err)

	assert.Equal(suite.T(), 2, result.Processed)
	require.Len(suite.T(), result.Results, 2)

	// The essential goal gets its full contribution, the low priority
	// goal is capped to what is left of the pool
	assert.Equal(suite.T(), emergency.ID, result.Results[0].GoalID)
	assert.True(suite.T(), result.Results[0].Amount.Equal(decimal.NewFromFloat(100)), "Essential contribution is %s", result.Results[0].Amount)

	assert.Equal(suite.T(), car.ID, result.Results[1].GoalID)
	assert.True(suite.T(), result.Results[1].Amount.Equal(decimal.NewFromFloat(50)), "Low priority contribution is %s", result.Results[1].Amount)

	assert.True(suite.T(), suite.pool(owner, month).IsZero())
}

func (suite *TestSuiteStandard) TestProcessContributionsPercentage() {
	owner := models.UserOwner(uuid.New())
	month := types.NewMonth(2024, 6)
	require.Nil(suite.T(), ledger.AdjustAvailablePool(suite.db, owner, month, decimal.NewFromFloat(200)))

	envelope := suite.createTestEnvelope(models.Envelope{UserID: owner.UserID, Name: "Retirement"})
	_ = suite.createTestSavingsGoal(models.SavingsGoal{
		UserID:              owner.UserID,
		EnvelopeID:          envelope.ID,
		ContributionPercent: decimal.NewFromFloat(25),
		AutoContribute:      true,
	})

	result, err := ledger.ProcessContributions(suite.db, &owner, month)
	require.Nil(suite.T(), err)

	require.Len(suite.T(), result.Results, 1)
	assert.True(suite.T(), result.Results[0].Amount.Equal(decimal.NewFromFloat(50)), "Contribution is %s, should be 25%% of 200", result.Results[0].Amount)
	assert.True(suite.T(), suite.pool(owner, month).Equal(decimal.NewFromFloat(150)))
}

func (suite *TestSuiteStandard) TestProcessContributionsTargetCap() {
	owner := models.UserOwner(uuid.New())
	month := types.NewMonth(2024, 6)
	require.Nil(suite.T(), ledger.AdjustAvailablePool(suite.db, owner, month, decimal.NewFromFloat(500)))

	envelope := suite.createTestEnvelope(models.Envelope{UserID: owner.UserID, Name: "Laptop"})

	// Already saved 80 in an earlier month
	require.Nil(suite.T(), ledger.AdjustAllocated(suite.db, envelope.ID, month.AddDate(0, -1), decimal.NewFromFloat(80)))

	_ = suite.createTestSavingsGoal(models.SavingsGoal{
		UserID:              owner.UserID,
		EnvelopeID:          envelope.ID,
		TargetAmount:        decimal.NewFromFloat(100),
		MonthlyContribution: decimal.NewFromFloat(50),
		AutoContribute:      true,
	})

	result, err := ledger.ProcessContributions(suite.db, &owner, month)
	require.Nil(suite.T(), err)

	// Only the 20 still missing to the target are contributed
	require.Len(suite.T(), result.Results, 1)
	assert.Equal(suite.T(), models.AllocationSuccess, result.Results[0].Status)
	assert.True(suite.T(), result.Results[0].Amount.Equal(decimal.NewFromFloat(20)), "Contribution is %s, should be 20", result.Results[0].Amount)
}

func (suite *TestSuiteStandard) TestProcessContributionsTargetReached() {
	owner := models.UserOwner(uuid.New())
	month := types.NewMonth(2024, 6)
	require.Nil(suite.T(), ledger.AdjustAvailablePool(suite.db, owner, month, decimal.NewFromFloat(500)))

	envelope := suite.createTestEnvelope(models.Envelope{UserID: owner.UserID, Name: "Laptop"})
	require.Nil(suite.T(), ledger.AdjustAllocated(suite.db, envelope.ID, month.AddDate(0, -1), decimal.NewFromFloat(100)))

	goal := suite.createTestSavingsGoal(models.SavingsGoal{
		UserID:              owner.UserID,
		EnvelopeID:          envelope.ID,
		TargetAmount:        decimal.NewFromFloat(100),
		MonthlyContribution: decimal.NewFromFloat(50),
		AutoContribute:      true,
	})

	result, err := ledger.ProcessContributions(suite.db, &owner, month)
	require.Nil(suite.T(), err)

	assert.Equal(suite.T(), 1, result.Skipped)
	require.Len(suite.T(), result.Results, 1)
	assert.Equal(suite.T(), models.AllocationSkipped, result.Results[0].Status)
	assert.Equal(suite.T(), models.ReasonTargetReached, result.Results[0].Reason)

	// The skip is recorded in the history
	var entries []models.AutoAllocationEntry
	require.Nil(suite.T(), suite.db.Where("goal_id = ?", goal.ID).Find(&entries).Error)
	require.Len(suite.T(), entries, 1)
	assert.Equal(suite.T(), models.AllocationSkipped, entries[0].Status)
	assert.Equal(suite.T(), models.ReasonTargetReached, entries[0].Reason)

	// Nothing was drawn from the pool
	assert.True(suite.T(), suite.pool(owner, month).Equal(decimal.NewFromFloat(500)))
}

func (suite *TestSuiteStandard) TestProcessContributionsInsufficientFunds() {
	owner := models.UserOwner(uuid.New())
	month := types.NewMonth(2024, 6)

	// No pool at all
	envelope := suite.createTestEnvelope(models.Envelope{UserID: owner.UserID, Name: "Vacation"})
	_ = suite.createTestSavingsGoal(models.SavingsGoal{
		UserID:              owner.UserID,
		EnvelopeID:          envelope.ID,
		MonthlyContribution: decimal.NewFromFloat(100),
		AutoContribute:      true,
	})

	result, err := ledger.ProcessContributions(suite.db, &owner, month)
	require.Nil(suite.T(), err)

	assert.Equal(suite.T(), 1, result.Skipped)
	require.Len(suite.T(), result.Results, 1)
	assert.Equal(suite.T(), models.AllocationSkipped, result.Results[0].Status)
	assert.Equal(suite.T(), models.ReasonInsufficientFunds, result.Results[0].Reason)

	saved, err := envelope.Saved(suite.db)
	require.Nil(suite.T(), err)
	assert.True(suite.T(), saved.IsZero())
}

func (suite *TestSuiteStandard) TestProcessContributionsSkipsPausedAndManual() {
	owner := models.UserOwner(uuid.New())
	month := types.NewMonth(2024, 6)
	require.Nil(suite.T(), ledger.AdjustAvailablePool(suite.db, owner, month, decimal.NewFromFloat(500)))

	pausedEnvelope := suite.createTestEnvelope(models.Envelope{UserID: owner.UserID, Name: "Paused"})
	_ = suite.createTestSavingsGoal(models.SavingsGoal{
		UserID:              owner.UserID,
		EnvelopeID:          pausedEnvelope.ID,
		MonthlyContribution: decimal.NewFromFloat(100),
		AutoContribute:      true,
		Paused:              true,
	})

	manualEnvelope := suite.createTestEnvelope(models.Envelope{UserID: owner.UserID, Name: "Manual"})
	_ = suite.createTestSavingsGoal(models.SavingsGoal{
		UserID:              owner.UserID,
		EnvelopeID:          manualEnvelope.ID,
		MonthlyContribution: decimal.NewFromFloat(100),
	})

	result, err := ledger.ProcessContributions(suite.db, &owner, month)
	require.Nil(suite.T(), err)

	assert.Len(suite.T(), result.Results, 0)
	assert.True(suite.T(), suite.pool(owner, month).Equal(decimal.NewFromFloat(500)))
}

func (suite *TestSuiteStandard) TestProcessContributionsScopes() {
	month := types.NewMonth(2024, 6)

	alice := models.UserOwner(uuid.New())
	household := models.HouseholdOwner(uuid.New())

	require.Nil(suite.T(), ledger.AdjustAvailablePool(suite.db, alice, month, decimal.NewFromFloat(100)))
	require.Nil(suite.T(), ledger.AdjustAvailablePool(suite.db, household, month, decimal.NewFromFloat(100)))

	aliceEnvelope := suite.createTestEnvelope(models.Envelope{UserID: alice.UserID, Name: "Alice"})
	_ = suite.createTestSavingsGoal(models.SavingsGoal{
		UserID:              alice.UserID,
		EnvelopeID:          aliceEnvelope.ID,
		MonthlyContribution: decimal.NewFromFloat(50),
		AutoContribute:      true,
	})

	householdEnvelope := suite.createTestEnvelope(models.Envelope{HouseholdID: household.HouseholdID, Name: "Household"})
	_ = suite.createTestSavingsGoal(models.SavingsGoal{
		HouseholdID:         household.HouseholdID,
		EnvelopeID:          householdEnvelope.ID,
		MonthlyContribution: decimal.NewFromFloat(50),
		AutoContribute:      true,
	})

	// A scoped run only touches the requested owner
	result, err := ledger.ProcessContributions(suite.db, &alice, month)
	require.Nil(suite.T(), err)
	assert.Equal(suite.T(), 1, result.Processed)
	assert.True(suite.T(), suite.pool(household, month).Equal(decimal.NewFromFloat(100)))

	// A global run picks up the remaining owner
	result, err = ledger.ProcessContributions(suite.db, nil, month)
	require.Nil(suite.T(), err)
	assert.Equal(suite.T(), 1, result.Processed)
	assert.Equal(suite.T(), 1, result.Skipped)
	assert.True(suite.T(), suite.pool(household, month).Equal(decimal.NewFromFloat(50)))
}

func (suite *TestSuiteStandard) TestProcessContributionsInvalidScope() {
	_, err := ledger.ProcessContributions(suite.db, &models.Owner{}, types.NewMonth(2024, 6))
	assert.ErrorIs(suite.T(), err, models.ErrOwnerInvalid)
}

func (suite *TestSuiteStandard) TestProcessContributionsDatabaseError() {
	suite.CloseDB()

	_, err := ledger.ProcessContributions(suite.db, nil, types.NewMonth(2024, 6))
	assert.NotNil(suite.T(), err)
}

func (suite *TestSuiteStandard) TestProcessContributionsRollsBackOnPoolFailure() {
	owner := models.UserOwner(uuid.New())
	month := types.NewMonth(2024, 6)
	require.Nil(suite.T(), ledger.AdjustAvailablePool(suite.db, owner, month, decimal.NewFromFloat(500)))

	envelope := suite.createTestEnvelope(models.Envelope{UserID: owner.UserID, Name: "Vacation"})
	goal := suite.createTestSavingsGoal(models.SavingsGoal{
		UserID:              owner.UserID,
		EnvelopeID:          envelope.ID,
		MonthlyContribution: decimal.NewFromFloat(100),
		AutoContribute:      true,
	})

	// The pool draw-down fails after the envelope has been funded, so
	// the engine has to take the allocation back out again.
	err := suite.db.Callback().Update().Before("gorm:update").Register("fail_pool_update", func(db *gorm.DB) {
		if db.Statement.Table == "budget_periods" {
			db.AddError(errors.New("disk I/O error"))
		}
	})
	require.Nil(suite.T(), err)

	result, err := ledger.ProcessContributions(suite.db, &owner, month)
	require.Nil(suite.T(), err)

	assert.Equal(suite.T(), 0, result.Processed)
	assert.Equal(suite.T(), 1, result.Errors)
	require.Len(suite.T(), result.Results, 1)

	item := result.Results[0]
	assert.Equal(suite.T(), models.AllocationError, item.Status)
	assert.True(suite.T(), item.Amount.IsZero(), "Amount is %s, should be 0 after the rollback", item.Amount)
	require.NotNil(suite.T(), item.Error)

	// The compensation undid the envelope funding and the pool was
	// never touched, the ledger is as if nothing happened.
	saved, err := envelope.Saved(suite.db)
	require.Nil(suite.T(), err)
	assert.True(suite.T(), saved.IsZero(), "Saved is %s, should be 0 after the rollback", saved)
	assert.True(suite.T(), suite.pool(owner, month).Equal(decimal.NewFromFloat(500)))

	var entries []models.AutoAllocationEntry
	require.Nil(suite.T(), suite.db.Where("goal_id = ?", goal.ID).Find(&entries).Error)
	require.Len(suite.T(), entries, 1)
	assert.Equal(suite.T(), models.AllocationError, entries[0].Status)
	assert.Contains(suite.T(), entries[0].Message, "contribution rolled back")
}

func (suite *TestSuiteStandard) TestProcessContributionsCompensationFailure() {
	owner := models.UserOwner(uuid.New())
	month := types.NewMonth(2024, 6)
	require.Nil(suite.T(), ledger.AdjustAvailablePool(suite.db, owner, month, decimal.NewFromFloat(500)))

	envelope := suite.createTestEnvelope(models.Envelope{UserID: owner.UserID, Name: "Vacation"})
	goal := suite.createTestSavingsGoal(models.SavingsGoal{
		UserID:              owner.UserID,
		EnvelopeID:          envelope.ID,
		MonthlyContribution: decimal.NewFromFloat(100),
		AutoContribute:      true,
	})

	// Fail the pool draw-down and then the compensating allocation
	// update as well. The first allocation update has to go through so
	// that there is something to compensate.
	allocationUpdates := 0
	err := suite.db.Callback().Update().Before("gorm:update").Register("fail_pool_and_compensation", func(db *gorm.DB) {
		switch db.Statement.Table {
		case "budget_periods":
			db.AddError(errors.New("disk I/O error"))
		case "envelope_allocations":
			allocationUpdates++
			if allocationUpdates > 1 {
				db.AddError(errors.New("disk I/O error"))
			}
		}
	})
	require.Nil(suite.T(), err)

	result, err := ledger.ProcessContributions(suite.db, &owner, month)
	require.Nil(suite.T(), err)

	assert.Equal(suite.T(), 1, result.Errors)
	require.Len(suite.T(), result.Results, 1)

	item := result.Results[0]
	assert.Equal(suite.T(), models.AllocationError, item.Status)
	require.NotNil(suite.T(), item.Error)
	assert.Contains(suite.T(), *item.Error, "compensation")

	// The envelope keeps the funding that could not be taken back, so
	// the ledger is now inconsistent until it is repaired.
	saved, err := envelope.Saved(suite.db)
	require.Nil(suite.T(), err)
	assert.True(suite.T(), saved.Equal(decimal.NewFromFloat(100)), "Saved is %s, should be the unrestored 100", saved)
	assert.True(suite.T(), suite.pool(owner, month).Equal(decimal.NewFromFloat(500)))

	var entries []models.AutoAllocationEntry
	require.Nil(suite.T(), suite.db.Where("goal_id = ?", goal.ID).Find(&entries).Error)
	require.Len(suite.T(), entries, 1)
	assert.Contains(suite.T(), entries[0].Message, "not restored")
}

func (suite *TestSuiteStandard) TestProcessContributionsRefreshesCachedSaved() {
	owner := models.UserOwner(uuid.New())
	month := types.NewMonth(2024, 6)
	require.Nil(suite.T(), ledger.AdjustAvailablePool(suite.db, owner, month, decimal.NewFromFloat(500)))

	envelope := suite.createTestEnvelope(models.Envelope{UserID: owner.UserID, Name: "Vacation"})
	goal := suite.createTestSavingsGoal(models.SavingsGoal{
		UserID:              owner.UserID,
		EnvelopeID:          envelope.ID,
		MonthlyContribution: decimal.NewFromFloat(100),
		AutoContribute:      true,
	})

	_, err := ledger.ProcessContributions(suite.db, &owner, month)
	require.Nil(suite.T(), err)

	var reloaded models.SavingsGoal
	require.Nil(suite.T(), suite.db.Where("id = ?", goal.ID).First(&reloaded).Error)
	assert.True(suite.T(), reloaded.CachedSaved.Equal(decimal.NewFromFloat(100)), "CachedSaved is %s, should be 100", reloaded.CachedSaved)
}
