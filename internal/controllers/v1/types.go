package v1

import (
	"github.com/google/uuid"
	"github.com/pocketfold/backend/internal/ledger"
	"github.com/pocketfold/backend/internal/models"
	"github.com/pocketfold/backend/internal/types"
	ez_uuid "github.com/pocketfold/backend/internal/uuid"
	"github.com/shopspring/decimal"
)

// RecurringRunResponse is the response of the recurring processing
// endpoint. The endpoint returns HTTP 200 even when single obligations
// failed; callers must inspect the results array.
type RecurringRunResponse struct {
	Error *string `json:"error"` // The error, if any occurred
	ledger.RecurringRunResult
}

// ContributionRequest scopes a savings contribution run.
// All fields are optional: an empty body processes all owners for the
// current month.
type ContributionRequest struct {
	UserID      uuid.UUID `json:"userId"`
	HouseholdID uuid.UUID `json:"householdId"`
	MonthKey    string    `json:"monthKey" example:"2024-07"`
}

// ContributionRunResponse is the response of the savings contribution
// endpoint. Like the recurring endpoint it returns HTTP 200 with
// per-goal outcomes.
type ContributionRunResponse struct {
	Error *string `json:"error"` // The error, if any occurred
	ledger.ContributionRunResult
}

// IntegrityRequest identifies the budget period to check and whether a
// detected drift should be repaired.
type IntegrityRequest struct {
	UserID      uuid.UUID `json:"userId"`
	HouseholdID uuid.UUID `json:"householdId"`
	MonthKey    string    `json:"monthKey" binding:"required" example:"2024-07"`
	Fix         bool      `json:"fix"`
}

// IntegrityResponse reports the outcome of an integrity check.
type IntegrityResponse struct {
	Error                  *string         `json:"error"` // The error, if any occurred
	IsValid                bool            `json:"isValid"`
	TotalIncomes           decimal.Decimal `json:"totalIncomes"`
	TotalAllocations       decimal.Decimal `json:"totalAllocations"`
	StoredToBeBudgeted     decimal.Decimal `json:"storedToBeBudgeted"`
	CalculatedToBeBudgeted decimal.Decimal `json:"calculatedToBeBudgeted"`
	Discrepancy            decimal.Decimal `json:"discrepancy"`
	Fixed                  bool            `json:"fixed"`
}

func newIntegrityResponse(report ledger.IntegrityReport) IntegrityResponse {
	return IntegrityResponse{
		IsValid:                report.Valid,
		TotalIncomes:           report.TotalIncome,
		TotalAllocations:       report.TotalAllocated,
		StoredToBeBudgeted:     report.StoredPool,
		CalculatedToBeBudgeted: report.CalculatedPool,
		Discrepancy:            report.Discrepancy,
		Fixed:                  report.Fixed,
	}
}

// URIHousehold binds the household ID URI parameter.
type URIHousehold struct {
	HouseholdID ez_uuid.UUID `uri:"householdId" binding:"required" format:"UUID"` // ID of the household
}

// ActivityListResponse is the response of the activity log endpoint.
type ActivityListResponse struct {
	Error *string                `json:"error"` // The error, if any occurred
	Data  []models.ActivityEntry `json:"data"`
}

// scope returns the owner a request is scoped to, or nil for a global
// run. Returns errOwnerRequired if both IDs are set.
func scope(userID, householdID uuid.UUID) (*models.Owner, error) {
	if userID == uuid.Nil && householdID == uuid.Nil {
		return nil, nil
	}

	owner := models.Owner{UserID: userID, HouseholdID: householdID}
	if !owner.Valid() {
		return nil, errOwnerRequired
	}

	return &owner, nil
}

// parseMonthKey parses an optional "YYYY-MM" month key, defaulting to
// the current calendar month.
func parseMonthKey(key string, fallback types.Month) (types.Month, error) {
	if key == "" {
		return fallback, nil
	}

	month, err := types.ParseMonth(key)
	if err != nil {
		return types.Month{}, errMonthKeyInvalid
	}

	return month, nil
}
