package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pocketfold/backend/internal/httputil"
	"github.com/pocketfold/backend/internal/ledger"
	"github.com/pocketfold/backend/internal/types"
)

// @Summary		Process savings auto-contributions
// @Description	Funds savings goals from the available pool in priority order, once per goal and month. Optionally scoped to one user or household; defaults to the current month. Always returns HTTP 200 with per-goal outcomes.
// @Tags			Ledger
// @Produce		json
// @Success		200		{object}	ContributionRunResponse
// @Failure		400		{object}	ContributionRunResponse
// @Failure		500		{object}	ContributionRunResponse
// @Param			request	body		ContributionRequest	false	"Scope of the run"
// @Router			/v1/process-savings-contributions [post]
func (co Controller) ProcessSavingsContributions(c *gin.Context) {
	var request ContributionRequest
	if err := httputil.BindData(c, &request); err != nil {
		e := err.Error()
		c.JSON(http.StatusBadRequest, ContributionRunResponse{Error: &e})
		return
	}

	month, err := parseMonthKey(request.MonthKey, types.MonthOf(time.Now()))
	if err != nil {
		e := err.Error()
		c.JSON(http.StatusBadRequest, ContributionRunResponse{Error: &e})
		return
	}

	owner, err := scope(request.UserID, request.HouseholdID)
	if err != nil {
		e := err.Error()
		c.JSON(http.StatusBadRequest, ContributionRunResponse{Error: &e})
		return
	}

	result, err := ledger.ProcessContributions(co.DB, owner, month)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ContributionRunResponse{Error: &e})
		return
	}

	c.JSON(http.StatusOK, ContributionRunResponse{ContributionRunResult: result})
}
