package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pocketfold/backend/internal/httputil"
	"github.com/pocketfold/backend/internal/ledger"
	"github.com/pocketfold/backend/internal/types"
)

// @Summary		Check budget integrity
// @Description	Recomputes the available pool for a budget period from the income and allocation rows and compares it to the stored value. With fix set, a detected drift is repaired. Idempotent.
// @Tags			Ledger
// @Produce		json
// @Success		200		{object}	IntegrityResponse
// @Failure		400		{object}	IntegrityResponse
// @Failure		500		{object}	IntegrityResponse
// @Param			request	body		IntegrityRequest	true	"Budget period to check"
// @Router			/v1/check-integrity [post]
func (co Controller) CheckIntegrity(c *gin.Context) {
	var request IntegrityRequest
	if err := httputil.BindData(c, &request); err != nil {
		e := err.Error()
		c.JSON(http.StatusBadRequest, IntegrityResponse{Error: &e})
		return
	}

	if request.MonthKey == "" {
		e := errMonthKeyInvalid.Error()
		c.JSON(http.StatusBadRequest, IntegrityResponse{Error: &e})
		return
	}

	month, err := parseMonthKey(request.MonthKey, types.Month{})
	if err != nil {
		e := err.Error()
		c.JSON(http.StatusBadRequest, IntegrityResponse{Error: &e})
		return
	}

	owner, err := scope(request.UserID, request.HouseholdID)
	if err != nil || owner == nil {
		e := errOwnerRequired.Error()
		c.JSON(http.StatusBadRequest, IntegrityResponse{Error: &e})
		return
	}

	var report ledger.IntegrityReport
	if request.Fix {
		report, err = ledger.FixIntegrity(co.DB, *owner, month)
	} else {
		report, err = ledger.CheckIntegrity(co.DB, *owner, month)
	}
	if err != nil {
		e := err.Error()
		c.JSON(status(err), IntegrityResponse{Error: &e})
		return
	}

	c.JSON(http.StatusOK, newIntegrityResponse(report))
}
