package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pocketfold/backend/internal/httputil"
	"github.com/pocketfold/backend/internal/ledger"
)

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Ledger
// @Success		204
// @Router			/v1/process-recurring [options]
func OptionsProcess(c *gin.Context) {
	httputil.OptionsPost(c)
}

// @Summary		Process due recurring obligations
// @Description	Materializes all due recurring obligations across all owners into spend entries. Obligations that are several periods behind are caught up one period at a time. Always returns HTTP 200 with per-obligation outcomes.
// @Tags			Ledger
// @Produce		json
// @Success		200	{object}	RecurringRunResponse
// @Failure		500	{object}	RecurringRunResponse
// @Router			/v1/process-recurring [post]
func (co Controller) ProcessRecurring(c *gin.Context) {
	result, err := ledger.ProcessDue(co.DB, time.Now())
	if err != nil {
		e := err.Error()
		c.JSON(status(err), RecurringRunResponse{Error: &e})
		return
	}

	c.JSON(http.StatusOK, RecurringRunResponse{RecurringRunResult: result})
}
