package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pocketfold/backend/internal/httputil"
	"github.com/pocketfold/backend/internal/models"
)

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Activity
// @Success		204
// @Router			/v1/activity/{householdId} [options]
func OptionsActivity(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		Get household activity
// @Description	Returns the most recent activity log entries for a household, newest first
// @Tags			Activity
// @Produce		json
// @Success		200	{object}	ActivityListResponse
// @Failure		400	{object}	ActivityListResponse
// @Failure		500	{object}	ActivityListResponse
// @Param			householdId	path	string	true	"ID of the household"
// @Router			/v1/activity/{householdId} [get]
func (co Controller) GetActivity(c *gin.Context) {
	var uri URIHousehold
	if err := c.ShouldBindUri(&uri); err != nil {
		e := err.Error()
		c.JSON(http.StatusBadRequest, ActivityListResponse{Error: &e})
		return
	}

	var entries []models.ActivityEntry
	err := co.DB.
		Where("household_id = ?", uri.HouseholdID.UUID).
		Order("created_at DESC").
		Limit(50).
		Find(&entries).
		Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ActivityListResponse{Error: &e})
		return
	}

	c.JSON(http.StatusOK, ActivityListResponse{Data: entries})
}
