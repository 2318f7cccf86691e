// Package v1 implements the HTTP entry points of the budget ledger.
package v1

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Controller holds the injected dependencies for the API handlers.
// There is no process-wide database singleton, every handler goes
// through the handle it was constructed with.
type Controller struct {
	DB *gorm.DB
}

// RegisterRoutes attaches the v1 API routes to the router group.
func (co Controller) RegisterRoutes(r *gin.RouterGroup) {
	{
		r.OPTIONS("/process-recurring", OptionsProcess)
		r.POST("/process-recurring", co.ProcessRecurring)
	}
	{
		r.OPTIONS("/process-savings-contributions", OptionsProcess)
		r.POST("/process-savings-contributions", co.ProcessSavingsContributions)
	}
	{
		r.OPTIONS("/check-integrity", OptionsProcess)
		r.POST("/check-integrity", co.CheckIntegrity)
	}
	{
		r.OPTIONS("/activity/:householdId", OptionsActivity)
		r.GET("/activity/:householdId", co.GetActivity)
	}
}
