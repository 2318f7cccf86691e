package v1

import (
	"errors"
	"net/http"

	"github.com/pocketfold/backend/internal/models"
)

// status returns the appropriate HTTP status code for an error.
func status(err error) int {
	if errors.Is(err, models.ErrGeneral) {
		return http.StatusInternalServerError
	}

	if errors.Is(err, models.ErrResourceNotFound) {
		return http.StatusNotFound
	}

	return http.StatusBadRequest
}

var (
	errMonthKeyInvalid = errors.New("the monthKey parameter must be a month in YYYY-MM format")
	errOwnerRequired   = errors.New("exactly one of userId and householdId must be set")
)
