package v1

import (
	"errors"
	"net/http"

	"github.com/billfold/backend/internal/models"
)

// apiError is the representation of an error in API responses. Kind is a
// stable machine-readable tag, Fields names the offending input fields for
// validation errors.
type apiError struct {
	Kind    string   `json:"kind" example:"VALIDATION_ERROR"`
	Message string   `json:"message" example:"the name must be set"`
	Fields  []string `json:"fields,omitempty"`
}

// httpError is the response body for endpoints that do not return a resource.
type httpError struct {
	Error *apiError `json:"error"`
}

// newError returns the response representation of an error.
func newError(err error) *apiError {
	var appErr models.Error
	if errors.As(err, &appErr) {
		return &apiError{
			Kind:    string(appErr.Kind),
			Message: appErr.Message,
			Fields:  appErr.Fields,
		}
	}

	if errors.Is(err, models.ErrResourceNotFound) {
		return &apiError{Kind: string(models.KindNotFound), Message: err.Error()}
	}

	if errors.Is(err, models.ErrGeneral) {
		return &apiError{Kind: "INTERNAL_ERROR", Message: err.Error()}
	}

	// Everything else, e.g. binding errors, is bad input
	return &apiError{Kind: string(models.KindValidation), Message: err.Error()}
}

// status returns the appropriate HTTP status for an error.
func status(err error) int {
	var appErr models.Error
	if errors.As(err, &appErr) {
		switch appErr.Kind {
		case models.KindNotFound:
			return http.StatusNotFound
		case models.KindConflict:
			return http.StatusConflict
		default:
			return http.StatusBadRequest
		}
	}

	if errors.Is(err, models.ErrGeneral) {
		return http.StatusInternalServerError
	}

	if errors.Is(err, models.ErrResourceNotFound) {
		return http.StatusNotFound
	}

	return http.StatusBadRequest
}

// Query parameter errors
var (
	errSortInvalid = models.Error{
		Kind:    models.KindValidation,
		Message: "the sort parameter must be one of date, amount, name, createdAt",
		Fields:  []string{"sort"},
	}
	errOrderInvalid = models.Error{
		Kind:    models.KindValidation,
		Message: "the order parameter must be asc or desc",
		Fields:  []string{"order"},
	}
	errStatusFilterInvalid = models.Error{
		Kind:    models.KindValidation,
		Message: "the status parameter must be active or archived",
		Fields:  []string{"status"},
	}
	errTimeFrameFilterInvalid = models.Error{
		Kind:    models.KindValidation,
		Message: "the timeFrame parameter must be one of daily, weekly, monthly, one-time",
		Fields:  []string{"timeFrame"},
	}
	errDaysInvalid = models.Error{
		Kind:    models.KindValidation,
		Message: "the days parameter must be a positive number",
		Fields:  []string{"days"},
	}
	errLimitInvalid = models.Error{
		Kind:    models.KindValidation,
		Message: "the limit parameter must be a positive number",
		Fields:  []string{"limit"},
	}
)

// Bulk delete errors
var errNoIDs = models.Error{
	Kind:    models.KindValidation,
	Message: "the ids list must contain at least one bill ID",
	Fields:  []string{"ids"},
}

// Purge errors
var errPurgeConfirmation = models.Error{
	Kind:    models.KindValidation,
	Message: "the confirmation for the purge API call was incorrect",
	Fields:  []string{"confirm"},
}
