package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridematch/internal/lifecycle"
	"ridematch/internal/repository"
	"ridematch/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code == http.StatusInternalServerError || code == http.StatusServiceUnavailable {
		_ = c.Error(err)
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	var invalidTransition *lifecycle.InvalidTransitionError

	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidAccountID),
		errors.Is(err, service.ErrInvalidRideID),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrInvalidPickupLocation),
		errors.Is(err, service.ErrInvalidDropoffLocation),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidRadius),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, lifecycle.ErrSelfMatch),
		errors.Is(err, lifecycle.ErrNegativeFare):
		return http.StatusBadRequest

	// Settlement failures
	case errors.Is(err, service.ErrInsufficientFunds):
		return http.StatusPaymentRequired

	// Forbidden/Business rule errors
	case errors.Is(err, lifecycle.ErrNotParticipant),
		errors.Is(err, service.ErrAccountDeactivated):
		return http.StatusForbidden

	// Conflict errors
	case errors.Is(err, service.ErrOfferConflict),
		errors.Is(err, service.ErrAlreadyRated),
		errors.Is(err, service.ErrAlreadySettled),
		errors.Is(err, service.ErrNotWalletRide),
		errors.Is(err, service.ErrRideNotCompleted),
		errors.As(err, &invalidTransition):
		return http.StatusConflict

	// Service unavailable
	case errors.Is(err, repository.ErrUnavailable):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
