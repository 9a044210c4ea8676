package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"luxdrive/internal/core"
)

// respondError maps errors from the core services to HTTP status codes and an
// ErrorResponse. Anything unrecognised is logged and reported as a 500.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrValidation):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "Invalid booking details", Details: err.Error()}
	case errors.Is(err, core.ErrEmailExists):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "Email already exists"}
	case errors.Is(err, core.ErrInvalidCredentials):
		statusCode = http.StatusUnauthorized
		errResponse = ErrorResponse{Error: "Invalid credentials"}
	case errors.Is(err, core.ErrForbidden):
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Error: "Booking belongs to another user"}
	case errors.Is(err, core.ErrBookingNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: "Booking not found"}
	case errors.Is(err, core.ErrInvalidTransition):
		statusCode = http.StatusConflict
		errResponse = ErrorResponse{Error: "Booking cannot move to that status", Details: err.Error()}
	default:
		logger.Error("Internal Server Error",
			zap.String("path", c.Request.URL.Path), zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred."}
	}
	c.JSON(statusCode, errResponse)
}

// badRequest reports a body or parameter that could not be decoded.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
}
