package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/donorlink/plasma-center/pkg/core/model"
)

// ErrorResponse is the standardized error envelope for all API failures.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

// Error codes by concern.
const (
	// Authentication errors (401)
	CodeMissingToken    = "MISSING_TOKEN"
	CodeInvalidToken    = "INVALID_TOKEN"
	CodeUnauthenticated = "UNAUTHENTICATED"

	// Authorization errors (403)
	CodeProfileNotFound         = "PROFILE_NOT_FOUND"
	CodeAccountInactive         = "ACCOUNT_INACTIVE"
	CodeInsufficientPermissions = "INSUFFICIENT_PERMISSIONS"

	// Request errors (400, 404, 409)
	CodeValidationError  = "VALIDATION_ERROR"
	CodeResourceNotFound = "RESOURCE_NOT_FOUND"
	CodeDayFull          = "DAY_FULL"

	// Upstream errors (500, 502)
	CodeProviderError = "PROVIDER_ERROR"
	CodeInternalError = "INTERNAL_ERROR"
)

// SendError sends a standardized error response
func SendError(c *gin.Context, statusCode int, errorCode, errorMessage, detailedMessage string, details interface{}) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorMessage,
		Message: detailedMessage,
		Code:    errorCode,
		Details: details,
	})
}

// writeError maps a service error onto the envelope. Sentinel errors carry
// their HTTP status; anything unmapped is an internal error and gets logged
// with its cause, which the client never sees.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, model.ErrUnauthenticated):
		SendError(c, http.StatusUnauthorized, CodeUnauthenticated, "Authentication failed", err.Error(), nil)
	case errors.Is(err, model.ErrForbidden):
		SendError(c, http.StatusForbidden, CodeInsufficientPermissions, "Insufficient permissions", err.Error(), nil)
	case errors.Is(err, model.ErrNotFound):
		SendError(c, http.StatusNotFound, CodeResourceNotFound, "Resource not found", err.Error(), nil)
	case errors.Is(err, model.ErrValidation):
		SendError(c, http.StatusBadRequest, CodeValidationError, "Validation failed", err.Error(), nil)
	case errors.Is(err, model.ErrExhausted):
		SendError(c, http.StatusConflict, CodeDayFull, "No booking numbers left for this date", err.Error(), nil)
	case errors.Is(err, model.ErrProvider):
		// The provider's message goes through verbatim.
		SendError(c, http.StatusBadGateway, CodeProviderError, "Upstream provider failed", err.Error(), nil)
	default:
		logger.Error("Unhandled error", zap.Error(err), zap.String("path", c.FullPath()))
		SendError(c, http.StatusInternalServerError, CodeInternalError, "Internal error",
			"Something went wrong. Please try again later", nil)
	}
}
