package api

import (
	"errors"
	"net/http"

	"fitmarket/coaching-app/internal/service"

	"github.com/gin-gonic/gin"
)

// Every response uses the same envelope:
// { "success": bool, "data"?: ..., "message"?: ..., "error"?: string, "details"?: [...] }

// respondData writes a success envelope with a payload.
func respondData(c *gin.Context, code int, data any) {
	c.JSON(code, gin.H{"success": true, "data": data})
}

// respondMessage writes a success envelope with only an acknowledgement.
func respondMessage(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"success": true, "message": message})
}

// abortWithError writes an error envelope and aborts the request.
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"success": false, "error": message})
}

// abortWithDetails writes an error envelope with a machine-readable list of
// violations (validation failures).
func abortWithDetails(c *gin.Context, code int, message string, details []string) {
	c.AbortWithStatusJSON(code, gin.H{"success": false, "error": message, "details": details})
}

// handleServiceError maps service-layer errors to HTTP statuses. Every
// handler funnels unrecognized errors here, so unexpected failures surface
// uniformly as a generic 500 without leaking internals.
func handleServiceError(c *gin.Context, err error) {
	var validationErr *service.PlanDataValidationError
	if errors.As(err, &validationErr) {
		abortWithDetails(c, http.StatusBadRequest, "Plan data failed validation.", validationErr.Violations)
		return
	}

	switch {
	case errors.Is(err, service.ErrRequestNotFound),
		errors.Is(err, service.ErrTrainerNotFound),
		errors.Is(err, service.ErrTemplatePlanNotFound),
		errors.Is(err, service.ErrAssignedPlanNotFound),
		errors.Is(err, service.ErrAttachmentNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())

	case errors.Is(err, service.ErrRequestAccessDenied),
		errors.Is(err, service.ErrPlanAccessDenied),
		errors.Is(err, service.ErrAttachmentAccessDenied),
		errors.Is(err, service.ErrNotATrainer):
		abortWithError(c, http.StatusForbidden, err.Error())

	case errors.Is(err, service.ErrAlreadyResponded),
		errors.Is(err, service.ErrActivePlanExists),
		errors.Is(err, service.ErrCooldownActive),
		errors.Is(err, service.ErrPendingRequestExists),
		errors.Is(err, service.ErrOnlyPendingWithdrawable):
		abortWithError(c, http.StatusConflict, err.Error())

	case errors.Is(err, service.ErrInvalidResponseStatus),
		errors.Is(err, service.ErrPlanIDRequired):
		abortWithError(c, http.StatusBadRequest, err.Error())

	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}
