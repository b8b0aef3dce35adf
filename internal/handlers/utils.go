package handlers

import (
	"errors"
	"net/http"

	"insight-explorer/internal/clients"
	"insight-explorer/internal/logger"
	"insight-explorer/internal/middleware"
	"insight-explorer/internal/models"
	"insight-explorer/internal/utils"
	"insight-explorer/internal/workflow"

	"github.com/gin-gonic/gin"
)

const internalErrorMessage = "Something went wrong. Please try again."

// getCorrelationID returns the id set by RequestIDMiddleware, or reads/generates one
func getCorrelationID(c *gin.Context) string {
	if id := c.GetString(middleware.CorrelationIDKey); id != "" {
		return id
	}
	return utils.GetCorrelationID(c.Request)
}

// getClientID identifies the caller for preferences and session ownership
func getClientID(c *gin.Context) string {
	return utils.GetClientID(c.Request, models.DefaultClientID)
}

// writeError writes the standard error envelope
func writeError(c *gin.Context, status int, code, message, correlationID string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":           code,
			"message":        message,
			"correlation_id": correlationID,
		},
	})
}

// respondError maps a domain error onto a status code and error envelope
func respondError(c *gin.Context, err error, operation string) {
	correlationID := getCorrelationID(c)
	status, code, message := classifyError(err)

	fields := map[string]interface{}{
		"operation":   operation,
		"error_code":  code,
		"status_code": status,
	}
	if status >= http.StatusInternalServerError {
		logger.LogErrorWithStackAndCorrelation(err, correlationID, fields)
	} else {
		logger.WithCorrelationID(correlationID).WithFields(fields).WithError(err).Warn("Request rejected")
	}

	writeError(c, status, code, message, correlationID)
}

func classifyError(err error) (int, string, string) {
	var validationErr *workflow.ValidationError
	var transitionErr *workflow.TransitionError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, "VALIDATION_ERROR", validationErr.Error()
	case errors.Is(err, workflow.ErrSessionNotFound):
		return http.StatusNotFound, "SESSION_NOT_FOUND", err.Error()
	case errors.Is(err, workflow.ErrActionInProgress):
		return http.StatusConflict, "ACTION_IN_PROGRESS", err.Error()
	case errors.Is(err, workflow.ErrNothingPending):
		return http.StatusConflict, "NOTHING_PENDING", err.Error()
	case errors.Is(err, workflow.ErrSuperseded):
		return http.StatusConflict, "SUPERSEDED", err.Error()
	case errors.As(err, &transitionErr):
		return http.StatusConflict, "INVALID_STATE", err.Error()
	case clients.IsTimeout(err):
		return http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", workflow.UserMessage(err, internalErrorMessage)
	case workflow.IsSearchFailed(err):
		return http.StatusBadGateway, "SEARCH_FAILED", workflow.UserMessage(err, internalErrorMessage)
	case clients.IsTransport(err):
		return http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", workflow.UserMessage(err, internalErrorMessage)
	case clients.IsService(err):
		return http.StatusBadGateway, "UPSTREAM_ERROR", workflow.UserMessage(err, internalErrorMessage)
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", internalErrorMessage
	}
}
