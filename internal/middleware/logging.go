package middleware

import (
	"insight-explorer/internal/logger"
	"insight-explorer/internal/utils"

	"github.com/gin-gonic/gin"
)

// CorrelationIDHeader carries the id that ties a request to its upstream calls
const CorrelationIDHeader = "X-Correlation-ID"

// CorrelationIDKey is the gin context key holding the request's correlation id
const CorrelationIDKey = "correlation_id"

// LoggingMiddleware logs HTTP requests with structured logging
func LoggingMiddleware() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		correlationID := logger.CorrelationIDFromContext(param.Request.Context())
		if correlationID == "" {
			correlationID = param.Request.Header.Get(CorrelationIDHeader)
		}

		logger.Log.WithFields(map[string]interface{}{
			"correlation_id": correlationID,
			"method":         param.Method,
			"path":           param.Path,
			"status":         param.StatusCode,
			"latency_ms":     param.Latency.Milliseconds(),
			"client_ip":      param.ClientIP,
			"user_agent":     param.Request.UserAgent(),
			"response_size":  param.BodySize,
		}).Info("HTTP request processed")

		return ""
	})
}

// RequestIDMiddleware assigns a correlation id to every request. The id is
// echoed in the response and stored on both the gin and request contexts so
// upstream calls can forward it.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := utils.GetCorrelationID(c.Request)
		c.Header(CorrelationIDHeader, correlationID)
		c.Set(CorrelationIDKey, correlationID)
		c.Request = c.Request.WithContext(logger.ContextWithCorrelationID(c.Request.Context(), correlationID))
		c.Next()
	}
}
