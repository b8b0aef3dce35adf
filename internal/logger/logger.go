package logger

import (
	"context"
	"os"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

func init() {
	Log = logrus.New()
	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	Log.SetOutput(os.Stdout)
}

// SetLevel sets the logging level. Unknown values fall back to INFO.
func SetLevel(level string) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		Log.SetLevel(logrus.DebugLevel)
	case "INFO":
		Log.SetLevel(logrus.InfoLevel)
	case "WARN", "WARNING":
		Log.SetLevel(logrus.WarnLevel)
	case "ERROR":
		Log.SetLevel(logrus.ErrorLevel)
	default:
		Log.SetLevel(logrus.InfoLevel)
	}
}

// WithCorrelationID creates a logger with correlation ID
func WithCorrelationID(correlationID string) *logrus.Entry {
	return Log.WithField("correlation_id", correlationID)
}

// WithSession scopes a logger to one workflow session
func WithSession(sessionID, correlationID string) *logrus.Entry {
	return Log.WithFields(logrus.Fields{
		"session_id":     sessionID,
		"correlation_id": correlationID,
	})
}

// GetStackTrace captures the current stack trace
func GetStackTrace(skip int) string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// LogErrorWithStack logs an error with stack trace
func LogErrorWithStack(err error, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["stack_trace"] = GetStackTrace(2)
	Log.WithFields(fields).WithError(err).Error("Error occurred")
}

// LogErrorWithStackAndCorrelation logs an error with stack trace and correlation ID
func LogErrorWithStackAndCorrelation(err error, correlationID string, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["correlation_id"] = correlationID
	fields["stack_trace"] = GetStackTrace(2)
	Log.WithFields(fields).WithError(err).Error("Error occurred")
}

type correlationKey struct{}

// ContextWithCorrelationID stores the correlation ID on a context for downstream calls
func ContextWithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationKey{}, correlationID)
}

// CorrelationIDFromContext extracts the correlation ID from context
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(correlationKey{}).(string); ok {
		return id
	}
	return ""
}
