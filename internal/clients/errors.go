package clients

import (
	"errors"
	"fmt"
)

// TimeoutError indicates the call exceeded the configured API timeout
type TimeoutError struct {
	Operation string
	Cause     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: request timed out: %v", e.Operation, e.Cause)
}

func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(operation string, cause error) *TimeoutError {
	return &TimeoutError{
		Operation: operation,
		Cause:     cause,
	}
}

// TransportError indicates the analysis service could not be reached
type TransportError struct {
	Operation string
	Cause     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: connection failed: %v", e.Operation, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// NewTransportError creates a new transport error
func NewTransportError(operation string, cause error) *TransportError {
	return &TransportError{
		Operation: operation,
		Cause:     cause,
	}
}

// ServiceError represents a non-success answer from the analysis service
type ServiceError struct {
	Operation  string
	StatusCode int
	Message    string
	Cause      error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: service error (status %d): %s", e.Operation, e.StatusCode, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// NewServiceError creates a new service error
func NewServiceError(operation string, statusCode int, message string, cause error) *ServiceError {
	return &ServiceError{
		Operation:  operation,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}

// IsTransport checks if an error is a transport error
func IsTransport(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// IsService checks if an error is a service error
func IsService(err error) bool {
	var serviceErr *ServiceError
	return errors.As(err, &serviceErr)
}

// ServiceMessage returns the message reported by the service, if any
func ServiceMessage(err error) string {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Message
	}
	return ""
}
