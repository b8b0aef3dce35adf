package workflow

import (
	"errors"
	"fmt"
)

// ValidationError reports input the workflow refuses before any call is made
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

var (
	// ErrNoClaimSelected is returned when nothing is ticked and no claim was typed
	ErrNoClaimSelected = NewValidationError("claims", "select at least one claim or enter your own")
	// ErrEmptyClaimText is returned for a descriptor without claim text
	ErrEmptyClaimText = NewValidationError("claim", "claim text must not be empty")

	// ErrActionInProgress is returned when the session is already running a chain
	ErrActionInProgress = errors.New("another action is already in progress for this session")
	// ErrNothingPending is returned by confirm when no optimized query awaits approval
	ErrNothingPending = errors.New("no optimized query is awaiting confirmation")
	// ErrSuperseded is returned when a newer extraction replaced the chain's context
	ErrSuperseded = errors.New("the action was superseded by a newer analysis")
	// ErrSessionNotFound is returned for unknown or expired sessions
	ErrSessionNotFound = errors.New("session not found")
)

// OptimizationFailed wraps any failure of the query optimizer. The controller
// recovers from it by searching with the raw text.
type OptimizationFailed struct {
	Cause error
}

func (e *OptimizationFailed) Error() string {
	return fmt.Sprintf("query optimization failed: %v", e.Cause)
}

func (e *OptimizationFailed) Unwrap() error {
	return e.Cause
}

// SearchFailed is the terminal failure of a source search
type SearchFailed struct {
	Message string
	Cause   error
}

func (e *SearchFailed) Error() string {
	return e.Message
}

func (e *SearchFailed) Unwrap() error {
	return e.Cause
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsOptimizationFailed checks if an error is an optimization failure
func IsOptimizationFailed(err error) bool {
	var optErr *OptimizationFailed
	return errors.As(err, &optErr)
}

// IsSearchFailed checks if an error is a search failure
func IsSearchFailed(err error) bool {
	var searchErr *SearchFailed
	return errors.As(err, &searchErr)
}
