// Package cheqd holds the plumbing shared by clients of the hosted cheqd
// Studio API: a normalized failure taxonomy and a caller that layers
// timeouts, bounded retries, and a circuit breaker over each operation.
package cheqd

import (
	"errors"
	"fmt"
)

// ErrorCategory defines the normalized failure taxonomy for Studio API errors.
//
// Clients classify every failure into one of these categories so the service
// layer can make consistent retry and translation decisions without
// inspecting raw error messages.
type ErrorCategory string

const (
	// ErrorTimeout indicates the API took too long to respond
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorBadData indicates the API rejected the request as invalid
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorAuthentication indicates credential or permission issues
	ErrorAuthentication ErrorCategory = "authentication"

	// ErrorOutage indicates the API is unavailable
	ErrorOutage ErrorCategory = "outage"

	// ErrorContractMismatch indicates the API response shape changed
	ErrorContractMismatch ErrorCategory = "contract_mismatch"

	// ErrorNotFound indicates the requested resource doesn't exist
	ErrorNotFound ErrorCategory = "not_found"

	// ErrorRateLimited indicates too many requests
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorInternal indicates an unexpected internal error
	ErrorInternal ErrorCategory = "internal"
)

// ErrCircuitOpen is returned without calling the API when the circuit
// breaker for the operation is open. Use errors.Is to check for it.
var ErrCircuitOpen = errors.New("cheqd circuit breaker open")

// APIError wraps Studio API failures with normalized categorization.
//
// Message carries the remote error body when the API returned one, so the
// service layer can surface it to callers.
type APIError struct {
	Category   ErrorCategory
	Operation  string
	Message    string
	Underlying error
	Retryable  bool // Automatically set based on Category (timeout, outage, rate-limited → true)
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("cheqd %s [%s]: %s: %v", e.Operation, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("cheqd %s [%s]: %s", e.Operation, e.Category, e.Message)
}

// Unwrap supports error unwrapping
func (e *APIError) Unwrap() error {
	return e.Underlying
}

// NewAPIError creates a normalized API error with automatic retry classification.
//
// The Retryable flag is set to true for transient failures (timeout, outage,
// rate-limited) and false for permanent ones (bad data, not found, auth,
// contract mismatch).
func NewAPIError(category ErrorCategory, operation, message string, underlying error) *APIError {
	retryable := category == ErrorTimeout ||
		category == ErrorOutage ||
		category == ErrorRateLimited

	return &APIError{
		Category:   category,
		Operation:  operation,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// IsRetryable checks if an error is worth retrying
func IsRetryable(err error) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error
func GetCategory(err error) ErrorCategory {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Category
	}
	return ErrorInternal
}

// RemoteMessage extracts the remote error message from an error, or the
// plain error text when the failure never reached the API.
func RemoteMessage(err error) string {
	var ae *APIError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
