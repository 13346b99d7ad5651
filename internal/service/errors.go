// Package service implements the business logic of the platform.
package service

import "fmt"

// ServiceError represents a business logic error with a code
type ServiceError struct {
	Err     error
	Message string
	Code    string
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeInvalidRequest       = "invalid_request"
	ErrCodeInvalidCredentials   = "invalid_credentials"
	ErrCodeDuplicateEmail       = "duplicate_email"
	ErrCodeTwoFactorRequired    = "two_factor_required"
	ErrCodeInvalidTwoFactorCode = "invalid_two_factor_code"
	ErrCodeInsufficientFunds    = "insufficient_funds"
	ErrCodeAlreadyEnabled       = "already_enabled"
	ErrCodeNotEnabled           = "not_enabled"
	ErrCodeNoPendingSetup       = "no_pending_setup"
	ErrCodeNotFound             = "not_found"
	ErrCodeInternalError        = "internal_error"
)
