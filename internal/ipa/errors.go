package ipa

import (
	"fmt"
	"strings"
)

// ErrorCategory represents different categories of backend errors.
type ErrorCategory string

const (
	ErrorCategoryNotConnected    ErrorCategory = "not_connected"
	ErrorCategoryTransport       ErrorCategory = "transport_failure"
	ErrorCategoryAuthentication  ErrorCategory = "authentication"
	ErrorCategoryBackendRejected ErrorCategory = "backend_rejected"
	ErrorCategoryNotFound        ErrorCategory = "not_found"
	ErrorCategoryConflict        ErrorCategory = "conflict"
	ErrorCategoryValidation      ErrorCategory = "validation"
	ErrorCategoryServer          ErrorCategory = "server"
	ErrorCategoryUnknown         ErrorCategory = "unknown"
)

// FreeIPA groups its public error numbers into families; the exact member
// codes vary between server versions, so categorization works on the family
// ranges plus the handful of codes the handlers care about individually.
const (
	codeNotFound       = 4001 // NotFound
	codeDuplicateEntry = 4002 // DuplicateEntry

	rangeAuthenticationLow  = 1000
	rangeAuthenticationHigh = 1999
	rangeAuthorizationLow   = 2000
	rangeAuthorizationHigh  = 2999
	rangeInvocationLow      = 3000
	rangeInvocationHigh     = 3999
	rangeExecutionLow       = 4000
	rangeExecutionHigh      = 4999
	rangeServerLow          = 900
	rangeServerHigh         = 999
)

// Error provides enhanced error information for backend operations.
type Error struct {
	Op        string        // The operation that failed
	Category  ErrorCategory // Error category
	Code      int           // FreeIPA error number (0 for transport-level failures)
	Name      string        // FreeIPA error class name, when reported
	Message   string        // Human-readable message
	Retryable bool          // Whether the error is retryable
	Cause     error         // Underlying error
}

func (e *Error) Error() string {
	var parts []string

	if e.Code > 0 {
		parts = append(parts, fmt.Sprintf("%s failed (code %d)", e.Op, e.Code))
	} else {
		parts = append(parts, fmt.Sprintf("%s failed", e.Op))
	}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	if e.Name != "" && !strings.Contains(e.Message, e.Name) {
		parts = append(parts, e.Name)
	}

	return strings.Join(parts, ": ")
}

func (e *Error) IsRetryable() bool {
	return e.Retryable
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewRPCError creates an error from a JSON-RPC error member returned by the
// backend. The backend's message text is preserved verbatim as detail.
func NewRPCError(op string, code int, name, message string) *Error {
	return &Error{
		Op:        op,
		Category:  categorizeCode(code),
		Code:      code,
		Name:      name,
		Message:   message,
		Retryable: isCodeRetryable(code),
	}
}

// NewTransportError wraps a network or protocol failure that happened before
// the backend produced a structured error.
func NewTransportError(op string, err error) *Error {
	if err == nil {
		return nil
	}

	if ipaErr, ok := err.(*Error); ok {
		if ipaErr.Op == "" {
			ipaErr.Op = op
		}
		return ipaErr
	}

	return &Error{
		Op:        op,
		Category:  categorizeGenericError(err),
		Message:   err.Error(),
		Retryable: isGenericErrorRetryable(err),
		Cause:     err,
	}
}

// NewAuthError reports a rejected login or an expired session.
func NewAuthError(op, message string) *Error {
	return &Error{
		Op:       op,
		Category: ErrorCategoryAuthentication,
		Message:  message,
	}
}

// NewNotConnectedError reports an operation attempted without an established
// session.
func NewNotConnectedError(op string) *Error {
	return &Error{
		Op:       op,
		Category: ErrorCategoryNotConnected,
		Message:  "no active session",
	}
}

// NewValidationError reports client-side argument rejection before any
// backend call is made.
func NewValidationError(op, message string) *Error {
	return &Error{
		Op:       op,
		Category: ErrorCategoryValidation,
		Message:  message,
	}
}

// categorizeCode categorizes an error based on the FreeIPA error number.
func categorizeCode(code int) ErrorCategory {
	switch code {
	case codeNotFound:
		return ErrorCategoryNotFound
	case codeDuplicateEntry:
		return ErrorCategoryConflict
	}

	switch {
	case code >= rangeAuthenticationLow && code <= rangeAuthenticationHigh:
		return ErrorCategoryAuthentication
	case code >= rangeAuthorizationLow && code <= rangeAuthorizationHigh:
		return ErrorCategoryBackendRejected
	case code >= rangeInvocationLow && code <= rangeInvocationHigh:
		return ErrorCategoryValidation
	case code >= rangeExecutionLow && code <= rangeExecutionHigh:
		return ErrorCategoryBackendRejected
	case code >= rangeServerLow && code <= rangeServerHigh:
		return ErrorCategoryServer
	case code >= 5000:
		return ErrorCategoryServer
	default:
		return ErrorCategoryUnknown
	}
}

// isCodeRetryable determines if a FreeIPA error number indicates a retryable
// condition. Only server-side generic failures qualify; rejected input never
// does.
func isCodeRetryable(code int) bool {
	if code >= 5000 {
		return true
	}
	return code >= rangeServerLow && code <= rangeServerHigh
}

// categorizeGenericError categorizes non-RPC errors.
func categorizeGenericError(err error) ErrorCategory {
	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "tls") ||
		strings.Contains(errStr, "certificate") {
		return ErrorCategoryTransport
	}

	if strings.Contains(errStr, "authentication") ||
		strings.Contains(errStr, "credentials") ||
		strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "password") {
		return ErrorCategoryAuthentication
	}

	return ErrorCategoryUnknown
}

// isGenericErrorRetryable determines if a generic error is retryable.
func isGenericErrorRetryable(err error) bool {
	errStr := strings.ToLower(err.Error())

	retryablePatterns := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"broken pipe",
		"temporary failure",
		"no such host",
		"service unavailable",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// IsRetryableError checks if an error is retryable.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if ipaErr, ok := err.(*Error); ok {
		return ipaErr.IsRetryable()
	}

	return isGenericErrorRetryable(err)
}

// GetErrorCategory returns the category of an error.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryUnknown
	}

	if ipaErr, ok := err.(*Error); ok {
		return ipaErr.Category
	}

	return categorizeGenericError(err)
}

// IsNotConnectedError checks if an error indicates a missing session.
func IsNotConnectedError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryNotConnected
}

// IsNotFoundError checks if an error indicates a "not found" condition.
func IsNotFoundError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryNotFound
}

// IsConflictError checks if an error indicates a conflict (already exists).
func IsConflictError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryConflict
}

// IsAuthenticationError checks if an error indicates an authentication problem.
func IsAuthenticationError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryAuthentication
}

// IsTransportError checks if an error indicates a network-level failure.
func IsTransportError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryTransport
}
