package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Sentinels every error in the service is marked with. The names follow the
// failure taxonomy callers switch on: malformed input, rule violations,
// signature failures, persistence failures and missing configuration.
var (
	ErrValidation       = new(ErrCodeValidation, "malformed input")
	ErrRuleViolation    = new(ErrCodeRuleViolation, "rule violation")
	ErrInvalidSignature = new(ErrCodeInvalidSignature, "invalid signature")
	ErrUnauthenticated  = new(ErrCodeUnauthenticated, "unauthenticated")
	ErrPermissionDenied = new(ErrCodePermissionDenied, "permission denied")
	ErrNotFound         = new(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists    = new(ErrCodeAlreadyExists, "resource already exists")
	ErrTooManyRequests  = new(ErrCodeTooManyRequests, "too many requests")
	ErrDatabase         = new(ErrCodeDatabase, "persistence error")
	ErrNotConfigured    = new(ErrCodeNotConfigured, "not configured")
	ErrHTTPClient       = new(ErrCodeHTTPClient, "http client error")
	ErrSystem           = new(ErrCodeSystemError, "system error")

	statusCodeMap = map[error]int{
		ErrValidation:       http.StatusBadRequest,
		ErrRuleViolation:    http.StatusBadRequest,
		ErrInvalidSignature: http.StatusBadRequest,
		ErrUnauthenticated:  http.StatusUnauthorized,
		ErrPermissionDenied: http.StatusForbidden,
		ErrNotFound:         http.StatusNotFound,
		ErrAlreadyExists:    http.StatusConflict,
		ErrTooManyRequests:  http.StatusTooManyRequests,
		ErrDatabase:         http.StatusInternalServerError,
		ErrNotConfigured:    http.StatusInternalServerError,
		ErrHTTPClient:       http.StatusInternalServerError,
		ErrSystem:           http.StatusInternalServerError,
	}
)

const (
	ErrCodeValidation       = "malformed_input"
	ErrCodeRuleViolation    = "rule_violation"
	ErrCodeInvalidSignature = "invalid_signature"
	ErrCodeUnauthenticated  = "unauthenticated"
	ErrCodePermissionDenied = "permission_denied"
	ErrCodeNotFound         = "not_found"
	ErrCodeAlreadyExists    = "already_exists"
	ErrCodeTooManyRequests  = "too_many_requests"
	ErrCodeDatabase         = "persistence_error"
	ErrCodeNotConfigured    = "not_configured"
	ErrCodeHTTPClient       = "http_client_error"
	ErrCodeSystemError      = "system_error"
)

// InternalError is the marker type behind every sentinel.
type InternalError struct {
	Code    string
	Message string
	Err     error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is matches on the error code so wrapped copies compare equal.
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

func new(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsRuleViolation(err error) bool {
	return errors.Is(err, ErrRuleViolation)
}

func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

func IsInvalidSignature(err error) bool {
	return errors.Is(err, ErrInvalidSignature)
}

func IsDatabase(err error) bool {
	return errors.Is(err, ErrDatabase)
}

func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}

// IsClientError reports whether err maps to a 4xx status.
func IsClientError(err error) bool {
	status := HTTPStatusFromErr(err)
	return status >= 400 && status < 500
}

// HTTPStatusFromErr returns the status code of the first sentinel err is marked with.
func HTTPStatusFromErr(err error) int {
	for e, status := range statusCodeMap {
		if errors.Is(err, e) {
			return status
		}
	}
	return http.StatusInternalServerError
}
