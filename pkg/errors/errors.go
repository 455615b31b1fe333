package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("code=%d, message=%s", e.Code, e.Message)
}

// Common errors
var (
	ErrNotFound       = &AppError{Code: http.StatusNotFound, Message: "Resource not found"}
	ErrBadRequest     = &AppError{Code: http.StatusBadRequest, Message: "Bad request"}
	ErrInternalServer = &AppError{Code: http.StatusInternalServerError, Message: "Internal server error"}
)

// New creates a new AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// WithDetails adds details to an error
func WithDetails(err *AppError, details string) *AppError {
	return &AppError{
		Code:    err.Code,
		Message: err.Message,
		Details: details,
	}
}

// GetStatusCode returns the HTTP status code from an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// ParseError reports a PM document that matched none of the known
// schemas. MarkersSearched lists the top-level markers that were probed,
// in probe order, so the caller can build a useful message.
type ParseError struct {
	MarkersSearched []string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("document matched no known PM schema (markers searched: %s)",
		strings.Join(e.MarkersSearched, ", "))
}

// IsParseError checks whether err is a schema-mismatch parse failure.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// BaselineCorruptError reports a stored baseline that failed to
// deserialize. It is fatal for the drift comparison only; the rest of
// an analysis run still completes.
type BaselineCorruptError struct {
	Site string
	Err  error
}

func (e *BaselineCorruptError) Error() string {
	return fmt.Sprintf("stored baseline for site %q is corrupt: %v", e.Site, e.Err)
}

func (e *BaselineCorruptError) Unwrap() error { return e.Err }

// IsBaselineCorrupt checks whether err is a corrupt-baseline failure.
func IsBaselineCorrupt(err error) bool {
	var be *BaselineCorruptError
	return errors.As(err, &be)
}
