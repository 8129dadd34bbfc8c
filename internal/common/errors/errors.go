// Package errors provides the standardized error type shared by the HTTP layer and the job workers.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrCodeMissingOAuthParams ErrorCode = "MISSING_OAUTH_PARAMS"
	ErrCodeInvalidRedirectURI ErrorCode = "INVALID_REDIRECT_URI"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeNoAuthOutcome      ErrorCode = "NO_AUTH_OUTCOME"
	ErrCodeInvalidGrant       ErrorCode = "INVALID_GRANT"
	ErrCodeStoreNotConfigured ErrorCode = "STORE_NOT_CONFIGURED"
	ErrCodeCodeStoreFailed    ErrorCode = "CODE_STORE_FAILED"
	ErrCodeInputParsingFailed ErrorCode = "INPUT_PARSING_FAILED"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// HTTPStatus maps the error code to the status returned by the HTTP layer.
func (e *StandardError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeInvalidInput, ErrCodeMissingOAuthParams, ErrCodeInvalidRedirectURI,
		ErrCodeInvalidGrant, ErrCodeInputParsingFailed:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeNoAuthOutcome:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for job fail/throw variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid request body",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingOAuthParamsError names every missing protocol parameter.
func NewMissingOAuthParamsError(missing []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingOAuthParams,
		Message:   "Missing required OAuth parameters",
		Details:   "missing: " + strings.Join(missing, ", "),
		Retryable: false,
		Metadata:  map[string]interface{}{"missing": missing},
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidRedirectURIError(uri string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRedirectURI,
		Message:   "redirect_uri is not a valid absolute URL",
		Details:   fmt.Sprintf("redirect_uri: %s, error: %v", uri, err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewNotFoundError(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewNoAuthOutcomeError(userID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoAuthOutcome,
		Message:   "No authorization outcome for this identifier",
		Details:   fmt.Sprintf("userId: %s", userID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidGrantError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidGrant,
		Message:   "Authorization code is invalid or expired",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewStoreNotConfiguredError(component string) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreNotConfigured,
		Message:   "Storage not configured",
		Details:   fmt.Sprintf("%s requires a document store", component),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewCodeStoreFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCodeStoreFailed,
		Message:   "Authorization code store error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewInputParsingFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputParsingFailed,
		Message:   "Failed to parse job variables",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Mapping helpers
// ==========================

// Normalize converts any error to a StandardError.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// CodeOf returns the error code of err, or INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	return Normalize(err).Code
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCodeStoreFailed:
		return 3
	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeInvalidInput, ErrCodeInputParsingFailed:
		return "VALIDATION"
	case ErrCodeMissingOAuthParams, ErrCodeInvalidRedirectURI, ErrCodeInvalidGrant, ErrCodeNoAuthOutcome:
		return "OAUTH"
	case ErrCodeNotFound:
		return "LOOKUP"
	case ErrCodeStoreNotConfigured, ErrCodeCodeStoreFailed:
		return "STORAGE"
	default:
		return "OTHER"
	}
}
