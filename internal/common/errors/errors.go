// Package errors provides the structured error model shared by the API and
// the job workers, and its conversion to BPMN errors.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

type ErrorCode string

const (
	ErrCodeDatasetLoadFailed ErrorCode = "DATASET_LOAD_FAILED"

	ErrCodeLeadValidationFailed  ErrorCode = "LEAD_VALIDATION_FAILED"
	ErrCodeDuplicateLead         ErrorCode = "DUPLICATE_LEAD"
	ErrCodeLeadSinkNotConfigured ErrorCode = "LEAD_SINK_NOT_CONFIGURED"
	ErrCodeLeadSinkFailed        ErrorCode = "LEAD_SINK_FAILED"
	ErrCodeLeadStoreFailed       ErrorCode = "LEAD_STORE_FAILED"

	ErrCodeCRMSyncFailed          ErrorCode = "CRM_SYNC_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeCacheFailed       ErrorCode = "CACHE_FAILED"
	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"

	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT_ERROR"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// StandardError is a structured application error. The wrapped cause is
// reachable through errors.Is / errors.As but never serialized.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata sets one metadata key and returns e.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	e := &StandardError{
		Code:      code,
		Message:   message,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError is thrown to the workflow engine.
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

// ToErrorVariables returns the variables attached to a failed or thrown job.
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

func NewDatasetLoadError(source string, err error) *StandardError {
	return newError(ErrCodeDatasetLoadFailed, fmt.Sprintf("Failed to load program dataset from %s", source), err, true)
}

func NewLeadValidationError(details string) *StandardError {
	e := newError(ErrCodeLeadValidationFailed, "Missing required fields", nil, false)
	e.Details = details
	return e
}

// NewInvalidLeadError reports fields that are present but malformed.
func NewInvalidLeadError(details string) *StandardError {
	e := newError(ErrCodeLeadValidationFailed, "Invalid lead details", nil, false)
	e.Details = details
	return e
}

func NewDuplicateLeadError(phone string) *StandardError {
	e := newError(ErrCodeDuplicateLead, "Lead already submitted", nil, false)
	e.Details = fmt.Sprintf("a lead for %s was submitted recently", maskPhone(phone))
	return e
}

func NewLeadSinkNotConfiguredError(missing string) *StandardError {
	e := newError(ErrCodeLeadSinkNotConfigured, "Server configuration error", nil, false)
	e.Details = missing
	return e
}

func NewLeadSinkError(err error) *StandardError {
	return newError(ErrCodeLeadSinkFailed, "Failed to save lead", err, true)
}

func NewLeadStoreError(err error) *StandardError {
	return newError(ErrCodeLeadStoreFailed, "Failed to store lead record", err, true)
}

func NewCRMSyncError(err error) *StandardError {
	return newError(ErrCodeCRMSyncFailed, "Failed to sync lead to CRM", err, true)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, fmt.Sprintf("Failed to send %s notification", channel), err, true)
}

func NewCacheError(op string, err error) *StandardError {
	return newError(ErrCodeCacheFailed, fmt.Sprintf("Cache %s failed", op), err, true)
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, fmt.Sprintf("Search on index '%s' failed", index), err, true)
}

func NewInvalidInputError(details string) *StandardError {
	e := newError(ErrCodeInvalidInput, "Invalid input", nil, false)
	e.Details = details
	return e
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err, true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err, true)
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal codes to the error codes caught by
// boundary events in the lead process.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeDatasetLoadFailed:      "DATASET_LOAD_FAILED",
	ErrCodeLeadValidationFailed:   "LEAD_VALIDATION_FAILED",
	ErrCodeDuplicateLead:          "DUPLICATE_LEAD",
	ErrCodeLeadSinkNotConfigured:  "LEAD_SINK_FAILED",
	ErrCodeLeadSinkFailed:         "LEAD_SINK_FAILED",
	ErrCodeLeadStoreFailed:        "LEAD_STORE_FAILED",
	ErrCodeCRMSyncFailed:          "CRM_SYNC_FAILED",
	ErrCodeNotificationSendFailed: "NOTIFICATION_SEND_FAILED",
	ErrCodeCacheFailed:            "CACHE_FAILED",
	ErrCodeSearchQueryFailed:      "SEARCH_QUERY_FAILED",
	ErrCodeInvalidInput:           "INVALID_INPUT",
}

// GetRetryCount returns the number of job retries a code is worth.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatasetLoadFailed,
		ErrCodeLeadSinkFailed,
		ErrCodeLeadStoreFailed,
		ErrCodeCRMSyncFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeExternalService:
		return 3

	case ErrCodeTimeout, ErrCodeCacheFailed:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError for the workflow engine.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError finds a StandardError anywhere in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// GetErrorCategory groups codes for dashboards and log queries.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "DATASET"), strings.Contains(codeStr, "SEARCH"):
		return "CATALOG"
	case strings.Contains(codeStr, "VALIDATION"), strings.Contains(codeStr, "INVALID"), strings.Contains(codeStr, "DUPLICATE"):
		return "VALIDATION"
	case strings.Contains(codeStr, "LEAD"), strings.Contains(codeStr, "CRM"):
		return "LEAD"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	default:
		return "OTHER"
	}
}
