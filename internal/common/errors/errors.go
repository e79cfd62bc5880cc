// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeSubscriptionInvalid     ErrorCode = "SUBSCRIPTION_INVALID"
	ErrCodeSubscriptionExpired     ErrorCode = "SUBSCRIPTION_EXPIRED"
	ErrCodeSubscriptionCheckFailed ErrorCode = "SUBSCRIPTION_CHECK_FAILED"

	ErrCodeProfileNotFound    ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeInvalidSnapshot    ErrorCode = "INVALID_SNAPSHOT"
	ErrCodeEligibilityFailed  ErrorCode = "ELIGIBILITY_FAILED"
	ErrCodeMatchScoreFailed   ErrorCode = "MATCH_SCORE_FAILED"
	ErrCodeRankingFailed      ErrorCode = "RANKING_FAILED"
	ErrCodeCacheInvalidation  ErrorCode = "CACHE_INVALIDATION_FAILED"
	ErrCodeGenerationFailed   ErrorCode = "GENERATION_FAILED"
	ErrCodeNarrativeRejected  ErrorCode = "NARRATIVE_SCHEMA_REJECTED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeInvalidQueryType         ErrorCode = "INVALID_QUERY_TYPE"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeSearchQueryFailed             ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout                 ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound                 ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeLLMTimeout ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMFailed  ErrorCode = "LLM_GENERATION_FAILED"
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
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
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

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewSubscriptionInvalidError creates a non-retryable subscription error.
func NewSubscriptionInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubscriptionInvalid,
		Message:   "Invalid or not found subscription",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSubscriptionExpiredError creates a non-retryable subscription error.
func NewSubscriptionExpiredError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubscriptionExpired,
		Message:   "Subscription has expired",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSubscriptionCheckFailedError creates a retryable database error.
func NewSubscriptionCheckFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubscriptionCheckFailed,
		Message:   "Database error during subscription check",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProfileNotFoundError creates a non-retryable loader error. A missing
// snapshot is the caller's problem, not a transient fault.
func NewProfileNotFoundError(profileID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileNotFound,
		Message:   "Student profile not found",
		Details:   fmt.Sprintf("profileId: %s", profileID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidSnapshotError creates a non-retryable input error.
func NewInvalidSnapshotError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidSnapshot,
		Message:   "Student snapshot missing or malformed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRankingFailedError creates a non-retryable ranking error. Ranking is
// deterministic, so a retry can only fail identically.
func NewRankingFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRankingFailed,
		Message:   "Recommendation ranking failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewQueryTimeoutError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidQueryTypeError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidQueryType,
		Message:   "Unsupported query type",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Elasticsearch query error",
		Details:   fmt.Sprintf("index: %s, error: %s", index, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewSearchTimeoutError(index string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchTimeout,
		Message:   "Elasticsearch query timeout",
		Details:   fmt.Sprintf("index: %s", index),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewIndexNotFoundError(indexName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexNotFound,
		Message:   "Elasticsearch index not found",
		Details:   fmt.Sprintf("indexName: %s", indexName),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewLLMTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMTimeout,
		Message:   "LLM generation timed out",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewLLMFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMFailed,
		Message:   "LLM generation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewNarrativeRejectedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNarrativeRejected,
		Message:   "LLM narrative payload failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. BPMN Mapping
// ==========================

// BPMNErrorMapping maps internal codes to the BPMN error codes the process
// model catches. Codes not present here are surfaced unchanged.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeSubscriptionInvalid:     "SUBSCRIPTION_INVALID",
	ErrCodeSubscriptionExpired:     "SUBSCRIPTION_EXPIRED",
	ErrCodeProfileNotFound:         "PROFILE_NOT_FOUND",
	ErrCodeInvalidSnapshot:         "INVALID_INPUT",
	ErrCodeRankingFailed:           "RANKING_FAILED",
	ErrCodeInvalidQueryType:        "INVALID_INPUT",
	ErrCodeIndexNotFound:           "SEARCH_UNAVAILABLE",
	ErrCodeNarrativeRejected:       "GENERATION_DEGRADED",
	ErrCodeLLMTimeout:              "GENERATION_TIMEOUT",
	ErrCodeLLMFailed:               "GENERATION_FAILED",
	ErrCodeNotificationSendFailed:  "NOTIFICATION_SEND_FAILED",
	ErrCodeQueryTimeout:            "DATA_ACCESS_TIMEOUT",
	ErrCodeQueryExecutionFailed:    "DATA_ACCESS_FAILED",
	ErrCodeSearchQueryFailed:       "DATA_ACCESS_FAILED",
	ErrCodeSearchTimeout:           "DATA_ACCESS_TIMEOUT",
	ErrCodeSubscriptionCheckFailed: "DATA_ACCESS_FAILED",
}

// GetRetryCount returns how many Zeebe retries a code deserves. Deterministic
// core failures get zero; transient infrastructure failures get a few.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeSubscriptionCheckFailed,
		ErrCodeSearchQueryFailed:
		return 3
	case ErrCodeQueryTimeout,
		ErrCodeSearchTimeout,
		ErrCodeLLMTimeout,
		ErrCodeLLMFailed,
		ErrCodeNotificationSendFailed:
		return 2
	default:
		return 0
	}
}

// IsRetryableErrorCode reports whether the code maps to any retries.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// ConvertToBPMNError converts a StandardError into its BPMN representation.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	code := string(stdErr.Code)
	if mapped, ok := BPMNErrorMapping[stdErr.Code]; ok {
		code = mapped
	}

	return &BPMNError{
		Code:           code,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        GetRetryCount(stdErr.Code),
		ErrorVariables: stdErr.Metadata,
	}
}
