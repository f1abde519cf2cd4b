package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_005"
	ErrCodeTimeout            ErrorCode = "COMMON_006"
	ErrCodeValidation         ErrorCode = "COMMON_007"
	ErrCodeSerialization      ErrorCode = "COMMON_008"
	ErrCodeDatabaseError      ErrorCode = "COMMON_009"
	ErrCodeCacheError         ErrorCode = "COMMON_010"
	ErrCodeMessagingError     ErrorCode = "COMMON_011"
)

// Sentinel codes with no module prefix.
const (
	CodeOK      ErrorCode = "OK"
	CodeUnknown ErrorCode = "UNKNOWN"
)

// Scenario module error codes.
const (
	ErrCodeScenarioNotFound     ErrorCode = "SCN_001"
	ErrCodeScenarioInvalid      ErrorCode = "SCN_002"
	ErrCodeScenarioStoreFailed  ErrorCode = "SCN_003"
	ErrCodeScenarioListFailed   ErrorCode = "SCN_004"
)

// Recommendation module error codes.
const (
	ErrCodeRecommendInvalidQuery ErrorCode = "REC_001"
	ErrCodeRecommendTopKInvalid  ErrorCode = "REC_002"
	ErrCodeRecommendFailed       ErrorCode = "REC_003"
	ErrCodeRecommendWeightsInvalid ErrorCode = "REC_004"
)

// Duplicate-detection module error codes.
const (
	ErrCodeDedupFailed           ErrorCode = "DUP_001"
	ErrCodeDedupThresholdInvalid ErrorCode = "DUP_002"
)

// Embedding module error codes.
const (
	ErrCodeEmbeddingInitFailed    ErrorCode = "EMB_001"
	ErrCodeEmbeddingFailed        ErrorCode = "EMB_002"
	ErrCodeEmbeddingDimMismatch   ErrorCode = "EMB_003"
	ErrCodeEmbeddingInputEmpty    ErrorCode = "EMB_004"
	ErrCodeVectorStoreError       ErrorCode = "EMB_005"
)

// Graph module error codes.
const (
	ErrCodeGraphUnavailable ErrorCode = "GRAPH_001"
	ErrCodeGraphQueryFailed ErrorCode = "GRAPH_002"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeMessagingError:     http.StatusInternalServerError,

	ErrCodeScenarioNotFound:    http.StatusNotFound,
	ErrCodeScenarioInvalid:     http.StatusBadRequest,
	ErrCodeScenarioStoreFailed: http.StatusInternalServerError,
	ErrCodeScenarioListFailed:  http.StatusInternalServerError,

	ErrCodeRecommendInvalidQuery:   http.StatusBadRequest,
	ErrCodeRecommendTopKInvalid:    http.StatusBadRequest,
	ErrCodeRecommendFailed:         http.StatusInternalServerError,
	ErrCodeRecommendWeightsInvalid: http.StatusInternalServerError,

	ErrCodeDedupFailed:           http.StatusInternalServerError,
	ErrCodeDedupThresholdInvalid: http.StatusBadRequest,

	ErrCodeEmbeddingInitFailed:  http.StatusServiceUnavailable,
	ErrCodeEmbeddingFailed:      http.StatusInternalServerError,
	ErrCodeEmbeddingDimMismatch: http.StatusInternalServerError,
	ErrCodeEmbeddingInputEmpty:  http.StatusBadRequest,
	ErrCodeVectorStoreError:     http.StatusInternalServerError,

	ErrCodeGraphUnavailable: http.StatusServiceUnavailable,
	ErrCodeGraphQueryFailed: http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeMessagingError:     "message broker error",

	ErrCodeScenarioNotFound:    "scenario not found",
	ErrCodeScenarioInvalid:     "invalid scenario",
	ErrCodeScenarioStoreFailed: "failed to persist scenario",
	ErrCodeScenarioListFailed:  "failed to list scenarios",

	ErrCodeRecommendInvalidQuery:   "invalid recommendation query",
	ErrCodeRecommendTopKInvalid:    "top_k out of range",
	ErrCodeRecommendFailed:         "recommendation failed",
	ErrCodeRecommendWeightsInvalid: "signal weights do not sum to 1",

	ErrCodeDedupFailed:           "duplicate detection failed",
	ErrCodeDedupThresholdInvalid: "invalid similarity threshold",

	ErrCodeEmbeddingInitFailed:  "embedding provider initialization failed",
	ErrCodeEmbeddingFailed:      "embedding computation failed",
	ErrCodeEmbeddingDimMismatch: "embedding dimension mismatch",
	ErrCodeEmbeddingInputEmpty:  "embedding input is empty",
	ErrCodeVectorStoreError:     "vector store error",

	ErrCodeGraphUnavailable: "graph store unavailable",
	ErrCodeGraphQueryFailed: "graph query failed",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
