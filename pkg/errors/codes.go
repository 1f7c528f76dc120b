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

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
)

// Aliases used by call sites that predate the module-prefixed names.
const (
	CodeUnknown      = ErrorCode("")
	CodeOK           = ErrorCode("OK")
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
)

// Submission model error codes. These are the completeness failures reported
// by Submission.Validate, plus the form-capture rejection of an unknown kind.
const (
	ErrCodeMissingJobName        ErrorCode = "SUB_001"
	ErrCodeNoEntities            ErrorCode = "SUB_002"
	ErrCodeMissingSequence       ErrorCode = "SUB_003"
	ErrCodeMissingLigandIdentity ErrorCode = "SUB_004"
	ErrCodeMissingIonName        ErrorCode = "SUB_005"
	ErrCodeUnknownEntityKind     ErrorCode = "SUB_006"
)

// Job runner and history error codes.
const (
	ErrCodeJobNameRequired     ErrorCode = "JOB_001"
	ErrCodeEmailRequired       ErrorCode = "JOB_002"
	ErrCodeDocumentRequired    ErrorCode = "JOB_003"
	ErrCodeSchedulerFailed     ErrorCode = "JOB_004"
	ErrCodeWorkspaceFailed     ErrorCode = "JOB_005"
	ErrCodeArchiveNotFound     ErrorCode = "JOB_006"
	ErrCodeTemplateUnavailable ErrorCode = "JOB_007"
	ErrCodeJobLocked           ErrorCode = "JOB_008"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,

	ErrCodeMissingJobName:        http.StatusUnprocessableEntity,
	ErrCodeNoEntities:            http.StatusUnprocessableEntity,
	ErrCodeMissingSequence:       http.StatusUnprocessableEntity,
	ErrCodeMissingLigandIdentity: http.StatusUnprocessableEntity,
	ErrCodeMissingIonName:        http.StatusUnprocessableEntity,
	ErrCodeUnknownEntityKind:     http.StatusBadRequest,

	ErrCodeJobNameRequired:     http.StatusUnprocessableEntity,
	ErrCodeEmailRequired:       http.StatusUnprocessableEntity,
	ErrCodeDocumentRequired:    http.StatusUnprocessableEntity,
	ErrCodeSchedulerFailed:     http.StatusBadGateway,
	ErrCodeWorkspaceFailed:     http.StatusInternalServerError,
	ErrCodeArchiveNotFound:     http.StatusNotFound,
	ErrCodeTemplateUnavailable: http.StatusInternalServerError,
	ErrCodeJobLocked:           http.StatusConflict,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many submissions, please retry later",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeExternalService:    "external service error",

	ErrCodeMissingJobName:        "Job name is required.",
	ErrCodeNoEntities:            "At least one entity is required.",
	ErrCodeMissingSequence:       "Sequence required.",
	ErrCodeMissingLigandIdentity: "Ligand must have SMILES or CCD codes.",
	ErrCodeMissingIonName:        "Ion name is required for ion entities.",
	ErrCodeUnknownEntityKind:     "unknown entity type",

	ErrCodeJobNameRequired:     "Error: Job name is required.",
	ErrCodeEmailRequired:       "Error: Email is required.",
	ErrCodeDocumentRequired:    "Error: Generate JSON first.",
	ErrCodeSchedulerFailed:     "Submission failed",
	ErrCodeWorkspaceFailed:     "failed to prepare job directory",
	ErrCodeArchiveNotFound:     "job archive not found",
	ErrCodeTemplateUnavailable: "scheduler template unavailable",
	ErrCodeJobLocked:           "a submission with this job name is already in progress",
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
