package dto

import "net/http"

// Error codes, formatted ERR_<DESCRIPTION>
const (
	ErrCodeInternal        = "ERR_INTERNAL"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidEmail    = "ERR_INVALID_EMAIL"
	ErrCodeInvalidName     = "ERR_INVALID_NAME"
	ErrCodeInvalidID       = "ERR_INVALID_ID"
	ErrCodeNotFound        = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists   = "ERR_ALREADY_EXISTS"
	ErrCodeUnauthorized    = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired    = "ERR_TOKEN_EXPIRED"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	ErrCodeUnavailable     = "ERR_SERVICE_UNAVAILABLE"
)

// InternalErrorMessage is the only message a 500 ever carries
const InternalErrorMessage = "An internal error occurred."

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidEmail:    http.StatusBadRequest,
	ErrCodeInvalidName:     http.StatusBadRequest,
	ErrCodeInvalidID:       http.StatusBadRequest,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeAlreadyExists:   http.StatusConflict,
	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeTokenExpired:    http.StatusUnauthorized,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeUnavailable:     http.StatusServiceUnavailable,
}

// domainCodes maps shared.DomainError codes to API codes
var domainCodes = map[string]string{
	"NOT_FOUND":      ErrCodeNotFound,
	"ALREADY_EXISTS": ErrCodeAlreadyExists,
	"INVALID_INPUT":  ErrCodeInvalidInput,
	"INVALID_EMAIL":  ErrCodeInvalidEmail,
	"INVALID_NAME":   ErrCodeInvalidName,
	"INVALID_ID":     ErrCodeInvalidID,
}

// GetHTTPStatus returns the status for code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromDomainCode converts a domain error code to its API code. Unknown codes
// become ErrCodeInternal.
func FromDomainCode(code string) string {
	if apiCode, ok := domainCodes[code]; ok {
		return apiCode
	}
	return ErrCodeInternal
}
