package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a category of failure. Codes are stable and surface in API
// responses.
type Code string

const (
	CodeInvalidInput                Code = "INVALID_INPUT"
	CodeInvalidReportShape          Code = "INVALID_REPORT_SHAPE"
	CodeInvalidPageRequest          Code = "INVALID_PAGE_REQUEST"
	CodeEmptyCapabilityResponse     Code = "EMPTY_CAPABILITY_RESPONSE"
	CodeMalformedCapabilityResponse Code = "MALFORMED_CAPABILITY_RESPONSE"
	CodeCapabilityUnavailable       Code = "CAPABILITY_UNAVAILABLE"
	CodeCapabilityNotConfigured     Code = "CAPABILITY_NOT_CONFIGURED"
	CodePersistenceConflict         Code = "PERSISTENCE_CONFLICT"
	CodePersistenceUnavailable      Code = "PERSISTENCE_UNAVAILABLE"
	CodeRenderInputIncomplete       Code = "RENDER_INPUT_INCOMPLETE"
	CodeNotFound                    Code = "NOT_FOUND"
	CodeInternal                    Code = "INTERNAL"
)

// AppError is the structured error carried across package boundaries.
type AppError struct {
	Code       Code   `json:"code"`
	Message    string `json:"message"`
	Field      string `json:"field,omitempty"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s (field %s)", msg, e.Field)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code Code, message string, statusCode int) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: statusCode}
}

func Wrap(err error, code Code, message string, statusCode int) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: statusCode, Err: err}
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message, http.StatusBadRequest)
}

func InvalidReportShape(field, message string) *AppError {
	return &AppError{
		Code:       CodeInvalidReportShape,
		Message:    message,
		Field:      field,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

func InvalidPageRequest(message string) *AppError {
	return New(CodeInvalidPageRequest, message, http.StatusBadRequest)
}

func EmptyCapabilityResponse() *AppError {
	return New(CodeEmptyCapabilityResponse, "empty response from classification capability", http.StatusBadGateway)
}

func MalformedCapabilityResponse(err error) *AppError {
	return Wrap(err, CodeMalformedCapabilityResponse, "malformed response from classification capability", http.StatusBadGateway)
}

func CapabilityUnavailable(err error) *AppError {
	return Wrap(err, CodeCapabilityUnavailable, "classification capability request failed", http.StatusBadGateway)
}

func CapabilityNotConfigured(message string) *AppError {
	return New(CodeCapabilityNotConfigured, message, http.StatusInternalServerError)
}

func PersistenceConflict(reportID string, attempts int) *AppError {
	return New(CodePersistenceConflict,
		fmt.Sprintf("report id collision persisted after %d attempts (last id %s)", attempts, reportID),
		http.StatusConflict)
}

func PersistenceUnavailable(err error) *AppError {
	return Wrap(err, CodePersistenceUnavailable, "report storage unavailable", http.StatusServiceUnavailable)
}

func RenderInputIncomplete(field string) *AppError {
	return &AppError{
		Code:       CodeRenderInputIncomplete,
		Message:    "report is missing a required field",
		Field:      field,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

func NotFound(message string) *AppError {
	return New(CodeNotFound, message, http.StatusNotFound)
}

func Internal(err error, message string) *AppError {
	return Wrap(err, CodeInternal, message, http.StatusInternalServerError)
}

// As extracts the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// Is reports whether any AppError in err's chain carries code. AppErrors
// that wrap other AppErrors are followed through Err.
func Is(err error, code Code) bool {
	for err != nil {
		appErr, ok := As(err)
		if !ok {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Err
	}
	return false
}

func CodeOf(err error) Code {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeInternal
}

func StatusCode(err error) int {
	if appErr, ok := As(err); ok && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
