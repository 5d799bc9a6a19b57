package errors

import (
	"errors"
	"net/http"
)

// Error kinds. Every failure surfaced by the client wraps exactly one of them.
var (
	ErrInputValidation     = errors.New("invalid input")
	ErrNetworkFailure      = errors.New("network failure")
	ErrNotFound            = errors.New("resource not found")
	ErrProviderUnavailable = errors.New("wallet provider unavailable")
	ErrProviderRejected    = errors.New("wallet provider rejected request")
	ErrDecodeFailure       = errors.New("qr decode failure")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidCredentials  = errors.New("invalid credentials")
)

// Error codes returned in JSON bodies
const (
	CodeInputValidation     = "INPUT_VALIDATION"
	CodeNetworkFailure      = "NETWORK_FAILURE"
	CodeNotFound            = "NOT_FOUND"
	CodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	CodeProviderRejected    = "PROVIDER_REJECTED"
	CodeDecodeFailure       = "DECODE_FAILURE"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInternalError       = "INTERNAL_ERROR"
)

// AppError represents application error with HTTP status
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error returns the user-facing message.
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Status)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// InputValidation is raised before any network call.
func InputValidation(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeInputValidation, message, ErrInputValidation)
}

// NetworkFailure carries the most specific message the backend provided.
// status is the backend status, or 0 for transport errors and timeouts.
func NetworkFailure(status int, message string, cause error) *AppError {
	err := ErrNetworkFailure
	if cause != nil {
		err = errors.Join(ErrNetworkFailure, cause)
	}
	httpStatus := http.StatusBadGateway
	if status >= 400 && status < 500 {
		httpStatus = status
	}
	return NewAppError(httpStatus, CodeNetworkFailure, message, err)
}

func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, ErrNotFound)
}

func ProviderUnavailable(message string) *AppError {
	return NewAppError(http.StatusServiceUnavailable, CodeProviderUnavailable, message, ErrProviderUnavailable)
}

func ProviderRejected(message string, cause error) *AppError {
	err := ErrProviderRejected
	if cause != nil {
		err = errors.Join(ErrProviderRejected, cause)
	}
	return NewAppError(http.StatusConflict, CodeProviderRejected, message, err)
}

func DecodeFailure(message string) *AppError {
	return NewAppError(http.StatusUnprocessableEntity, CodeDecodeFailure, message, ErrDecodeFailure)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, ErrUnauthorized)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternalError, "internal server error", err)
}

// Message returns the user-facing message of err, or fallback when err is
// not an AppError.
func Message(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	if err != nil && fallback == "" {
		return err.Error()
	}
	return fallback
}
