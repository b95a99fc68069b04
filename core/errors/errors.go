package errors

import "fmt"

// ErrorCode identifies a domain error category independent of transport.
type ErrorCode string

const (
	ErrInvalidInput               ErrorCode = "INVALID_INPUT"
	ErrInvalidRequestData         ErrorCode = "INVALID_REQUEST_DATA"
	ErrInvalidState               ErrorCode = "INVALID_STATE"
	ErrNotFound                   ErrorCode = "NOT_FOUND"
	ErrAlreadyExists              ErrorCode = "ALREADY_EXISTS"
	ErrForbidden                  ErrorCode = "FORBIDDEN"
	ErrUnauthorized               ErrorCode = "UNAUTHORIZED"
	ErrTokenExpired               ErrorCode = "TOKEN_EXPIRED"
	ErrInvalidTokenFormat         ErrorCode = "INVALID_TOKEN_FORMAT"
	ErrMissingAuthorizationHeader ErrorCode = "MISSING_AUTHORIZATION_HEADER"
	ErrInternalServer             ErrorCode = "INTERNAL_SERVER_ERROR"
)

// AppError is the error type carried across service boundaries. Controllers
// translate it into an HTTP response; nothing below the controller layer
// knows about status codes.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}
