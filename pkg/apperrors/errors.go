package apperrors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// AppError is the application error carried between service and handler
// layers. HTTPCode and Retryable are derived from Code.
type AppError struct {
	Code      ErrorCode   `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Retryable bool        `json:"retryable"`
	Err       error       `json:"-"`
	HTTPCode  int         `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: Retryable(code),
		HTTPCode:  HTTPStatus(code),
	}
}

// Wrap attaches an underlying error to a new AppError.
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Err = err
	return appErr
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	type alias struct {
		Code      ErrorCode   `json:"code"`
		Message   string      `json:"message"`
		Details   interface{} `json:"details,omitempty"`
		Retryable bool        `json:"retryable"`
	}
	return json.Marshal(&alias{
		Code:      e.Code,
		Message:   e.Message,
		Details:   e.Details,
		Retryable: e.Retryable,
	})
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// --- Common factories ---

func InternalError(err error) *AppError {
	return Wrap(err, CodeInternalError, "Internal server error")
}

func ValidationError(details interface{}) *AppError {
	return New(CodeValidationError, "Validation failed").WithDetails(details)
}

func NewNotFoundError(message string) *AppError {
	return New(CodeNotFound, message)
}

func NewUnauthorizedError(message string) *AppError {
	return New(CodeUnauthorized, message)
}

func NewForbiddenError(message string) *AppError {
	return New(CodeForbidden, message)
}

func NewBadRequestError(message string) *AppError {
	return New(CodeBadRequest, message)
}

func NewRateLimitedError(message string) *AppError {
	return New(CodeRateLimited, message)
}
