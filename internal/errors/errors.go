// Package errors provides the typed errors shared by the portal layers
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
)

// AppError is the interface implemented by every MiSight error
type AppError interface {
	error
	HTTPStatus() int
	Code() string
}

// BaseError is the base implementation of AppError
type BaseError struct {
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	ErrorCode  string `json:"code"`
	Details    string `json:"details,omitempty"`
}

func (e *BaseError) Error() string {
	return e.Message
}

func (e *BaseError) HTTPStatus() int {
	return e.StatusCode
}

func (e *BaseError) Code() string {
	return e.ErrorCode
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	BaseError
	Resource string
}

func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{
		BaseError: BaseError{
			Message:    fmt.Sprintf("%s not found", resource),
			StatusCode: http.StatusNotFound,
			ErrorCode:  "NOT_FOUND",
		},
		Resource: resource,
	}
}

// FieldError is one failed check on a form field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every field that failed validation
type ValidationError struct {
	BaseError
	Fields []FieldError
}

func NewValidationError(fields ...FieldError) *ValidationError {
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, f.Message)
	}
	message := "validation failed"
	if len(msgs) > 0 {
		message = strings.Join(msgs, "; ")
	}
	return &ValidationError{
		BaseError: BaseError{
			Message:    message,
			StatusCode: http.StatusBadRequest,
			ErrorCode:  "VALIDATION_ERROR",
		},
		Fields: fields,
	}
}

// FieldMessage returns the message recorded for a field, if any
func (e *ValidationError) FieldMessage(field string) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

// PermissionDeniedError represents a permission denied error
type PermissionDeniedError struct {
	BaseError
	Action   string
	Resource string
}

func NewPermissionDeniedError(action, resource string) *PermissionDeniedError {
	return &PermissionDeniedError{
		BaseError: BaseError{
			Message:    "permission denied",
			StatusCode: http.StatusForbidden,
			ErrorCode:  "PERMISSION_DENIED",
		},
		Action:   action,
		Resource: resource,
	}
}

// UnauthorizedError represents an authentication error
type UnauthorizedError struct {
	BaseError
}

func NewUnauthorizedError(message string) *UnauthorizedError {
	if message == "" {
		message = "authentication required"
	}
	return &UnauthorizedError{
		BaseError: BaseError{
			Message:    message,
			StatusCode: http.StatusUnauthorized,
			ErrorCode:  "UNAUTHORIZED",
		},
	}
}

// InternalError represents an internal server error
type InternalError struct {
	BaseError
	OriginalError error
}

func NewInternalError(original error) *InternalError {
	return &InternalError{
		BaseError: BaseError{
			Message:    "internal server error",
			StatusCode: http.StatusInternalServerError,
			ErrorCode:  "INTERNAL_ERROR",
		},
		OriginalError: original,
	}
}

func (e *InternalError) Unwrap() error {
	return e.OriginalError
}

// ConflictError represents a conflict error (e.g., duplicate)
type ConflictError struct {
	BaseError
	Resource string
}

func NewConflictError(resource string) *ConflictError {
	return &ConflictError{
		BaseError: BaseError{
			Message:    fmt.Sprintf("%s already exists", resource),
			StatusCode: http.StatusConflict,
			ErrorCode:  "CONFLICT",
		},
		Resource: resource,
	}
}

// BadRequestError represents a generic bad request error
type BadRequestError struct {
	BaseError
}

func NewBadRequestError(message string) *BadRequestError {
	return &BadRequestError{
		BaseError: BaseError{
			Message:    message,
			StatusCode: http.StatusBadRequest,
			ErrorCode:  "BAD_REQUEST",
		},
	}
}

// TooManyRequestsError is returned while a login key is throttled
type TooManyRequestsError struct {
	BaseError
	RetryAfterSeconds float64
}

func NewTooManyRequestsError(retryAfterSeconds float64) *TooManyRequestsError {
	return &TooManyRequestsError{
		BaseError: BaseError{
			Message:    "too many login attempts, please wait before trying again",
			StatusCode: http.StatusTooManyRequests,
			ErrorCode:  "TOO_MANY_REQUESTS",
		},
		RetryAfterSeconds: retryAfterSeconds,
	}
}

// UpstreamError is a non-2xx answer from the MiSight backend
type UpstreamError struct {
	BaseError
	Method         string
	Path           string
	UpstreamStatus int
}

func NewUpstreamError(method, path string, status int, message string) *UpstreamError {
	if message == "" {
		message = http.StatusText(status)
	}
	// 401 and 403 mean the backend rejected the portal's service credentials, not the user's input
	code := http.StatusBadGateway
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		code = http.StatusBadGateway
	case status == http.StatusNotFound:
		code = http.StatusNotFound
	case status == http.StatusConflict:
		code = http.StatusConflict
	case status >= 400 && status < 500:
		code = http.StatusBadRequest
	}
	return &UpstreamError{
		BaseError: BaseError{
			Message:    message,
			StatusCode: code,
			ErrorCode:  "UPSTREAM_ERROR",
		},
		Method:         method,
		Path:           path,
		UpstreamStatus: status,
	}
}

// IsNotFound reports whether err is, or wraps, a not-found condition
func IsNotFound(err error) bool {
	var nf *NotFoundError
	if stderrors.As(err, &nf) {
		return true
	}
	var up *UpstreamError
	return stderrors.As(err, &up) && up.UpstreamStatus == http.StatusNotFound
}

// UserMessage returns text that is safe to show in a page banner
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ie *InternalError
	if stderrors.As(err, &ie) {
		return ie.Message
	}
	var ae AppError
	if stderrors.As(err, &ae) {
		return ae.Error()
	}
	return "the MiSight service could not be reached, please try again later"
}

// ToHTTPError converts any error to an appropriate HTTP response
func ToHTTPError(err error) (int, map[string]interface{}) {
	if err == nil {
		return http.StatusOK, nil
	}

	var ae AppError
	if stderrors.As(err, &ae) {
		return ae.HTTPStatus(), map[string]interface{}{
			"error":   ae.Code(),
			"message": ae.Error(),
		}
	}

	// Default to internal server error for unknown errors
	return http.StatusInternalServerError, map[string]interface{}{
		"error":   "INTERNAL_ERROR",
		"message": "internal server error",
	}
}
