package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error by how a caller should react to it.
type Kind string

const (
	// KindValidation means the input was malformed; fix the input.
	KindValidation Kind = "validation"
	// KindConflict means the current state forbids the operation.
	KindConflict Kind = "conflict"
	// KindNotFound means the referenced resource does not exist.
	KindNotFound Kind = "not_found"
	// KindPermission means the actor lacks the required capability.
	KindPermission Kind = "permission"
	// KindExternalService means a collaborator failed; the caller may retry.
	KindExternalService Kind = "external_service"
	// KindInternal is anything else.
	KindInternal Kind = "internal"
)

// Common error types.
var (
	ErrNotFound    = errors.New("resource not found")
	ErrForbidden   = errors.New("forbidden")
	ErrBadRequest  = errors.New("bad request")
	ErrConflict    = errors.New("resource conflict")
	ErrInternal    = errors.New("internal error")
	ErrUnavailable = errors.New("service unavailable")
)

// AppError represents an application error with a stable code, a kind and an HTTP status.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Kind       Kind   `json:"-"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError with the same code.
// Sentinel domain errors are compared by code so wrapped copies still match.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// Wrap returns a copy of e carrying err as its cause.
func (e *AppError) Wrap(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// ErrorResponse represents the JSON error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code      string `json:"code"`
	Kind      Kind   `json:"kind,omitempty"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// New creates an application error of the given kind.
func New(kind Kind, code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Kind:       kind,
		StatusCode: StatusForKind(kind),
		Err:        sentinelForKind(kind),
	}
}

// ToResponse converts an AppError to ErrorResponse.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetail{
			Code:      e.Code,
			Kind:      e.Kind,
			Message:   e.Message,
			Retryable: IsRetryable(e),
		},
	}
}

// KindOf returns the kind of err, or KindInternal when err carries none.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Kind != "" {
		return appErr.Kind
	}
	return KindInternal
}

// IsRetryable reports whether the caller may retry the failed operation.
func IsRetryable(err error) bool {
	return KindOf(err) == KindExternalService
}

// StatusForKind maps an error kind to its HTTP status.
func StatusForKind(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindPermission:
		return http.StatusForbidden
	case KindExternalService:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func sentinelForKind(kind Kind) error {
	switch kind {
	case KindValidation:
		return ErrBadRequest
	case KindConflict:
		return ErrConflict
	case KindNotFound:
		return ErrNotFound
	case KindPermission:
		return ErrForbidden
	case KindExternalService:
		return ErrUnavailable
	default:
		return ErrInternal
	}
}
