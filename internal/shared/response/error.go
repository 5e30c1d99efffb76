package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	sharederrors "github.com/eventsync/server/internal/shared/errors"
)

// Error writes err as a standard error body. AppErrors keep their code and
// status; anything else becomes a 500 without leaking its message.
func Error(c *gin.Context, err error) {
	var appErr *sharederrors.AppError
	if errors.As(err, &appErr) {
		status := appErr.StatusCode
		if status == 0 {
			status = sharederrors.StatusForKind(appErr.Kind)
		}
		c.JSON(status, appErr.ToResponse())
		return
	}
	InternalError(c, "")
}

// Abort writes an error body and stops the handler chain.
func Abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, sharederrors.ErrorResponse{
		Error: sharederrors.ErrorDetail{
			Code:    code,
			Kind:    kindForStatus(status),
			Message: message,
		},
	})
}

// BadRequest sends a 400 Bad Request response.
func BadRequest(c *gin.Context, message string) {
	Abort(c, http.StatusBadRequest, "invalid_request", message)
}

// Unauthorized sends a 401 Unauthorized response.
func Unauthorized(c *gin.Context, code, message string) {
	if message == "" {
		message = "unauthorized"
	}
	Abort(c, http.StatusUnauthorized, code, message)
}

// InternalError sends a 500 Internal Server Error response.
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "internal error"
	}
	Abort(c, http.StatusInternalServerError, "internal_error", message)
}

func kindForStatus(status int) sharederrors.Kind {
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return sharederrors.KindValidation
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return sharederrors.KindPermission
	case status == http.StatusNotFound:
		return sharederrors.KindNotFound
	case status == http.StatusConflict || status == http.StatusTooManyRequests:
		return sharederrors.KindConflict
	case status == http.StatusServiceUnavailable:
		return sharederrors.KindExternalService
	default:
		return sharederrors.KindInternal
	}
}
