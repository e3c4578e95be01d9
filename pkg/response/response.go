package response

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-storefront/pkg/apperror"
)

type APIResponse[T any] struct {
	Status    int         `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id"`
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      T           `json:"data,omitempty"`
	Meta      interface{} `json:"meta,omitempty"`
	Error     interface{} `json:"error,omitempty"`
}

// Success writes a successful envelope and returns it.
func Success[T any](ctx *gin.Context, status int, data T, message string, meta interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusOK
	}
	resp := APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   true,
		Message:   message,
		Data:      data,
		Meta:      meta,
	}
	ctx.JSON(status, resp)
	return resp
}

// Error writes a failed envelope and returns it. Callers in middleware still need to Abort.
func Error[T any](ctx *gin.Context, status int, message string, err interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusBadRequest
	}
	resp := APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   false,
		Message:   message,
		Error:     err,
	}
	ctx.JSON(status, resp)
	return resp
}

// FromError decodes an application error into status, message and details.
// Anything that is not an *apperror.Error is reported as a generic internal error.
func FromError(ctx *gin.Context, err error) APIResponse[any] {
	ae, ok := apperror.As(err)
	if !ok || ae.Kind == apperror.KindInternal {
		return Error[any](ctx, http.StatusInternalServerError, "internal server error", nil)
	}
	details := ae.Details
	if ae.Kind == apperror.KindRateLimited && ae.RetryAfter > 0 {
		ctx.Header("Retry-After", strconv.Itoa(ae.RetryAfter))
		details = gin.H{"retry_after": ae.RetryAfter}
	}
	return Error[any](ctx, ae.Kind.HTTPStatus(), ae.Message, details)
}
