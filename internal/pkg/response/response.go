// internal/pkg/response/response.go
package response

import (
	"errors"
	"net/http"

	xerrors "panel-service/internal/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Response defines the standard API response format.
type Response struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    interface{}         `json:"data,omitempty"`
	Error   string              `json:"error,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// Success sends a successful response with a message and optional data.
func Success(c *gin.Context, status int, message string, data interface{}) {
	if status == 0 {
		status = http.StatusOK
	}

	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error sends a standardized error response.
func Error(c *gin.Context, code int, message string, err error, data ...interface{}) {
	// Abort first so later handlers never write a second body
	c.Abort()

	resp := Response{
		Success: false,
		Message: message,
	}

	if err != nil {
		resp.Error = err.Error()
	}

	if len(data) > 0 {
		resp.Data = data[0]
	}

	c.JSON(code, resp)
}

// ValidationFailed sends a 422 with every failing field.
func ValidationFailed(c *gin.Context, errs xerrors.ValidationErrors) {
	c.Abort()
	c.JSON(http.StatusUnprocessableEntity, Response{
		Success: false,
		Message: "the given data was invalid",
		Errors:  errs,
	})
}

// Forbidden sends a 403 Forbidden response.
func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "forbidden", nil)
}

// HandleError maps service errors to HTTP responses. Anything unrecognised is an
// infrastructure failure: it is attached to the gin context for the request logger
// and the client only sees a generic message.
func HandleError(c *gin.Context, err error) {
	if verrs, ok := xerrors.AsValidation(err); ok {
		ValidationFailed(c, verrs)
		return
	}

	var nf *xerrors.NotFoundError
	switch {
	case errors.As(err, &nf):
		Error(c, http.StatusNotFound, nf.Error(), nil)
	case errors.Is(err, xerrors.ErrNotFound):
		Error(c, http.StatusNotFound, "not found", nil)
	case errors.Is(err, xerrors.ErrForbidden):
		Forbidden(c)
	case errors.Is(err, xerrors.ErrUnauthorized), errors.Is(err, xerrors.ErrSessionExpired):
		Error(c, http.StatusUnauthorized, "unauthorized", nil)
	case errors.Is(err, xerrors.ErrRateLimited):
		Error(c, http.StatusTooManyRequests, "too many requests", nil)
	case errors.Is(err, xerrors.ErrConflict):
		Error(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, xerrors.ErrInvalidInput):
		Error(c, http.StatusBadRequest, err.Error(), nil)
	default:
		_ = c.Error(err)
		Error(c, http.StatusInternalServerError, "internal server error", nil)
	}
}
