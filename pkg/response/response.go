package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/bikeshare-insights-go/internal/apperr"
)

// ErrConflict marks errors caused by the server's current state, e.g. no
// dataset loaded yet. Wrap it to get a 409.
var ErrConflict = errors.New("conflict")

// Response represents a standard API response
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Success sends a successful response
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error sends an error response
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest sends a 400 bad request response
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// NotFound sends a 404 not found response
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// InternalError sends a 500 internal server error response
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// StatusOf maps an error to its HTTP status
func StatusOf(err error) int {
	switch {
	case apperr.IsInvalidParam(err):
		return http.StatusBadRequest
	case apperr.IsData(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FromError sends err with the status matching its kind
func FromError(c *gin.Context, err error) {
	code := StatusOf(err)
	_ = c.Error(err)
	c.JSON(code, Response{
		Code:    code,
		Message: err.Error(),
		Kind:    string(apperr.KindOf(err)),
	})
}
