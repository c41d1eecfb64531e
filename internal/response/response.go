package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gravadigital/residencia-api/internal/domain/common"
	"github.com/gravadigital/residencia-api/internal/logger"
)

// Response representa la estructura estándar de respuesta de la API
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ErrorResponse representa una respuesta de error
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    int    `json:"code"`
}

// SuccessResponse envía una respuesta exitosa
func SuccessResponse(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponseWithMessage envía una respuesta de error con mensaje personalizado
func ErrorResponseWithMessage(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    status,
	})
}

// BadRequestError envía un error 400
func BadRequestError(c *gin.Context, message string) {
	ErrorResponseWithMessage(c, http.StatusBadRequest, message)
}

// NotFoundError envía un error 404
func NotFoundError(c *gin.Context, message string) {
	ErrorResponseWithMessage(c, http.StatusNotFound, message)
}

// InternalServerError envía un error 500
func InternalServerError(c *gin.Context, message string) {
	ErrorResponseWithMessage(c, http.StatusInternalServerError, message)
}

// UnauthorizedError envía un error 401
func UnauthorizedError(c *gin.Context, message string) {
	ErrorResponseWithMessage(c, http.StatusUnauthorized, message)
}

// ConflictError envía un error 409
func ConflictError(c *gin.Context, message string) {
	ErrorResponseWithMessage(c, http.StatusConflict, message)
}

// ForbiddenError envía un error 403
func ForbiddenError(c *gin.Context, message string) {
	ErrorResponseWithMessage(c, http.StatusForbidden, message)
}

// StatusFor traduce un error de dominio a su código HTTP
func StatusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// FromError envía la respuesta de error correspondiente a err. Los errores
// internos se registran y no se exponen al cliente.
func FromError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.HTTP().Error("request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"request_id", c.GetString("request_id"),
			"error", err,
		)
		InternalServerError(c, "Internal server error")
		return
	}
	ErrorResponseWithMessage(c, status, err.Error())
}
