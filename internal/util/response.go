package util

import (
	"errors"
	"net/http"

	"formcraft_backend/internal/richtext"
	"formcraft_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorBody 错误响应的 data 部分
type ErrorBody struct {
	Violations []Violation `json:"violations,omitempty"`
	Reason     string      `json:"reason,omitempty"`
	BlockKey   string      `json:"blockKey,omitempty"`
	Retryable  bool        `json:"retryable,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func errorWithBody(c *gin.Context, code int, message string, body ErrorBody) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
		Data:    body,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error", zap.Error(err), zap.String("path", c.FullPath()))
	InternalServerError(c)
}

// RespondError 错误分类到 HTTP 状态码的唯一映射点
func RespondError(c *gin.Context, err error) {
	var (
		validationErr *ValidationError
		decodeErr     *richtext.DecodeError
		transportErr  *TransportError
		uploadErr     *UploadError
	)

	switch {
	case errors.As(err, &validationErr):
		errorWithBody(c, http.StatusBadRequest, "validation failed", ErrorBody{Violations: validationErr.Violations})
	case errors.As(err, &decodeErr):
		errorWithBody(c, http.StatusUnprocessableEntity, "malformed rich text document", ErrorBody{
			Reason:   decodeErr.Reason,
			BlockKey: decodeErr.BlockKey,
		})
	case errors.As(err, &uploadErr):
		BadRequest(c, uploadErr.Error())
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrBadCredentials):
		Error(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrUserBlocked), errors.Is(err, ErrForbidden):
		Error(c, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUserNotFound):
		Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrEmailRegistered):
		Error(c, http.StatusConflict, err.Error())
	case errors.As(err, &transportErr):
		logger.Log.Error("Upstream call failed",
			zap.String("op", transportErr.Op),
			zap.Error(transportErr.Err),
			zap.String("path", c.FullPath()))
		errorWithBody(c, http.StatusServiceUnavailable, "service temporarily unavailable", ErrorBody{Retryable: true})
	default:
		LogInternalError(c, err)
	}
}
