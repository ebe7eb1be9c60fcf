package web

import (
	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/gachalogs/pkg/logger"
	"github.com/lk2023060901/gachalogs/pkg/web/errors"
)

// Response 统一响应结构
type Response struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Data      any    `json:"data"`
	RequestID string `json:"request_id,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data any) {
	c.JSON(errors.CodeToStatus(errors.CodeOK), Response{
		Code:      errors.CodeOK,
		Message:   "ok",
		Data:      data,
		RequestID: logger.RequestIDFromContext(c.Request.Context()),
	})
}

// Fail 错误响应，HTTP 状态码由业务码推出
func Fail(c *gin.Context, code int, message string) {
	c.JSON(errors.CodeToStatus(code), Response{
		Code:      code,
		Message:   message,
		RequestID: logger.RequestIDFromContext(c.Request.Context()),
	})
}

// AbortWithError 中断后续 handler 并返回错误
func AbortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(errors.CodeToStatus(code), Response{
		Code:      code,
		Message:   message,
		RequestID: logger.RequestIDFromContext(c.Request.Context()),
	})
}
