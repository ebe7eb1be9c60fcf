package middleware

import (
	"errors"
	"net"
	"os"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/gachalogs/pkg/logger"
	weberrors "github.com/lk2023060901/gachalogs/pkg/web/errors"
)

// Recovery 捕获 panic，断开的连接不再写响应
func Recovery(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			ctx := c.Request.Context()
			if err, ok := rec.(error); ok && isBrokenPipe(err) {
				l.WarnContext(ctx, "http broken pipe", "error", err, "path", c.Request.URL.Path)
				_ = c.Error(err)
				c.Abort()
				return
			}

			l.ErrorContext(ctx, "http recovery from panic",
				"panic", rec,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"stack", string(debug.Stack()),
			)
			abortJSON(c, weberrors.CodeInternalError, "internal error")
		}()
		c.Next()
	}
}

func isBrokenPipe(err error) bool {
	var ne *net.OpError
	if !errors.As(err, &ne) {
		return false
	}
	var se *os.SyscallError
	if !errors.As(ne.Err, &se) {
		return false
	}
	msg := strings.ToLower(se.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
}

// abortJSON 与 web.Response 同形，middleware 不能反向依赖 web 包
func abortJSON(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(weberrors.CodeToStatus(code), gin.H{
		"code":       code,
		"message":    message,
		"data":       nil,
		"request_id": logger.RequestIDFromContext(c.Request.Context()),
	})
}
