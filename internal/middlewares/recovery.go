package middlewares

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"leetclone/internal/apperrors"
	"leetclone/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandlerMiddleware turns a panic in any later handler into a logged
// 500. A response that already started is only aborted.
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			err, ok := recovered.(error)
			if !ok {
				err = fmt.Errorf("%v", recovered)
			}

			logger.FromContext(c.Request.Context()).Error("Recovered from panic",
				zap.Error(err),
				zap.String("stack", string(debug.Stack())),
				zap.String("method", c.Request.Method),
				zap.String("route", c.FullPath()),
				zap.String("client_ip", c.ClientIP()),
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": apperrors.PublicMessage(apperrors.Wrap(err, apperrors.Internal, "panic")),
			})
		}()
		c.Next()
	}
}
