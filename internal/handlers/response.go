package handlers

import (
	"net/http"

	"leetclone/internal/apperrors"
	"leetclone/internal/logger"
	"leetclone/internal/middlewares"
	"leetclone/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError answers with the status mapped from err's code. Server-side
// failures are logged at error level, client errors at debug.
func respondError(c *gin.Context, err error, msg string, fields ...zap.Field) {
	status := apperrors.CodeOf(err).HTTPStatus()
	log := logger.FromContext(c.Request.Context())
	fields = append(fields, zap.Error(err), zap.Int("status", status))
	if status >= http.StatusInternalServerError {
		log.Error(msg, fields...)
	} else {
		log.Debug(msg, fields...)
	}
	c.JSON(status, gin.H{"error": apperrors.PublicMessage(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// mustSession is used behind AuthMiddleware, which guarantees a session.
func mustSession(c *gin.Context) models.Session {
	session, _ := middlewares.CurrentSession(c)
	return session
}
