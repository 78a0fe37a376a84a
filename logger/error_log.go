package logger

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LogHTTPError logs a request-scoped error with the fields the operations
// dashboards key on. Used by the error-handler middleware for every surfaced
// failure.
func LogHTTPError(c *gin.Context, err error, statusCode int, message string) {
	log := GetLogger()

	fields := []interface{}{
		zap.Error(err),
		zap.Int("status_code", statusCode),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.String("client_ip", c.ClientIP()),
	}

	if requestID := c.GetString("request_id"); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if userID := c.GetString("user_id"); userID != "" {
		fields = append(fields, zap.String("user_id", userID))
	}

	if statusCode >= 500 {
		log.Errorw(message, fields...)
	} else {
		log.Warnw(message, fields...)
	}
}
