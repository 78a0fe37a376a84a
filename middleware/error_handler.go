package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/backlot-hq/backlot-backend/errors"
	"github.com/backlot-hq/backlot-backend/logger"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the JSON shape every surfaced error takes.
type ErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

// ErrorHandler converts errors attached to the gin context into structured
// JSON responses. Every mutation handler attaches its failure here; nothing
// is swallowed.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		if appError, ok := err.(*errors.AppError); ok {
			statusCode := appError.GetHTTPStatus()
			logger.LogHTTPError(c, err, statusCode, fmt.Sprintf("%s error", appError.Type))

			response := ErrorResponse{
				Type:    string(appError.Type),
				Message: appError.Message,
				Code:    strconv.Itoa(statusCode),
			}
			// Detail may carry row identifiers; only expose it for error
			// types the client acts on.
			if appError.Detail != "" && (gin.IsDebugging() ||
				appError.Type == errors.ValidationError ||
				appError.Type == errors.NotFoundError ||
				appError.Type == errors.EntryNotFoundError ||
				appError.Type == errors.InvalidStatusTransitionError ||
				appError.Type == errors.EntryLockedError) {
				response.Details = appError.Detail
			}

			c.JSON(statusCode, response)
			return
		}

		// Fallback for unexpected raw errors
		logger.LogHTTPError(c, err, http.StatusInternalServerError, "Unhandled error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Type:    string(errors.ServerError),
			Message: "Internal server error",
			Code:    strconv.Itoa(http.StatusInternalServerError),
		})
	}
}
