package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/logger"
)

// ErrorResponse is the body written for a failed request. Details are only
// populated for client errors.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorHandler renders the last error recorded with c.Error
func ErrorHandler(logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := ierr.HTTPStatusFromErr(err)

		if status >= http.StatusInternalServerError {
			logger.WithContext(c.Request.Context()).Errorw("request failed",
				"method", c.Request.Method,
				"path", c.FullPath(),
				"status", status,
				"error", err,
			)
			c.JSON(status, ErrorResponse{Error: "An unexpected error occurred"})
			return
		}

		response := ErrorResponse{
			Error: ierr.DisplayMessage(err, http.StatusText(status)),
		}
		if details := ierr.ReportableDetails(err); len(details) > 0 {
			response.Details = details
		}
		c.JSON(status, response)
	}
}
