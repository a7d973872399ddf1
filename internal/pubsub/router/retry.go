package router

import (
	"net"

	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/logger"
)

// ShouldRetry reports whether a failed delivery is worth another attempt.
// Client-correctable errors are permanent; timeouts and unknown errors are not.
func ShouldRetry(logger *logger.Logger, err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if ierr.As(err, &netErr) && netErr.Timeout() {
		logger.Debugw("retrying due to network timeout", "error", netErr)
		return true
	}

	if ierr.IsClientError(err) {
		logger.Debugw("non-retryable error", "error", err)
		return false
	}

	return true
}
