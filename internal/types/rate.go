package types

import (
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/samber/lo"
)

// RateContext is the service-delivery setting a rate applies to
type RateContext string

const (
	RateContextIncall  RateContext = "incall"
	RateContextOutcall RateContext = "outcall"
	RateContextEvent   RateContext = "event"
)

const (
	// MinRateDurationMinutes and MaxRateDurationMinutes bound a single session
	MinRateDurationMinutes = 1
	MaxRateDurationMinutes = 480

	// MaxRateDeviationPercent is the inclusive bound on how far a rate's
	// per-minute price may drift from its reference rate
	MaxRateDeviationPercent = 33
)

func (c RateContext) String() string {
	return string(c)
}

func (c RateContext) Validate() error {
	allowed := []RateContext{
		RateContextIncall,
		RateContextOutcall,
		RateContextEvent,
	}
	if !lo.Contains(allowed, c) {
		return ierr.NewError("invalid rate context").
			WithHint("Context must be one of incall, outcall or event").
			WithReportableDetails(map[string]any{
				"context":         c,
				"allowed_context": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
