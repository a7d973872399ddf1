package errors

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

const safeDetailsPrefix = "__json__:"

// ErrorBuilder chains context onto an error. Mark must be the last call.
type ErrorBuilder struct {
	err error
}

// NewError starts a new error builder chain
func NewError(msg string) *ErrorBuilder {
	return &ErrorBuilder{err: errors.New(msg)}
}

// WithError starts a builder chain with an existing error
func WithError(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// WithMessage wraps the error with an internal message
func (b *ErrorBuilder) WithMessage(msg string) *ErrorBuilder {
	b.err = errors.WithMessage(b.err, msg)
	return b
}

// WithHint attaches the message shown to API callers
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err = errors.WithHint(b.err, hint)
	return b
}

func (b *ErrorBuilder) WithHintf(format string, args ...any) *ErrorBuilder {
	b.err = errors.WithHintf(b.err, format, args...)
	return b
}

// WithReportableDetails attaches structured details that are safe to return to callers
func (b *ErrorBuilder) WithReportableDetails(details map[string]any) *ErrorBuilder {
	marshaled, err := json.Marshal(details)
	if err != nil {
		return b
	}
	b.err = errors.WithSafeDetails(b.err, safeDetailsPrefix+"%s", errors.Safe(string(marshaled)))
	return b
}

// Mark marks the error with a sentinel error
func (b *ErrorBuilder) Mark(reference error) error {
	b.err = errors.Mark(b.err, reference)
	return b.err
}

// Error returns the built error without marking it
func (b *ErrorBuilder) Error() error {
	return b.err
}

// DisplayMessage returns the first non-empty hint attached to err.
func DisplayMessage(err error, fallback string) string {
	for _, hint := range errors.GetAllHints(err) {
		if hint = strings.TrimSpace(hint); hint != "" {
			return hint
		}
	}
	return fallback
}

// ReportableDetails collects every detail map attached with WithReportableDetails.
func ReportableDetails(err error) map[string]any {
	details := make(map[string]any)
	for _, sdp := range errors.GetAllSafeDetails(err) {
		for _, payload := range sdp.SafeDetails {
			if !strings.HasPrefix(payload, safeDetailsPrefix) {
				continue
			}
			var m map[string]any
			if err := json.Unmarshal([]byte(payload[len(safeDetailsPrefix):]), &m); err != nil {
				continue
			}
			for k, v := range m {
				details[k] = v
			}
		}
	}
	return details
}
