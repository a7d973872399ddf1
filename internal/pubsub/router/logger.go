package router

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"github.com/samber/lo"
)

// watermillLogger routes watermill's internal logging through the service logger
type watermillLogger struct {
	logger *logger.Logger
	fields watermill.LogFields
}

var _ watermill.LoggerAdapter = (*watermillLogger)(nil)

func newWatermillLogger(l *logger.Logger) *watermillLogger {
	return &watermillLogger{logger: l, fields: watermill.LogFields{}}
}

func (w *watermillLogger) keysAndValues(fields watermill.LogFields) []interface{} {
	merged := w.fields.Add(fields)
	kv := make([]interface{}, 0, len(merged)*2)
	for _, k := range lo.Keys(merged) {
		kv = append(kv, k, merged[k])
	}
	return kv
}

func (w *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	w.logger.Errorw(msg, append(w.keysAndValues(fields), "error", err)...)
}

func (w *watermillLogger) Info(msg string, fields watermill.LogFields) {
	w.logger.Infow(msg, w.keysAndValues(fields)...)
}

func (w *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	w.logger.Debugw(msg, w.keysAndValues(fields)...)
}

// Trace maps to debug
func (w *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	w.logger.Debugw(msg, w.keysAndValues(fields)...)
}

func (w *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillLogger{logger: w.logger, fields: w.fields.Add(fields)}
}
