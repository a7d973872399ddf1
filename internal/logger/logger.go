package logger

import (
	"context"

	"github.com/masseurmatch/masseurmatch/internal/config"
	"github.com/masseurmatch/masseurmatch/internal/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.SugaredLogger to provide logging functionality
type Logger struct {
	*zap.SugaredLogger
}

// L is a fallback logger for scripts and init code. Services receive their
// logger through dependency injection.
var L *Logger

func init() {
	L, _ = NewLogger(nil)
}

// NewLogger builds a production JSON logger, or a console logger in local
// deployments. A nil config yields info level JSON output.
func NewLogger(cfg *config.Configuration) (*Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg != nil && cfg.Deployment.Mode == types.ModeLocal {
		zc = zap.NewDevelopmentConfig()
	}
	zc.EncoderConfig.TimeKey = "timestamp"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if cfg != nil && cfg.Logging.Level != "" {
		level, err := zapcore.ParseLevel(string(cfg.Logging.Level))
		if err != nil {
			return nil, err
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}

	zapLogger, err := zc.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{
		SugaredLogger: zapLogger.Sugar(),
	}, nil
}

// NewNopLogger returns a logger that discards everything. Used by tests.
func NewNopLogger() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// WithContext returns a logger annotated with the request and user ids found in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	fields := make([]interface{}, 0, 4)
	if requestID := types.GetRequestID(ctx); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}
	if userID := types.GetUserID(ctx); userID != "" {
		fields = append(fields, "user_id", userID)
	}
	if len(fields) == 0 {
		return l
	}
	return &Logger{SugaredLogger: l.SugaredLogger.With(fields...)}
}

// Zap exposes the underlying structured logger for libraries that need it.
func (l *Logger) Zap() *zap.Logger {
	return l.SugaredLogger.Desugar()
}
