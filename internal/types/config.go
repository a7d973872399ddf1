package types

type RunMode string

const (
	// ModeLocal runs with console logging and relaxed defaults
	ModeLocal RunMode = "local"
	// ModeAPI is the production API server
	ModeAPI RunMode = "api"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)
