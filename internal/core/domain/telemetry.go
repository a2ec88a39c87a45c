package domain

// LogLevel is the severity of a message attached to a telemetry vertex.
// The values match log/slog so adapters can convert without a table.
type LogLevel int

const (
	// LogLevelDebug is used for tool stdout and key inputs.
	LogLevelDebug LogLevel = -4
	// LogLevelInfo is the default level.
	LogLevelInfo LogLevel = 0
	// LogLevelWarn is used for tool stderr and recoverable cache problems.
	LogLevelWarn LogLevel = 4
	// LogLevelError marks failed jobs.
	LogLevelError LogLevel = 8
)

// String returns the upper-case level name. Unknown levels report as INFO.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}
