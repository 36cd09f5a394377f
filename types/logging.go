package types

import "log/slog"

// LevelTrace sits below debug and is reserved for per-datagram chatter.
const (
	LevelTrace = slog.Level(slog.LevelDebug - 1)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

var logLevelMap = map[string]slog.Level{
	"trace": LevelTrace,
	"debug": LevelDebug,
	"info":  LevelInfo,
	"warn":  LevelWarn,
	"error": LevelError,
}

// ParseLogLevel maps a level name as accepted on the command line or in the
// configuration onto a slog.Level.
func ParseLogLevel(level string) (slog.Level, bool) {
	l, ok := logLevelMap[level]
	return l, ok
}
