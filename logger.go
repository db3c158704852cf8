/*
File: logger.go
Description: Structured logging for the core, using log/slog like the
             teacher's logger.go. Unlike the teacher (a standalone
             daemon that owns syslog/file/console fan-out), the core is
             a library: it accepts an injected *slog.Logger and falls
             back to a quiet package default, rather than owning any
             output sink itself.
*/

package scorecore

import (
	"context"
	"log/slog"
	"os"
)

// defaultLogger is used by any Engine that isn't given one explicitly.
var defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelWarn,
}))

// componentLogger returns a logger tagged with the emitting component,
// matching the teacher's "[ML-GUARD]"-style prefixes but as structured
// attributes instead of a formatted prefix.
func componentLogger(base *slog.Logger, component string) *slog.Logger {
	if base == nil {
		base = defaultLogger
	}
	return base.With("component", component)
}

// IsDebugEnabled mirrors the teacher's cached-level fast path
// (logger.go's IsDebugEnabled) for a hot-path caller that wants to skip
// building log attributes when debug logging is off.
func IsDebugEnabled(log *slog.Logger) bool {
	if log == nil {
		log = defaultLogger
	}
	return log.Enabled(context.Background(), slog.LevelDebug)
}

// LogDebug, LogInfo, LogWarn and LogError mirror the teacher's
// level-tagged LogDebug/LogInfo/LogWarn/LogError wrappers (logger.go),
// adapted to take an explicit *slog.Logger since the core is a library
// with no global logger of its own.
func LogDebug(log *slog.Logger, msg string, args ...any) {
	if log == nil {
		log = defaultLogger
	}
	log.Debug(msg, args...)
}

func LogInfo(log *slog.Logger, msg string, args ...any) {
	if log == nil {
		log = defaultLogger
	}
	log.Info(msg, args...)
}

func LogWarn(log *slog.Logger, msg string, args ...any) {
	if log == nil {
		log = defaultLogger
	}
	log.Warn(msg, args...)
}

func LogError(log *slog.Logger, msg string, args ...any) {
	if log == nil {
		log = defaultLogger
	}
	log.Error(msg, args...)
}
