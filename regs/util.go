package regs

import (
	"context"
	"log/slog"
)

// LevelTrace sits above Info so that register-level traces can be filtered
// independently of the run lifecycle messages.
const LevelTrace slog.Level = slog.LevelInfo + 1

// Trace logs a message at LevelTrace through the default logger.
func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}
