package lifeline

import (
	"log/slog"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

// SetLogger sets the logger for tasks spawned without WithLogger. A nil logger
// restores slog.Default().
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

func defaultLogger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default()
}
