package channel

import (
	"log/slog"
	"sync/atomic"
)

// logger is unset until SetLogger is called; Logger falls back to slog.Default().
var logger atomic.Pointer[slog.Logger]

// SetLogger overrides the logger used by channel kinds (lag reports). Safe to
// call while channels are in use.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

// Logger returns the package logger. Kind subpackages log through it.
func Logger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default()
}
