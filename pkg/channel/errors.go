package channel

import (
	"errors"
	"fmt"
)

// ErrClosed is the end-of-stream signal. It is not an application error: a
// task that observes it should wind down.
var ErrClosed = errors.New("channel closed")

// SendError is returned when the receiving side is gone. The undelivered
// value is handed back.
type SendError[T any] struct {
	Value T
}

func (e *SendError[T]) Error() string {
	return fmt.Sprintf("channel closed, message: %v", e.Value)
}

func (e *SendError[T]) Unwrap() error {
	return ErrClosed
}

// LaggedError reports that a broadcast receiver fell behind and Skipped
// messages were overwritten before it could read them. The receiver is still
// usable.
type LaggedError struct {
	Skipped uint64
}

func (e *LaggedError) Error() string {
	return fmt.Sprintf("receiver lagged, %d messages skipped", e.Skipped)
}

// IsClosed reports whether err marks the end of a stream.
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

// IsLagged reports whether err is a recoverable lag notification.
func IsLagged(err error) bool {
	var lagged *LaggedError
	return errors.As(err, &lagged)
}
