package combine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ib-77/lifeline/pkg/channel"
)

func closeReceiver(rx any) {
	if c, ok := rx.(channel.Closer); ok {
		c.Close()
	}
}

type MapReceiver[In, Out any] struct {
	rx channel.Receiver[In]
	fn func(ctx context.Context, in In) Out
}

// Map applies fn to every value read from rx.
func Map[In, Out any](rx channel.Receiver[In], fn func(ctx context.Context, in In) Out) *MapReceiver[In, Out] {
	return &MapReceiver[In, Out]{rx: rx, fn: fn}
}

func (m *MapReceiver[In, Out]) Recv(ctx context.Context) (Out, error) {
	in, err := m.rx.Recv(ctx)
	if err != nil {
		var zero Out
		return zero, err
	}
	return m.fn(ctx, in), nil
}

func (m *MapReceiver[In, Out]) Close() {
	closeReceiver(m.rx)
}

type FilterReceiver[T any] struct {
	rx   channel.Receiver[T]
	keep func(ctx context.Context, v T) bool
}

// Filter drops every value for which keep returns false.
func Filter[T any](rx channel.Receiver[T], keep func(ctx context.Context, v T) bool) *FilterReceiver[T] {
	return &FilterReceiver[T]{rx: rx, keep: keep}
}

func (f *FilterReceiver[T]) Recv(ctx context.Context) (T, error) {
	for {
		v, err := f.rx.Recv(ctx)
		if err != nil {
			return v, err
		}
		if f.keep(ctx, v) {
			return v, nil
		}
	}
}

func (f *FilterReceiver[T]) Close() {
	closeReceiver(f.rx)
}

type LoggedReceiver[T any] struct {
	rx     channel.Receiver[T]
	name   string
	logger *slog.Logger
}

// Logged logs every value read from rx at debug, under the given channel
// name. A nil logger means slog.Default().
func Logged[T any](rx channel.Receiver[T], name string, logger *slog.Logger) *LoggedReceiver[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggedReceiver[T]{rx: rx, name: name, logger: logger.With("channel", name)}
}

func (l *LoggedReceiver[T]) Recv(ctx context.Context) (T, error) {
	v, err := l.rx.Recv(ctx)
	switch {
	case err == nil:
		l.logger.Debug("received", "value", v)
	case errors.Is(err, channel.ErrClosed):
		l.logger.Debug("channel closed")
	case ctx.Err() != nil:
	default:
		l.logger.Debug("receive failed", "error", err)
	}
	return v, err
}

func (l *LoggedReceiver[T]) Close() {
	closeReceiver(l.rx)
}
