package lifeline

import (
	"context"
	"log/slog"
)

type options struct {
	executor Executor
	parent   context.Context
	logger   *slog.Logger
}

type Option func(*options)

func WithExecutor(e Executor) Option {
	return func(o *options) {
		o.executor = e
	}
}

// WithParent derives the task context from ctx, so cancelling ctx also
// cancels the task.
func WithParent(ctx context.Context) Option {
	return func(o *options) {
		o.parent = ctx
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.executor == nil {
		o.executor = goroutines{}
	}
	if o.parent == nil {
		o.parent = context.Background()
	}
	if o.logger == nil {
		o.logger = defaultLogger()
	}

	return o
}
