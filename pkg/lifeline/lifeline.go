package lifeline

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"
)

// Lifeline is the handle of one spawned task. Cancel or Close stops the task;
// Done and Wait observe its exit.
type Lifeline struct {
	id     uuid.UUID
	name   string
	logger *slog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	complete atomic.Bool
	done     chan struct{}
}

func newLifeline(name string, o options) *Lifeline {
	ctx, cancel := context.WithCancel(o.parent)
	id := uuid.New()

	return &Lifeline{
		id:     id,
		name:   name,
		logger: o.logger.With("task", name, "id", id),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// run executes task and calls report with its outcome before Done closes.
// A panic in task is recovered and reported as an error.
func (l *Lifeline) run(task func(ctx context.Context) error, report func(err error)) {
	defer close(l.done)
	defer l.cancel()

	l.logger.Debug("START")

	var err error
	var catcher panics.Catcher
	catcher.Try(func() { err = task(l.ctx) })
	if recovered := catcher.Recovered(); recovered != nil {
		err = recovered.AsError()
		l.logger.Error("task panicked", "error", err)
	}

	if l.complete.CompareAndSwap(false, true) && l.ctx.Err() == nil {
		l.logger.Debug("END")
	} else {
		l.logger.Debug("CANCEL")
	}

	if report != nil {
		report(err)
	}
}

func spawn(name string, task func(ctx context.Context) error, report func(l *Lifeline, err error), opts []Option) *Lifeline {
	o := buildOptions(opts)
	l := newLifeline(name, o)

	o.executor.Go(func() {
		l.run(task, func(err error) {
			if report != nil {
				report(l, err)
			}
		})
	})

	return l
}

// Spawn runs fn in the background until it returns or the lifeline is
// cancelled.
func Spawn(name string, fn func(ctx context.Context), opts ...Option) *Lifeline {
	return spawn(name, func(ctx context.Context) error {
		fn(ctx)
		return nil
	}, nil, opts)
}

// Go is Spawn for a task that produces a value. The value is logged at debug.
func Go[T any](name string, fn func(ctx context.Context) T, opts ...Option) *Lifeline {
	var v T
	return spawn(name, func(ctx context.Context) error {
		v = fn(ctx)
		return nil
	}, func(l *Lifeline, err error) {
		if err == nil {
			l.logger.Debug("task returned", "value", v)
		}
	}, opts)
}

// Try runs a fallible task and logs its outcome. Errors other than
// cancellation are logged at error level.
func Try[T any](name string, fn func(ctx context.Context) (T, error), opts ...Option) *Lifeline {
	var v T
	return spawn(name, func(ctx context.Context) error {
		var err error
		v, err = fn(ctx)
		return err
	}, func(l *Lifeline, err error) {
		logOutcome(l, v, err)
	}, opts)
}

// TryResult is Try that also reports the outcome on out. The send does not
// block: if out is full the result is dropped with a warning.
func TryResult[T any](name string, fn func(ctx context.Context) (T, error), out chan<- Result[T], opts ...Option) *Lifeline {
	var v T
	return spawn(name, func(ctx context.Context) error {
		var err error
		v, err = fn(ctx)
		return err
	}, func(l *Lifeline, err error) {
		logOutcome(l, v, err)

		select {
		case out <- resultOf(v, err).withTask(l):
		default:
			l.logger.Warn("task result dropped")
		}
	}, opts)
}

func logOutcome[T any](l *Lifeline, v T, err error) {
	switch {
	case err == nil:
		l.logger.Debug("task ok", "value", v)
	case IsCancellationError(err):
		l.logger.Debug("task cancelled", "error", err)
	default:
		l.logger.Error("task failed", "error", err)
	}
}

func (l *Lifeline) ID() uuid.UUID {
	return l.id
}

func (l *Lifeline) Name() string {
	return l.name
}

// Cancel stops the task. It does not wait for the task to return.
func (l *Lifeline) Cancel() {
	if l.complete.CompareAndSwap(false, true) {
		l.logger.Debug("cancel requested")
	}
	l.cancel()
}

// Close is Cancel for use with defer and io.Closer holders.
func (l *Lifeline) Close() error {
	l.Cancel()
	return nil
}

// Complete reports whether the task finished or was cancelled.
func (l *Lifeline) Complete() bool {
	return l.complete.Load()
}

// Done is closed once the task goroutine has returned.
func (l *Lifeline) Done() <-chan struct{} {
	return l.done
}

// Wait blocks until the task returns or ctx ends.
func (l *Lifeline) Wait(ctx context.Context) error {
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
