package lifeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Result is the terminal outcome of a task: a value, an error, or a
// cancellation.
type Result[T any] struct {
	id        uuid.UUID
	task      string
	createdAt time.Time
	result    T
	err       error
	isSuccess bool
	isCancel  bool
}

func Success[T any](r T) Result[T] {
	return Result[T]{
		result:    r,
		isSuccess: true,
		createdAt: time.Now().UTC(),
		id:        uuid.New(),
	}
}

func Fail[T any](err error) Result[T] {
	return Result[T]{
		err:       err,
		createdAt: time.Now().UTC(),
		id:        uuid.New(),
	}
}

func Cancel[T any](err error) Result[T] {
	return Result[T]{
		err:       err,
		isCancel:  true,
		createdAt: time.Now().UTC(),
		id:        uuid.New(),
	}
}

// resultOf classifies a task's return.
func resultOf[T any](v T, err error) Result[T] {
	switch {
	case err == nil:
		return Success(v)
	case IsCancellationError(err):
		return Cancel[T](err)
	default:
		return Fail[T](err)
	}
}

func (r Result[T]) withTask(l *Lifeline) Result[T] {
	r.id = l.id
	r.task = l.name
	return r
}

func (r Result[T]) Result() T {
	return r.result
}

func (r Result[T]) Err() error {
	return r.err
}

func (r Result[T]) IsSuccess() bool {
	return r.isSuccess
}

func (r Result[T]) IsCancel() bool {
	return r.isCancel
}

func (r Result[T]) CreatedAt() time.Time {
	return r.createdAt
}

// ID is the id of the lifeline that produced the result.
func (r Result[T]) ID() uuid.UUID {
	return r.id
}

func (r Result[T]) Task() string {
	return r.task
}

func IsCancellationError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
