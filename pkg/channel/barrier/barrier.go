// Package barrier is a one-time release fence. Any number of receivers wait
// until the single sender releases (optionally with a value) or is dropped.
package barrier

import (
	"context"
	"sync"

	"github.com/ib-77/lifeline/pkg/channel"
)

type state[T any] struct {
	once     sync.Once
	value    T
	hasValue bool
	released chan struct{}
}

func New[T any]() (*Sender[T], *Receiver[T]) {
	s := &state[T]{released: make(chan struct{})}
	return &Sender[T]{state: s}, &Receiver[T]{state: s}
}

type kind[T any] struct{}

// Kind returns the channel kind for T. Tx is taken, Rx is cloned.
func Kind[T any]() channel.Channel[*Sender[T], *Receiver[T]] {
	return kind[T]{}
}

func (kind[T]) Make(int) (*Sender[T], *Receiver[T]) {
	return New[T]()
}

func (kind[T]) DefaultCapacity() int {
	return 1
}

func (kind[T]) TxPolicy() channel.Policy {
	return channel.Take
}

func (kind[T]) RxPolicy() channel.Policy {
	return channel.Clone
}

type Sender[T any] struct {
	state *state[T]
}

// Release opens the barrier with v. It reports false if the barrier was
// already open.
func (s *Sender[T]) Release(v T) bool {
	released := false
	s.state.once.Do(func() {
		s.state.value = v
		s.state.hasValue = true
		close(s.state.released)
		released = true
	})
	return released
}

// Send is Release through the unified Sender interface.
func (s *Sender[T]) Send(ctx context.Context, v T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.Release(v) {
		return &channel.SendError[T]{Value: v}
	}
	return nil
}

// Close opens the barrier without a value.
func (s *Sender[T]) Close() {
	s.state.once.Do(func() { close(s.state.released) })
}

type Receiver[T any] struct {
	state    *state[T]
	observed bool
}

// Wait blocks until the barrier opens, by release or by drop.
func (r *Receiver[T]) Wait(ctx context.Context) error {
	select {
	case <-r.state.released:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recv returns the released value once per receiver handle. A barrier dropped
// without release yields channel.ErrClosed.
func (r *Receiver[T]) Recv(ctx context.Context) (T, error) {
	var zero T
	if r.observed {
		return zero, channel.ErrClosed
	}

	if err := r.Wait(ctx); err != nil {
		return zero, err
	}

	r.observed = true
	if !r.state.hasValue {
		return zero, channel.ErrClosed
	}
	return r.state.value, nil
}

// Released reports whether the barrier is open.
func (r *Receiver[T]) Released() bool {
	select {
	case <-r.state.released:
		return true
	default:
		return false
	}
}

// Clone returns a handle that has not observed the release yet.
func (r *Receiver[T]) Clone() *Receiver[T] {
	return &Receiver[T]{state: r.state}
}

func (r *Receiver[T]) Close() {
	r.observed = true
}
