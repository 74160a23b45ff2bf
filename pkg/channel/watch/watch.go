// Package watch holds a single latest value. The sender replaces it, receivers
// wake on each change and always read the newest value; intermediate values
// may be skipped.
package watch

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ib-77/lifeline/pkg/channel"
)

type cell[T any] struct {
	mu      sync.RWMutex
	value   T
	version uint64
	closed  bool
	notify  chan struct{}
}

// New constructs a watch holding initial. A new receiver's first Recv returns
// the current value immediately.
func New[T any](initial T) (*Sender[T], *Receiver[T]) {
	c := &cell[T]{
		value:   initial,
		version: 1,
		notify:  make(chan struct{}),
	}

	return &Sender[T]{cell: c}, &Receiver[T]{cell: c}
}

type kind[T any] struct {
	initial T
}

// Kind returns the channel kind for T with the zero value as initial state.
// Tx is taken, Rx is cloned.
func Kind[T any]() channel.Channel[*Sender[T], *Receiver[T]] {
	return kind[T]{}
}

// KindWithInitial is Kind with an explicit initial value.
func KindWithInitial[T any](initial T) channel.Channel[*Sender[T], *Receiver[T]] {
	return kind[T]{initial: initial}
}

func (k kind[T]) Make(int) (*Sender[T], *Receiver[T]) {
	return New(k.initial)
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

// Sender is the single writer.
type Sender[T any] struct {
	cell   *cell[T]
	closed atomic.Bool
}

// Send replaces the current value. It never blocks.
func (s *Sender[T]) Send(ctx context.Context, v T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed.Load() {
		return &channel.SendError[T]{Value: v}
	}

	c := s.cell
	c.mu.Lock()
	c.value = v
	c.version++
	close(c.notify)
	c.notify = make(chan struct{})
	c.mu.Unlock()

	return nil
}

// Borrow returns the current value.
func (s *Sender[T]) Borrow() T {
	s.cell.mu.RLock()
	defer s.cell.mu.RUnlock()
	return s.cell.value
}

// Close ends the stream. Receivers keep the last value for Borrow.
func (s *Sender[T]) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	c := s.cell
	c.mu.Lock()
	c.closed = true
	close(c.notify)
	c.notify = make(chan struct{})
	c.mu.Unlock()
}

// Receiver tracks the last version it has returned. Clone for concurrent
// readers.
type Receiver[T any] struct {
	cell   *cell[T]
	seen   uint64
	closed bool
}

// Recv returns the value once it differs from the last one this receiver
// returned. Once the sender has closed and the last value has been returned,
// Recv returns channel.ErrClosed.
func (r *Receiver[T]) Recv(ctx context.Context) (T, error) {
	var zero T
	if r.closed {
		return zero, channel.ErrClosed
	}

	c := r.cell
	for {
		c.mu.RLock()
		if c.version > r.seen {
			r.seen = c.version
			v := c.value
			c.mu.RUnlock()
			return v, nil
		}
		if c.closed {
			c.mu.RUnlock()
			return zero, channel.ErrClosed
		}
		wait := c.notify
		c.mu.RUnlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Borrow returns the current value without marking it seen.
func (r *Receiver[T]) Borrow() T {
	r.cell.mu.RLock()
	defer r.cell.mu.RUnlock()
	return r.cell.value
}

func (r *Receiver[T]) Clone() *Receiver[T] {
	return &Receiver[T]{cell: r.cell, seen: r.seen, closed: r.closed}
}

// Close detaches this handle. The sender is unaffected.
func (r *Receiver[T]) Close() {
	r.closed = true
}
