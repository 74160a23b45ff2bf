// Package mpsc is a bounded multi-producer, single-consumer queue kind.
//
// Senders are cloned (many holders), the receiver is taken (one holder). The
// stream ends for the receiver once every sender handle has been closed.
package mpsc

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/ib-77/lifeline/pkg/channel"
)

const defaultCapacity = 16

var (
	// ErrFull is returned by TrySend when the queue has no free slot.
	ErrFull = errors.New("mpsc: queue full")
	// ErrEmpty is returned by TryRecv when no value is buffered.
	ErrEmpty = errors.New("mpsc: queue empty")
)

type state[T any] struct {
	queue chan T

	senders   atomic.Int64
	drained   chan struct{}
	drainOnce sync.Once

	receiverGone chan struct{}
	receiverOnce sync.Once
}

// New constructs a queue. A capacity of zero gives an unbuffered handoff.
func New[T any](capacity int) (*Sender[T], *Receiver[T]) {
	if capacity < 0 {
		capacity = 0
	}

	s := &state[T]{
		queue:        make(chan T, capacity),
		drained:      make(chan struct{}),
		receiverGone: make(chan struct{}),
	}
	s.senders.Store(1)

	return &Sender[T]{state: s}, &Receiver[T]{state: s}
}

type kind[T any] struct{}

// Kind returns the channel kind for T. Tx is cloned, Rx is taken.
func Kind[T any]() channel.Channel[*Sender[T], *Receiver[T]] {
	return kind[T]{}
}

func (kind[T]) Make(capacity int) (*Sender[T], *Receiver[T]) {
	return New[T](capacity)
}

func (kind[T]) DefaultCapacity() int {
	return defaultCapacity
}

func (kind[T]) TxPolicy() channel.Policy {
	return channel.Clone
}

func (kind[T]) RxPolicy() channel.Policy {
	return channel.Take
}

// Sender is a cloneable handle. Each handle must be closed once.
type Sender[T any] struct {
	state  *state[T]
	closed atomic.Bool
}

// Send blocks until the value is queued, the receiver goes away, or ctx ends.
func (s *Sender[T]) Send(ctx context.Context, v T) error {
	if s.closed.Load() {
		return &channel.SendError[T]{Value: v}
	}

	select {
	case <-s.state.receiverGone:
		return &channel.SendError[T]{Value: v}
	default:
	}

	select {
	case s.state.queue <- v:
		return nil
	case <-s.state.receiverGone:
		return &channel.SendError[T]{Value: v}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySend queues v without blocking.
func (s *Sender[T]) TrySend(v T) error {
	if s.closed.Load() {
		return &channel.SendError[T]{Value: v}
	}

	select {
	case <-s.state.receiverGone:
		return &channel.SendError[T]{Value: v}
	default:
	}

	select {
	case s.state.queue <- v:
		return nil
	default:
		return ErrFull
	}
}

// Clone returns a new handle on the same queue. Cloning a closed handle
// returns a closed handle.
func (s *Sender[T]) Clone() *Sender[T] {
	c := &Sender[T]{state: s.state}
	if s.closed.Load() {
		c.closed.Store(true)
		return c
	}

	s.state.senders.Add(1)
	return c
}

// Close releases this handle. When the last handle closes, the receiver
// drains the buffer and then observes channel.ErrClosed.
func (s *Sender[T]) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	if s.state.senders.Add(-1) == 0 {
		s.state.drainOnce.Do(func() { close(s.state.drained) })
	}
}

// Receiver is the exclusive consuming handle.
type Receiver[T any] struct {
	state *state[T]
}

// Recv returns the next value. Buffered values are delivered before
// channel.ErrClosed.
func (r *Receiver[T]) Recv(ctx context.Context) (T, error) {
	select {
	case v := <-r.state.queue:
		return v, nil
	default:
	}

	select {
	case v := <-r.state.queue:
		return v, nil
	case <-r.state.drained:
		return r.drain()
	case <-r.state.receiverGone:
		return r.drain()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// TryRecv returns a buffered value without blocking.
func (r *Receiver[T]) TryRecv() (T, error) {
	select {
	case v := <-r.state.queue:
		return v, nil
	default:
	}

	select {
	case <-r.state.drained:
		return r.drain()
	case <-r.state.receiverGone:
		return r.drain()
	default:
		var zero T
		return zero, ErrEmpty
	}
}

func (r *Receiver[T]) drain() (T, error) {
	select {
	case v := <-r.state.queue:
		return v, nil
	default:
		var zero T
		return zero, channel.ErrClosed
	}
}

// Len reports the number of buffered values.
func (r *Receiver[T]) Len() int {
	return len(r.state.queue)
}

// Close stops further sends. Values already buffered can still be received.
func (r *Receiver[T]) Close() {
	r.state.receiverOnce.Do(func() { close(r.state.receiverGone) })
}
