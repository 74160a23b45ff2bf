// Package broadcast is a fan-out kind: every receiver sees every message sent
// after it subscribed, as long as it keeps up with the ring buffer.
//
// A receiver that falls more than capacity messages behind skips the
// overwritten ones. RecvLag reports that as *channel.LaggedError; Recv counts
// it and moves on.
package broadcast

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ib-77/lifeline/pkg/channel"
)

const defaultCapacity = 16

type ring[T any] struct {
	mu        sync.Mutex
	buf       []T
	next      uint64
	senders   int
	receivers int
	notify    chan struct{}
}

func (r *ring[T]) oldest() uint64 {
	size := uint64(len(r.buf))
	if r.next < size {
		return 0
	}
	return r.next - size
}

// wake must be called with mu held.
func (r *ring[T]) wake() {
	close(r.notify)
	r.notify = make(chan struct{})
}

// New constructs a broadcast pair. Capacity below 1 is raised to 1.
func New[T any](capacity int) (*Sender[T], *Receiver[T]) {
	if capacity < 1 {
		capacity = 1
	}

	r := &ring[T]{
		buf:       make([]T, capacity),
		senders:   1,
		receivers: 1,
		notify:    make(chan struct{}),
	}

	return &Sender[T]{ring: r}, &Receiver[T]{ring: r}
}

type kind[T any] struct{}

// Kind returns the channel kind for T. Both endpoints are cloned; a fresh
// receiver is subscribed from the sender once the original one is handed out.
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
	return channel.Clone
}

func (kind[T]) Subscribe(tx *Sender[T]) *Receiver[T] {
	return tx.Subscribe()
}

// Sender publishes to every live receiver.
type Sender[T any] struct {
	ring   *ring[T]
	closed atomic.Bool
}

// Send never blocks on slow receivers. It fails with *channel.SendError when
// no receiver is subscribed.
func (s *Sender[T]) Send(ctx context.Context, v T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed.Load() {
		return &channel.SendError[T]{Value: v}
	}

	r := s.ring
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.receivers == 0 {
		return &channel.SendError[T]{Value: v}
	}

	r.buf[r.next%uint64(len(r.buf))] = v
	r.next++
	r.wake()

	return nil
}

// Subscribe returns a receiver positioned after the latest message.
func (s *Sender[T]) Subscribe() *Receiver[T] {
	r := s.ring
	r.mu.Lock()
	defer r.mu.Unlock()

	r.receivers++
	return &Receiver[T]{ring: r, cursor: r.next}
}

func (s *Sender[T]) Clone() *Sender[T] {
	c := &Sender[T]{ring: s.ring}
	if s.closed.Load() {
		c.closed.Store(true)
		return c
	}

	s.ring.mu.Lock()
	s.ring.senders++
	s.ring.mu.Unlock()

	return c
}

// Close releases the handle. Receivers observe channel.ErrClosed after the
// last sender closes and they have read everything still buffered.
func (s *Sender[T]) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	r := s.ring
	r.mu.Lock()
	r.senders--
	if r.senders == 0 {
		r.wake()
	}
	r.mu.Unlock()
}

// Receiver reads its own cursor into the shared ring. A single receiver is
// not safe for concurrent use; clone it instead.
type Receiver[T any] struct {
	ring   *ring[T]
	cursor uint64
	lagged uint64
	closed bool
}

// RecvLag is Recv without lag recovery: a receiver that fell behind gets a
// *channel.LaggedError once and resumes from the oldest retained message.
func (r *Receiver[T]) RecvLag(ctx context.Context) (T, error) {
	var zero T
	if r.closed {
		return zero, channel.ErrClosed
	}

	ring := r.ring
	for {
		ring.mu.Lock()

		if oldest := ring.oldest(); r.cursor < oldest {
			skipped := oldest - r.cursor
			r.cursor = oldest
			ring.mu.Unlock()
			return zero, &channel.LaggedError{Skipped: skipped}
		}

		if r.cursor < ring.next {
			v := ring.buf[r.cursor%uint64(len(ring.buf))]
			r.cursor++
			ring.mu.Unlock()
			return v, nil
		}

		if ring.senders == 0 {
			ring.mu.Unlock()
			return zero, channel.ErrClosed
		}

		wait := ring.notify
		ring.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Recv returns the next message, skipping past any lag.
func (r *Receiver[T]) Recv(ctx context.Context) (T, error) {
	for {
		v, err := r.RecvLag(ctx)
		if lagged, ok := err.(*channel.LaggedError); ok {
			r.lagged += lagged.Skipped
			channel.Logger().Debug("broadcast receiver lagged", "skipped", lagged.Skipped)
			continue
		}
		return v, err
	}
}

// Lagged is the total number of messages Recv skipped.
func (r *Receiver[T]) Lagged() uint64 {
	return r.lagged
}

// Clone subscribes a new receiver at the same cursor.
func (r *Receiver[T]) Clone() *Receiver[T] {
	ring := r.ring
	ring.mu.Lock()
	defer ring.mu.Unlock()

	c := &Receiver[T]{ring: ring, cursor: r.cursor, closed: r.closed}
	if !r.closed {
		ring.receivers++
	}
	return c
}

// Close unsubscribes. When no receiver remains, Send fails.
func (r *Receiver[T]) Close() {
	if r.closed {
		return
	}
	r.closed = true

	r.ring.mu.Lock()
	r.ring.receivers--
	r.ring.mu.Unlock()
}
