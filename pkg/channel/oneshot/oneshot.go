// Package oneshot carries exactly one value from one sender to one receiver.
package oneshot

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ib-77/lifeline/pkg/channel"
)

type state[T any] struct {
	value chan T

	senderGone chan struct{}
	senderOnce sync.Once

	receiverGone chan struct{}
	receiverOnce sync.Once
}

func New[T any]() (*Sender[T], *Receiver[T]) {
	s := &state[T]{
		value:        make(chan T, 1),
		senderGone:   make(chan struct{}),
		receiverGone: make(chan struct{}),
	}

	return &Sender[T]{state: s}, &Receiver[T]{state: s}
}

type kind[T any] struct{}

// Kind returns the channel kind for T. Both endpoints are taken.
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
	return channel.Take
}

type Sender[T any] struct {
	state *state[T]
	used  atomic.Bool
}

// Send delivers v. Only the first call succeeds; it never blocks.
func (s *Sender[T]) Send(ctx context.Context, v T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case <-s.state.receiverGone:
		return &channel.SendError[T]{Value: v}
	default:
	}

	if !s.used.CompareAndSwap(false, true) {
		return &channel.SendError[T]{Value: v}
	}

	s.state.value <- v
	s.Close()

	return nil
}

// Close drops the sender. A receiver still waiting gets channel.ErrClosed.
func (s *Sender[T]) Close() {
	s.used.Store(true)
	s.state.senderOnce.Do(func() { close(s.state.senderGone) })
}

type Receiver[T any] struct {
	state *state[T]
	done  bool
}

// Recv waits for the value. Any call after the value was delivered returns
// channel.ErrClosed.
func (r *Receiver[T]) Recv(ctx context.Context) (T, error) {
	var zero T
	if r.done {
		return zero, channel.ErrClosed
	}

	select {
	case v := <-r.state.value:
		r.done = true
		return v, nil
	case <-r.state.senderGone:
		r.done = true
		select {
		case v := <-r.state.value:
			return v, nil
		default:
			return zero, channel.ErrClosed
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Close tells the sender nobody is listening.
func (r *Receiver[T]) Close() {
	r.done = true
	r.state.receiverOnce.Do(func() { close(r.state.receiverGone) })
}
