// Package subscription is a channel kind that tracks a set of subscribed
// ids. Senders submit Subscribe and Unsubscribe requests; receivers watch the
// resulting State, in which every id has a unique index.
//
// The kind runs on its own private bus: an mpsc queue of requests feeds an
// update task that publishes snapshots on a watch.
package subscription

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/ib-77/lifeline/pkg/bus"
	"github.com/ib-77/lifeline/pkg/channel"
	"github.com/ib-77/lifeline/pkg/channel/mpsc"
	"github.com/ib-77/lifeline/pkg/channel/watch"
	"github.com/ib-77/lifeline/pkg/lifeline"
)

const defaultCapacity = 32

type Op int

const (
	OpSubscribe Op = iota
	OpUnsubscribe
)

func (o Op) String() string {
	if o == OpUnsubscribe {
		return "unsubscribe"
	}
	return "subscribe"
}

type Request[T comparable] struct {
	Op Op
	ID T
}

func Subscribe[T comparable](id T) Request[T] {
	return Request[T]{Op: OpSubscribe, ID: id}
}

func Unsubscribe[T comparable](id T) Request[T] {
	return Request[T]{Op: OpUnsubscribe, ID: id}
}

// State is an immutable snapshot of the subscribed ids.
type State[T comparable] struct {
	subscriptions map[T]int
}

func (s State[T]) Contains(id T) bool {
	_, ok := s.subscriptions[id]
	return ok
}

// Get returns the index assigned to id when it was subscribed.
func (s State[T]) Get(id T) (int, bool) {
	i, ok := s.subscriptions[id]
	return i, ok
}

func (s State[T]) Len() int {
	return len(s.subscriptions)
}

// IDs returns the subscribed ids ordered by index.
func (s State[T]) IDs() []T {
	ids := slices.Collect(maps.Keys(s.subscriptions))
	slices.SortFunc(ids, func(a, b T) int {
		return s.subscriptions[a] - s.subscriptions[b]
	})
	return ids
}

type kind[T comparable] struct{}

// Kind returns the subscription channel kind for ids of type T. Both
// endpoints are cloned.
func Kind[T comparable]() channel.Channel[*Sender[T], *Receiver[T]] {
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

func must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("subscription: %v", err))
	}
	return v
}

// New builds a subscription channel and starts its update task. The task
// ends when every Sender is closed.
func New[T comparable](capacity int) (*Sender[T], *Receiver[T]) {
	requests := bus.NewMessage("Subscription", mpsc.Kind[Request[T]]())
	states := bus.NewMessage("SubscriptionState", watch.Kind[State[T]]())

	b := bus.New("subscription")
	defer b.Close()

	if err := bus.Capacity(b, requests, capacity); err != nil {
		panic(fmt.Sprintf("subscription: %v", err))
	}

	update := spawnUpdate(must(bus.Rx(b, requests)), must(bus.Tx(b, states)))

	tx := &Sender[T]{tx: must(bus.Tx(b, requests)), update: update}
	rx := &Receiver[T]{rx: must(bus.Rx(b, states))}

	return tx, rx
}

func spawnUpdate[T comparable](rx *mpsc.Receiver[Request[T]], tx *watch.Sender[State[T]]) *lifeline.Lifeline {
	return lifeline.Try("subscription/update", func(ctx context.Context) (int, error) {
		defer tx.Close()

		subscriptions := map[T]int{}
		next := 0

		for {
			req, err := rx.Recv(ctx)
			if err != nil {
				if channel.IsClosed(err) {
					return len(subscriptions), nil
				}
				return len(subscriptions), err
			}

			_, subscribed := subscriptions[req.ID]
			switch {
			case req.Op == OpSubscribe && !subscribed:
				subscriptions = maps.Clone(subscriptions)
				subscriptions[req.ID] = next
				next++
			case req.Op == OpUnsubscribe && subscribed:
				subscriptions = maps.Clone(subscriptions)
				delete(subscriptions, req.ID)
			default:
				continue
			}

			if err := tx.Send(ctx, State[T]{subscriptions: subscriptions}); err != nil {
				return len(subscriptions), err
			}
		}
	})
}

type Sender[T comparable] struct {
	tx     *mpsc.Sender[Request[T]]
	update *lifeline.Lifeline
}

func (s *Sender[T]) Send(ctx context.Context, req Request[T]) error {
	return s.tx.Send(ctx, req)
}

func (s *Sender[T]) Subscribe(ctx context.Context, id T) error {
	return s.tx.Send(ctx, Subscribe(id))
}

func (s *Sender[T]) Unsubscribe(ctx context.Context, id T) error {
	return s.tx.Send(ctx, Unsubscribe(id))
}

func (s *Sender[T]) Clone() *Sender[T] {
	return &Sender[T]{tx: s.tx.Clone(), update: s.update}
}

func (s *Sender[T]) Close() {
	s.tx.Close()
}

// Done is closed when the update task has exited.
func (s *Sender[T]) Done() <-chan struct{} {
	return s.update.Done()
}

type Receiver[T comparable] struct {
	rx *watch.Receiver[State[T]]
}

// Recv returns the current state on the first call, then waits for changes.
func (r *Receiver[T]) Recv(ctx context.Context) (State[T], error) {
	return r.rx.Recv(ctx)
}

// State returns the latest snapshot without waiting.
func (r *Receiver[T]) State() State[T] {
	return r.rx.Borrow()
}

func (r *Receiver[T]) Contains(id T) bool {
	return r.rx.Borrow().Contains(id)
}

func (r *Receiver[T]) Get(id T) (int, bool) {
	return r.rx.Borrow().Get(id)
}

func (r *Receiver[T]) Clone() *Receiver[T] {
	return &Receiver[T]{rx: r.rx.Clone()}
}

func (r *Receiver[T]) Close() {
	r.rx.Close()
}
