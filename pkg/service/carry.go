package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ib-77/lifeline/pkg/bus"
	"github.com/ib-77/lifeline/pkg/channel"
	"github.com/ib-77/lifeline/pkg/codec"
	"github.com/ib-77/lifeline/pkg/lifeline"
)

type carryOptions struct {
	logger   *slog.Logger
	lifeline []lifeline.Option
}

type Option func(*carryOptions)

func WithLogger(l *slog.Logger) Option {
	return func(o *carryOptions) {
		o.logger = l
		o.lifeline = append(o.lifeline, lifeline.WithLogger(l))
	}
}

// WithLifelineOptions passes options to the lifeline the carrier runs under.
func WithLifelineOptions(opts ...lifeline.Option) Option {
	return func(o *carryOptions) {
		o.lifeline = append(o.lifeline, opts...)
	}
}

// Carry spawns a carrier from rx to tx. When fn reports ok=false the value is
// dropped. The carrier closes both endpoints when it stops, so downstream
// receivers see the end of the stream.
func Carry[In, Out any](name string, rx channel.Receiver[In], tx channel.Sender[Out],
	fn func(ctx context.Context, in In) (Out, bool, error), opts ...Option) *lifeline.Lifeline {
	return CarryWithHandlers(name, rx, tx, fn, Handlers[In, Out]{}, opts...)
}

func CarryWithHandlers[In, Out any](name string, rx channel.Receiver[In], tx channel.Sender[Out],
	fn func(ctx context.Context, in In) (Out, bool, error), handlers Handlers[In, Out], opts ...Option) *lifeline.Lifeline {
	o := carryOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	log := o.logger.With("carrier", name)

	return lifeline.Try(name, func(ctx context.Context) (struct{}, error) {
		defer release(rx)
		defer release(tx)

		log.Info("carrier started")
		err := pump(ctx, rx, tx, fn, handlers, log)
		log.Info("carrier stopped")
		return struct{}{}, err
	}, o.lifeline...)
}

func release(endpoint any) {
	if c, ok := endpoint.(channel.Closer); ok {
		c.Close()
	}
}

// CarryFrom acquires the receiver of fromMsg on from and the sender of
// intoMsg on into, then spawns Carry between them. Wiring errors are returned
// before anything is spawned; an endpoint acquired before the failure is
// closed again.
func CarryFrom[FTx any, FRx channel.Receiver[In], ITx channel.Sender[Out], IRx any, In, Out any](
	from *bus.Bus, fromMsg bus.Message[FTx, FRx],
	into *bus.Bus, intoMsg bus.Message[ITx, IRx],
	fn func(ctx context.Context, in In) (Out, bool, error), opts ...Option) (*lifeline.Lifeline, error) {

	rx, err := bus.Rx(from, fromMsg)
	if err != nil {
		return nil, fmt.Errorf("carrier source: %w", err)
	}

	tx, err := bus.Tx(into, intoMsg)
	if err != nil {
		release(rx)
		return nil, fmt.Errorf("carrier destination: %w", err)
	}

	name := fmt.Sprintf("%s/%s->%s/%s", from.Name(), fromMsg.Name(), into.Name(), intoMsg.Name())
	return Carry[In, Out](name, rx, tx, fn, opts...), nil
}

// Identity forwards every value unchanged.
func Identity[T any]() func(ctx context.Context, in T) (T, bool, error) {
	return func(_ context.Context, in T) (T, bool, error) {
		return in, true, nil
	}
}

// Copied wraps fn so its outputs are deep copies that share no memory with
// what fn returned.
func Copied[In, Out any](fn func(ctx context.Context, in In) (Out, bool, error)) func(ctx context.Context, in In) (Out, bool, error) {
	return func(ctx context.Context, in In) (Out, bool, error) {
		out, ok, err := fn(ctx, in)
		if err != nil || !ok {
			return out, ok, err
		}

		copied, err := codec.DeepCopy(out)
		if err != nil {
			return out, false, err
		}
		return copied, true, nil
	}
}
