package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ib-77/lifeline/pkg/channel"
)

// Handlers observe a carrier loop. OnCancelUnprocessed gets a value received
// before cancellation but not transformed, OnCancelProcessed a transformed
// value that could not be sent.
type Handlers[In, Out any] struct {
	OnCancel            func(ctx context.Context)
	OnCancelUnprocessed func(ctx context.Context, in In)
	OnCancelProcessed   func(ctx context.Context, in In, out Out)
	OnSuccess           func(ctx context.Context, out Out)
}

func (h Handlers[In, Out]) cancel(ctx context.Context) {
	if h.OnCancel != nil {
		h.OnCancel(ctx)
	}
}

// pump moves values from rx to tx until one of them closes or ctx ends. The
// end of either stream is a normal stop and returns nil.
func pump[In, Out any](ctx context.Context, rx channel.Receiver[In], tx channel.Sender[Out],
	fn func(ctx context.Context, in In) (Out, bool, error),
	handlers Handlers[In, Out], log *slog.Logger) error {

	for {
		in, err := rx.Recv(ctx)
		switch {
		case err == nil:
		case errors.Is(err, channel.ErrClosed):
			log.Debug("carrier source closed")
			return nil
		case ctx.Err() != nil:
			handlers.cancel(ctx)
			return ctx.Err()
		default:
			return fmt.Errorf("receive: %w", err)
		}

		if ctx.Err() != nil {
			if handlers.OnCancelUnprocessed != nil {
				handlers.OnCancelUnprocessed(ctx, in)
			}
			handlers.cancel(ctx)
			return ctx.Err()
		}

		out, ok, err := fn(ctx, in)
		if err != nil {
			return fmt.Errorf("transform: %w", err)
		}
		if !ok {
			continue
		}

		if err := tx.Send(ctx, out); err != nil {
			if errors.Is(err, channel.ErrClosed) {
				log.Debug("carrier destination closed")
				return nil
			}
			if ctx.Err() != nil {
				if handlers.OnCancelProcessed != nil {
					handlers.OnCancelProcessed(ctx, in, out)
				}
				handlers.cancel(ctx)
				return ctx.Err()
			}
			return fmt.Errorf("send: %w", err)
		}

		if handlers.OnSuccess != nil {
			handlers.OnSuccess(ctx, out)
		}
	}
}
