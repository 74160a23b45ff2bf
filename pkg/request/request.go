// Package request carries a value together with a oneshot reply channel, so
// a service can answer the component that asked.
package request

import (
	"context"

	"github.com/ib-77/lifeline/pkg/channel"
	"github.com/ib-77/lifeline/pkg/channel/oneshot"
)

type Request[Req, Resp any] struct {
	value Req
	reply *oneshot.Sender[Resp]
}

// New wraps v and returns the receiver the reply will arrive on.
func New[Req, Resp any](v Req) (Request[Req, Resp], *oneshot.Receiver[Resp]) {
	tx, rx := oneshot.New[Resp]()
	return Request[Req, Resp]{value: v, reply: tx}, rx
}

func (r Request[Req, Resp]) Value() Req {
	return r.value
}

// Reply computes the response with respond and sends it back. It returns a
// *channel.SendError when the requester is gone.
func (r Request[Req, Resp]) Reply(ctx context.Context, respond func(ctx context.Context, v Req) Resp) error {
	return r.reply.Send(ctx, respond(ctx, r.value))
}

// Drop abandons the request. The requester observes channel.ErrClosed.
func (r Request[Req, Resp]) Drop() {
	r.reply.Close()
}

// Call sends a request on tx and waits for the reply.
func Call[Req, Resp any](ctx context.Context, tx channel.Sender[Request[Req, Resp]], v Req) (Resp, error) {
	req, rx := New[Req, Resp](v)
	defer rx.Close()

	if err := tx.Send(ctx, req); err != nil {
		var zero Resp
		return zero, err
	}

	return rx.Recv(ctx)
}
