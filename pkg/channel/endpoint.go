package channel

import "context"

// Sender is the unified send half.
type Sender[T any] interface {
	// Send delivers v, blocking while the channel is full. It returns a
	// *SendError carrying v if the receiving side is gone, or ctx.Err().
	Send(ctx context.Context, v T) error
}

// Receiver is the unified receive half.
type Receiver[T any] interface {
	// Recv blocks until a value arrives. ErrClosed marks the end of the
	// stream; a cancelled ctx returns ctx.Err().
	Recv(ctx context.Context) (T, error)
}

// SendCloser is a Sender that also releases its handle.
type SendCloser[T any] interface {
	Sender[T]
	Closer
}

// ReceiveCloser is a Receiver that also releases its handle.
type ReceiveCloser[T any] interface {
	Receiver[T]
	Closer
}
