package channel

import "fmt"

// Policy says how an endpoint is handed out on reacquisition.
type Policy int

const (
	// Take removes the endpoint from the bus. Later requests fail.
	Take Policy = iota
	// Clone returns a new handle and leaves the stored endpoint in place.
	Clone
)

func (p Policy) String() string {
	switch p {
	case Take:
		return "take"
	case Clone:
		return "clone"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Channel is implemented by every channel kind. Endpoint policy is a property
// of the kind, not of a particular message, so the bus applies one algorithm
// to every identity.
type Channel[Tx, Rx any] interface {
	// Make constructs a new pair. Bounded kinds use capacity, others ignore it.
	Make(capacity int) (Tx, Rx)

	// DefaultCapacity is used when no override was configured. Kinds with no
	// capacity concept report 1.
	DefaultCapacity() int

	TxPolicy() Policy
	RxPolicy() Policy
}

// Cloner is implemented by endpoints and resources with the Clone policy.
type Cloner[T any] interface {
	Clone() T
}

// Subscriber is implemented by kinds whose receivers are derived from the
// sender (broadcast style). When the stored receiver has been handed out the
// bus subscribes a fresh one from the stored sender.
type Subscriber[Tx, Rx any] interface {
	Subscribe(tx Tx) Rx
}

// Closer is implemented by every endpoint in this module.
type Closer interface {
	Close()
}
