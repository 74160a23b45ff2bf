package bus

import (
	"fmt"
	"sync/atomic"

	"github.com/ib-77/lifeline/pkg/channel"
)

var identitySeq atomic.Uint64

// Identity addresses one slot. Two descriptors declared with the same name
// are still distinct identities.
type Identity struct {
	name string
	seq  uint64
}

func newIdentity(name string) Identity {
	return Identity{name: name, seq: identitySeq.Add(1)}
}

func (id Identity) Name() string {
	return id.name
}

func (id Identity) String() string {
	return id.name
}

// Message binds a name to a channel kind.
type Message[Tx, Rx any] struct {
	id   Identity
	kind channel.Channel[Tx, Rx]
}

// NewMessage declares a message. It panics if a Clone-policy endpoint cannot
// be cloned, since that is a programming error in the declaration.
func NewMessage[Tx, Rx any](name string, kind channel.Channel[Tx, Rx]) Message[Tx, Rx] {
	if kind == nil {
		panic(fmt.Sprintf("bus: message %s declared without a channel kind", name))
	}

	if kind.TxPolicy() == channel.Clone {
		var tx Tx
		if _, ok := any(tx).(channel.Cloner[Tx]); !ok {
			panic(fmt.Sprintf("bus: message %s: Tx %T has clone policy but no Clone method", name, tx))
		}
	}

	if kind.RxPolicy() == channel.Clone {
		var rx Rx
		_, cloner := any(rx).(channel.Cloner[Rx])
		_, subscriber := kind.(channel.Subscriber[Tx, Rx])
		if !cloner && !subscriber {
			panic(fmt.Sprintf("bus: message %s: Rx %T has clone policy but no Clone method", name, rx))
		}
	}

	return Message[Tx, Rx]{id: newIdentity(name), kind: kind}
}

func (m Message[Tx, Rx]) ID() Identity {
	return m.id
}

func (m Message[Tx, Rx]) Name() string {
	return m.id.name
}

func (m Message[Tx, Rx]) Kind() channel.Channel[Tx, Rx] {
	return m.kind
}

// Resource is a single shared or exclusive value stored on a bus.
type Resource[R any] struct {
	id     Identity
	policy channel.Policy
}

func NewResource[R any](name string, policy channel.Policy) Resource[R] {
	return Resource[R]{id: newIdentity(name), policy: policy}
}

func (r Resource[R]) ID() Identity {
	return r.id
}

func (r Resource[R]) Name() string {
	return r.id.name
}

func (r Resource[R]) Policy() channel.Policy {
	return r.policy
}
