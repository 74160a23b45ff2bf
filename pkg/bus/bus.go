package bus

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ib-77/lifeline/pkg/channel"
	"github.com/ib-77/lifeline/pkg/config"
)

// Bus groups one registry under a name. It is safe for concurrent use and is
// shared by reference between the components attached to it.
type Bus struct {
	name    string
	storage *Storage
	logger  *slog.Logger
}

type Option func(*Bus)

func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = l
	}
}

// WithConfig applies per-message capacities. An explicit Capacity call for a
// message takes precedence.
func WithConfig(cfg config.BusConfig) Option {
	return func(b *Bus) {
		for name, n := range cfg.Capacity {
			b.storage.configured[name] = n
		}
	}
}

func New(name string, opts ...Option) *Bus {
	b := &Bus{
		name:    name,
		storage: NewStorage(),
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.logger == nil {
		b.logger = defaultLogger()
	}
	b.logger = b.logger.With("bus", name)

	return b
}

func (b *Bus) Name() string {
	return b.name
}

func (b *Bus) Logger() *slog.Logger {
	return b.logger
}

// Linked reports whether a message with this name has been built or stored.
func (b *Bus) Linked(name string) bool {
	return b.storage.linked(name)
}

func (b *Bus) String() string {
	names := b.storage.names()
	if len(names) == 0 {
		return b.name + " < >"
	}
	return fmt.Sprintf("%s < %s >", b.name, strings.Join(names, ", "))
}

// Close releases every endpoint and resource still held by the bus. Receivers
// see the end of the stream once the senders held by components are closed
// too. Later acquisitions fail with ErrBusClosed.
func (b *Bus) Close() {
	closers := b.storage.close()
	for _, c := range closers {
		c()
	}
	b.logger.Debug("bus closed", "released", len(closers))
}

func (b *Bus) channelError(id Identity, link Link, err error) error {
	return &ChannelError{Bus: b.name, Message: id.name, Link: link, Err: err}
}

func (b *Bus) resourceError(id Identity, err error) error {
	return &ResourceError{Bus: b.name, Resource: id.name, Err: err}
}

func link[Tx, Rx any](b *Bus, msg Message[Tx, Rx], side Link) error {
	construct := func(capacity int) (any, any) {
		return msg.kind.Make(capacity)
	}

	capacity, built, err := b.storage.link(msg.id, construct, msg.kind.DefaultCapacity())
	if err != nil {
		return b.channelError(msg.id, side, err)
	}
	if built {
		b.logger.Debug("channel linked", "message", msg.id.name, "capacity", capacity)
	}
	return nil
}

// Tx acquires the send half of msg, building the channel on first use.
func Tx[Tx, Rx any](b *Bus, msg Message[Tx, Rx]) (Tx, error) {
	var tx Tx
	if err := link(b, msg, LinkTx); err != nil {
		return tx, err
	}

	policy := msg.kind.TxPolicy()
	err := b.storage.withSlots(msg.id, func(txSlot, _ *slot) error {
		if policy == channel.Take {
			v, state := txSlot.take()
			if state != slotPresent {
				return channelState(state)
			}
			tx = v.(Tx)
			return nil
		}

		v, ok := txSlot.peek()
		if !ok {
			return channelState(txSlot.state)
		}
		tx = v.(channel.Cloner[Tx]).Clone()
		return nil
	})
	if err != nil {
		return tx, b.channelError(msg.id, LinkTx, err)
	}

	return tx, nil
}

// Rx acquires the receive half of msg, building the channel on first use.
// Kinds that subscribe receivers from the sender hand out the stored receiver
// first and subscribe new ones after that.
func Rx[Tx, Rx any](b *Bus, msg Message[Tx, Rx]) (Rx, error) {
	var rx Rx
	if err := link(b, msg, LinkRx); err != nil {
		return rx, err
	}

	policy := msg.kind.RxPolicy()
	subscriber, subscribes := msg.kind.(channel.Subscriber[Tx, Rx])

	err := b.storage.withSlots(msg.id, func(txSlot, rxSlot *slot) error {
		switch {
		case policy == channel.Take:
			v, state := rxSlot.take()
			if state != slotPresent {
				return channelState(state)
			}
			rx = v.(Rx)
			return nil

		case subscribes:
			if v, state := rxSlot.take(); state == slotPresent {
				rx = v.(Rx)
				return nil
			}
			v, ok := txSlot.peek()
			if !ok {
				return channelState(txSlot.state)
			}
			rx = subscriber.Subscribe(v.(Tx))
			return nil

		default:
			v, ok := rxSlot.peek()
			if !ok {
				return channelState(rxSlot.state)
			}
			rx = v.(channel.Cloner[Rx]).Clone()
			return nil
		}
	})
	if err != nil {
		return rx, b.channelError(msg.id, LinkRx, err)
	}

	return rx, nil
}

// Capacity overrides the capacity msg is built with. It fails with
// ErrAlreadyLinked once the channel exists.
func Capacity[Tx, Rx any](b *Bus, msg Message[Tx, Rx], n int) error {
	if err := b.storage.setCapacity(msg.id, n); err != nil {
		return b.channelError(msg.id, LinkBoth, err)
	}
	return nil
}

// StoreTx links msg with an externally built sender. Acquiring Rx afterwards
// fails with ErrPartialTake.
func StoreTx[Tx, Rx any](b *Bus, msg Message[Tx, Rx], tx Tx) error {
	txSlot := &slot{}
	txSlot.put(tx)

	if err := b.storage.store(msg.id, txSlot, &slot{}); err != nil {
		return b.channelError(msg.id, LinkTx, err)
	}
	b.logger.Debug("channel stored", "message", msg.id.name, "link", LinkTx)
	return nil
}

// StoreRx links msg with an externally built receiver.
func StoreRx[Tx, Rx any](b *Bus, msg Message[Tx, Rx], rx Rx) error {
	rxSlot := &slot{}
	rxSlot.put(rx)

	if err := b.storage.store(msg.id, &slot{}, rxSlot); err != nil {
		return b.channelError(msg.id, LinkRx, err)
	}
	b.logger.Debug("channel stored", "message", msg.id.name, "link", LinkRx)
	return nil
}

// StoreChannel links msg with an externally built pair.
func StoreChannel[Tx, Rx any](b *Bus, msg Message[Tx, Rx], tx Tx, rx Rx) error {
	txSlot, rxSlot := &slot{}, &slot{}
	txSlot.put(tx)
	rxSlot.put(rx)

	if err := b.storage.store(msg.id, txSlot, rxSlot); err != nil {
		return b.channelError(msg.id, LinkBoth, err)
	}
	b.logger.Debug("channel stored", "message", msg.id.name, "link", LinkBoth)
	return nil
}

// StoreResource puts v on the bus, replacing any previous value.
func StoreResource[R any](b *Bus, res Resource[R], v R) error {
	if err := b.storage.putResource(res.id, v); err != nil {
		return b.resourceError(res.id, err)
	}
	b.logger.Debug("resource stored", "resource", res.id.name)
	return nil
}

// TakeResource returns the resource. With the Clone policy the value stays on
// the bus and callers get Clone() if R implements it, a copy otherwise.
func TakeResource[R any](b *Bus, res Resource[R]) (R, error) {
	var r R
	err := b.storage.withResource(res.id, func(sl *slot) error {
		if res.policy == channel.Take {
			v, state := sl.take()
			if state != slotPresent {
				return resourceState(state)
			}
			r = v.(R)
			return nil
		}

		v, ok := sl.peek()
		if !ok {
			return resourceState(sl.state)
		}
		if c, ok := v.(channel.Cloner[R]); ok {
			r = c.Clone()
			return nil
		}
		r = v.(R)
		return nil
	})
	if err != nil {
		return r, b.resourceError(res.id, err)
	}

	return r, nil
}
