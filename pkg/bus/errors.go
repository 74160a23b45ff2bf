package bus

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyLinked is returned when a capacity override or a manual store
	// comes after the channel was built.
	ErrAlreadyLinked = errors.New("channel already linked")
	// ErrPartialTake is returned for an endpoint half that was never stored,
	// usually a channel kind paired with the wrong access pattern.
	ErrPartialTake = errors.New("link was never stored")
	// ErrAlreadyTaken is returned when a take-policy endpoint was handed out
	// before.
	ErrAlreadyTaken = errors.New("link already taken")

	ErrResourceUninitialized = errors.New("resource uninitialized")
	ErrResourceTaken         = errors.New("resource already taken")

	// ErrBusClosed is returned by every acquisition after Close.
	ErrBusClosed = errors.New("bus closed")
)

// Link names the endpoint half an error refers to.
type Link int

const (
	LinkTx Link = iota
	LinkRx
	LinkBoth
)

func (l Link) String() string {
	switch l {
	case LinkTx:
		return "Tx"
	case LinkRx:
		return "Rx"
	case LinkBoth:
		return "Tx/Rx"
	default:
		return fmt.Sprintf("Link(%d)", int(l))
	}
}

type ChannelError struct {
	Bus     string
	Message string
	Link    Link
	Err     error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("%s: %s < %s::%s >", e.Err, e.Bus, e.Message, e.Link)
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}

type ResourceError struct {
	Bus      string
	Resource string
	Err      error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s: %s < %s >", e.Err, e.Bus, e.Resource)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

func channelState(state slotState) error {
	if state == slotTaken {
		return ErrAlreadyTaken
	}
	return ErrPartialTake
}

func resourceState(state slotState) error {
	if state == slotTaken {
		return ErrResourceTaken
	}
	return ErrResourceUninitialized
}
