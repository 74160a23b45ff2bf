// Package bus is a registry of typed channels and resources shared by the
// components of one process.
//
// Messages and resources are declared once, usually as package variables:
//
//	var Greeting = bus.NewMessage("Greeting", mpsc.Kind[string]())
//	var Heartbeat = bus.NewMessage("Heartbeat", broadcast.Kind[struct{}]())
//
// A component acquires its endpoints when it is constructed:
//
//	tx, err := bus.Tx(b, Greeting)
//	rx, err := bus.Rx(b, Greeting)
//
// The channel behind a message is built on first use. Whether an endpoint is
// cloned or taken is decided by the channel kind. Acquisition never blocks
// and reports wiring mistakes as errors, so they surface at startup rather
// than while messages are flowing.
package bus
