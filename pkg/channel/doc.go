// Package channel defines the contract shared by every channel kind that can
// be carried on a bus: how a (Tx, Rx) pair is constructed from a capacity hint,
// and whether each endpoint is cloned or taken when a component asks for it.
//
// Concrete kinds live in subpackages:
// - mpsc: bounded multi-producer queue (Tx clone, Rx take)
// - broadcast: multi-consumer fan-out with lag detection (Tx clone, Rx clone)
// - watch: latest value (Tx take, Rx clone)
// - oneshot: single value (Tx take, Rx take)
// - barrier: release fence (Tx take, Rx clone)
//
// All endpoints speak the unified Sender / Receiver interfaces, so tasks and
// combinators do not care which kind backs a message.
package channel
