// Package service composes buses and lifelines into running components.
//
// A carrier reads from one receiver, transforms each value, and writes to a
// sender, usually taken from a different bus. It runs under a lifeline and
// stops when the source ends, the destination goes away, or it is cancelled.
package service
