// Package combine wraps receivers: Map and Filter transform a stream as it
// is read, Merge and MergeFrom fan several streams into one, and Logged
// reports every receive.
//
// Every wrapper is itself a channel.Receiver and forwards Close to what it
// wraps.
package combine
