// Package testutil holds timeout safety valves shared by package tests. All
// helpers fail the test instead of returning errors.
package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ib-77/lifeline/pkg/channel"
)

// DefaultTimeout is the budget for work that should finish within a
// scheduling step, such as a cancelled task unwinding.
const DefaultTimeout = 50 * time.Millisecond

func timeoutOf(timeout []time.Duration) time.Duration {
	if len(timeout) > 0 {
		return timeout[0]
	}
	return DefaultTimeout
}

// RequireCompletes waits for done to close.
//
//	testutil.RequireCompletes(t, handle.Done())
func RequireCompletes(t testing.TB, done <-chan struct{}, timeout ...time.Duration) {
	t.Helper()

	d := timeoutOf(timeout)
	select {
	case <-done:
	case <-time.After(d):
		require.FailNowf(t, "did not complete", "timed out after %v", d)
	}
}

// RequirePending asserts that done stays open for the whole timeout.
func RequirePending(t testing.TB, done <-chan struct{}, timeout ...time.Duration) {
	t.Helper()

	select {
	case <-done:
		require.FailNow(t, "completed early")
	case <-time.After(timeoutOf(timeout)):
	}
}

// RequireReceive reads one value from rx.
func RequireReceive[T any](t testing.TB, rx channel.Receiver[T], timeout ...time.Duration) T {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeoutOf(timeout))
	defer cancel()

	v, err := rx.Recv(ctx)
	require.NoError(t, err, "receiving value")
	return v
}

// RequireClosed asserts that rx reports the end of its stream.
func RequireClosed[T any](t testing.TB, rx channel.Receiver[T], timeout ...time.Duration) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeoutOf(timeout))
	defer cancel()

	v, err := rx.Recv(ctx)
	if errors.Is(err, channel.ErrClosed) {
		return
	}
	require.FailNowf(t, "channel not closed", "got value %v, error %v", v, err)
}
