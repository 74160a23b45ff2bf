package mpsc

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ib-77/lifeline/pkg/channel"
)

func TestSendRecv_Order(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	tx, rx := New[int](4)
	for i := range 4 {
		require.NoError(t, tx.Send(ctx, i))
	}

	for i := range 4 {
		v, err := rx.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
}

func TestClonedSenders_ConcurrentUse(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	tx, rx := New[int](8)
	wg := &sync.WaitGroup{}

	for i := range 10 {
		clone := tx.Clone()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer clone.Close()
			assert.NoError(t, clone.Send(ctx, i))
		}()
	}
	tx.Close()

	sum := 0
	for {
		v, err := rx.Recv(ctx)
		if err != nil {
			assert.ErrorIs(t, err, channel.ErrClosed)
			break
		}
		sum += v
	}
	wg.Wait()

	assert.Equal(t, 45, sum)
}

func TestRecv_ClosedAfterAllSendersClose(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	tx, rx := New[string](2)
	other := tx.Clone()

	require.NoError(t, tx.Send(ctx, "buffered"))
	tx.Close()

	v, err := rx.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "buffered", v)

	done := make(chan error, 1)
	go func() {
		_, err := rx.Recv(ctx)
		done <- err
	}()

	other.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, channel.ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("receiver did not observe closure")
	}
}

func TestSend_ReceiverGone(t *testing.T) {
	t.Parallel()

	tx, rx := New[int](1)
	rx.Close()

	err := tx.Send(context.Background(), 7)
	require.Error(t, err)
	assert.ErrorIs(t, err, channel.ErrClosed)

	var sendErr *channel.SendError[int]
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, 7, sendErr.Value)
}

func TestSend_ContextCancelledWhileFull(t *testing.T) {
	t.Parallel()

	tx, _ := New[int](1)
	require.NoError(t, tx.TrySend(1))
	assert.ErrorIs(t, tx.TrySend(2), ErrFull)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, tx.Send(ctx, 2), context.DeadlineExceeded)
}

func TestCloneOfClosedSender_StaysClosed(t *testing.T) {
	t.Parallel()

	tx, rx := New[int](1)
	tx.Close()
	clone := tx.Clone()

	assert.ErrorIs(t, clone.Send(context.Background(), 1), channel.ErrClosed)

	_, err := rx.TryRecv()
	assert.ErrorIs(t, err, channel.ErrClosed)
}

func TestKind_Policies(t *testing.T) {
	t.Parallel()

	k := Kind[int]()
	assert.Equal(t, 16, k.DefaultCapacity())
	assert.Equal(t, channel.Clone, k.TxPolicy())
	assert.Equal(t, channel.Take, k.RxPolicy())

	tx, rx := k.Make(3)
	require.NoError(t, tx.TrySend(1))
	assert.Equal(t, 1, rx.Len())
}
