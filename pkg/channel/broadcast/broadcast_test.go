package broadcast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ib-77/lifeline/pkg/channel"
)

func TestEveryReceiverSeesEveryMessage(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	tx, rx := New[string](4)
	second := tx.Subscribe()

	require.NoError(t, tx.Send(ctx, "a"))
	require.NoError(t, tx.Send(ctx, "b"))

	for _, r := range []*Receiver[string]{rx, second} {
		v, err := r.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, "a", v)

		v, err = r.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, "b", v)
	}
}

func TestSubscribe_StartsAtTail(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	tx, _ := New[int](4)
	require.NoError(t, tx.Send(ctx, 1))

	late := tx.Subscribe()
	require.NoError(t, tx.Send(ctx, 2))

	v, err := late.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestRecvLag_ReportsSkipped(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	tx, rx := New[int](2)
	for i := range 5 {
		require.NoError(t, tx.Send(ctx, i))
	}

	_, err := rx.RecvLag(ctx)
	require.Error(t, err)
	assert.True(t, channel.IsLagged(err))
	assert.False(t, channel.IsClosed(err))

	var lagged *channel.LaggedError
	require.ErrorAs(t, err, &lagged)
	assert.Equal(t, uint64(3), lagged.Skipped)

	v, err := rx.RecvLag(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestRecv_SkipsLagAndCounts(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	tx, rx := New[int](2)
	for i := range 5 {
		require.NoError(t, tx.Send(ctx, i))
	}

	v, err := rx.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Equal(t, uint64(3), rx.Lagged())
}

func TestRecv_ClosedAfterSendersGone(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	tx, rx := New[int](4)
	clone := tx.Clone()

	require.NoError(t, tx.Send(ctx, 1))
	tx.Close()

	v, err := rx.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	clone.Close()

	_, err = rx.Recv(ctx)
	assert.ErrorIs(t, err, channel.ErrClosed)
}

func TestRecv_WakesOnSend(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	tx, rx := New[int](4)
	got := make(chan int, 1)

	go func() {
		v, err := rx.Recv(ctx)
		if err == nil {
			got <- v
		}
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, tx.Send(ctx, 42))

	select {
	case v := <-got:
		assert.Equal(t, 42, v)
	case <-ctx.Done():
		t.Fatal("receiver was not woken")
	}
}

func TestSend_NoReceivers(t *testing.T) {
	t.Parallel()

	tx, rx := New[int](4)
	rx.Close()

	err := tx.Send(context.Background(), 9)
	assert.ErrorIs(t, err, channel.ErrClosed)
}

func TestRecv_ContextCancelled(t *testing.T) {
	t.Parallel()

	_, rx := New[int](4)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := rx.Recv(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestKind_Subscriber(t *testing.T) {
	t.Parallel()

	k := Kind[int]()
	assert.Equal(t, 16, k.DefaultCapacity())
	assert.Equal(t, channel.Clone, k.TxPolicy())
	assert.Equal(t, channel.Clone, k.RxPolicy())

	sub, ok := k.(channel.Subscriber[*Sender[int], *Receiver[int]])
	require.True(t, ok)

	tx, _ := k.Make(2)
	rx := sub.Subscribe(tx)
	require.NoError(t, tx.Send(context.Background(), 5))

	v, err := rx.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}
