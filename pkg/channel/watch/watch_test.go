package watch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ib-77/lifeline/pkg/channel"
)

func TestRecv_FirstCallReturnsCurrent(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, rx := New("idle")

	v, err := rx.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "idle", v)
}

func TestRecv_LatestValueWins(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	tx, rx := New(0)
	_, err := rx.Recv(ctx)
	require.NoError(t, err)

	require.NoError(t, tx.Send(ctx, 1))
	require.NoError(t, tx.Send(ctx, 2))
	require.NoError(t, tx.Send(ctx, 3))

	v, err := rx.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Equal(t, 3, tx.Borrow())
}

func TestRecv_BlocksUntilChange(t *testing.T) {
	t.Parallel()

	tx, rx := New(0)
	_, err := rx.Recv(context.Background())
	require.NoError(t, err)

	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = rx.Recv(short)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, tx.Send(context.Background(), 9))
	v, err := rx.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, v)
}

func TestClone_IndependentCursor(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	tx, rx := New("a")
	_, err := rx.Recv(ctx)
	require.NoError(t, err)

	clone := rx.Clone()
	require.NoError(t, tx.Send(ctx, "b"))

	v, err := rx.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", v)

	v, err = clone.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", v)
}

func TestSenderClose_EndsStream(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	tx, rx := New(1)
	_, err := rx.Recv(ctx)
	require.NoError(t, err)
	tx.Close()

	_, err = rx.Recv(ctx)
	assert.ErrorIs(t, err, channel.ErrClosed)
	assert.Equal(t, 1, rx.Borrow())

	assert.ErrorIs(t, tx.Send(ctx, 2), channel.ErrClosed)
}

func TestSenderClose_DeliversUnreadValue(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	tx, rx := New(0)
	v, err := rx.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	clone := rx.Clone()

	require.NoError(t, tx.Send(ctx, 42))
	tx.Close()

	for _, r := range []*Receiver[int]{rx, clone} {
		v, err = r.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, 42, v)

		_, err = r.Recv(ctx)
		assert.ErrorIs(t, err, channel.ErrClosed)
	}
}

func TestSenderClose_WakesWaitingReceiver(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	tx, rx := New("a")
	_, err := rx.Recv(ctx)
	require.NoError(t, err)

	errs := make(chan error, 1)
	go func() {
		_, err := rx.Recv(ctx)
		errs <- err
	}()

	tx.Close()
	assert.ErrorIs(t, <-errs, channel.ErrClosed)
}

func TestKind_InitialAndPolicies(t *testing.T) {
	t.Parallel()

	k := KindWithInitial("ready")
	assert.Equal(t, 1, k.DefaultCapacity())
	assert.Equal(t, channel.Take, k.TxPolicy())
	assert.Equal(t, channel.Clone, k.RxPolicy())

	_, rx := k.Make(100)
	assert.Equal(t, "ready", rx.Borrow())

	_, zero := Kind[int]().Make(1)
	assert.Equal(t, 0, zero.Borrow())
}
