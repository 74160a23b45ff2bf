package combine

import (
	"bytes"
	"context"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ib-77/lifeline/pkg/channel"
	"github.com/ib-77/lifeline/pkg/channel/mpsc"
	"github.com/ib-77/lifeline/pkg/testutil"
)

func TestMap(t *testing.T) {
	t.Parallel()

	tx, rx := mpsc.New[int](2)
	mapped := Map(rx, func(_ context.Context, v int) string { return strconv.Itoa(v * 2) })

	require.NoError(t, tx.TrySend(21))
	assert.Equal(t, "42", testutil.RequireReceive[string](t, mapped))

	tx.Close()
	testutil.RequireClosed[string](t, mapped)
}

func TestFilter(t *testing.T) {
	t.Parallel()

	tx, rx := mpsc.New[int](8)
	even := Filter(rx, func(_ context.Context, v int) bool { return v%2 == 0 })

	for i := range 6 {
		require.NoError(t, tx.TrySend(i))
	}
	tx.Close()

	var got []int
	for {
		v, err := even.Recv(context.Background())
		if err != nil {
			require.ErrorIs(t, err, channel.ErrClosed)
			break
		}
		got = append(got, v)
	}

	assert.Equal(t, []int{0, 2, 4}, got)
}

func TestFilter_CloseForwards(t *testing.T) {
	t.Parallel()

	tx, rx := mpsc.New[int](1)
	Filter(rx, func(context.Context, int) bool { return true }).Close()

	assert.ErrorIs(t, tx.Send(context.Background(), 1), channel.ErrClosed)
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLogged(t *testing.T) {
	t.Parallel()

	out := &lockedBuffer{}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tx, rx := mpsc.New[string](1)
	logged := Logged(rx, "Greeting", logger)

	require.NoError(t, tx.TrySend("hello"))
	assert.Equal(t, "hello", testutil.RequireReceive[string](t, logged))

	tx.Close()
	testutil.RequireClosed[string](t, logged)

	logs := out.String()
	assert.Contains(t, logs, "channel=Greeting")
	assert.Contains(t, logs, "value=hello")
	assert.Contains(t, logs, "msg=\"channel closed\"")
}

func TestMerge(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	tx1, rx1 := mpsc.New[int](4)
	tx2, rx2 := mpsc.New[int](4)

	merged := Merge[int](rx1, rx2)

	require.NoError(t, tx1.TrySend(1))
	require.NoError(t, tx2.TrySend(2))
	require.NoError(t, tx1.TrySend(3))
	tx1.Close()
	tx2.Close()

	sum := 0
	for {
		v, err := merged.Recv(ctx)
		if err != nil {
			require.ErrorIs(t, err, channel.ErrClosed)
			break
		}
		sum += v
	}

	assert.Equal(t, 6, sum)
}

func TestMerge_CloseStopsPumps(t *testing.T) {
	t.Parallel()

	tx1, rx1 := mpsc.New[int](1)
	_, rx2 := mpsc.New[int](1)

	merged := Merge[int](rx1, rx2)

	short, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := merged.Recv(short)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	merged.Close()

	_, err = merged.Recv(context.Background())
	assert.ErrorIs(t, err, channel.ErrClosed)
	assert.ErrorIs(t, tx1.Send(context.Background(), 1), channel.ErrClosed)
}

type celsius float64
type kelvin float64

func TestMergeFrom(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ctTx, crx := mpsc.New[celsius](1)
	ktx, krx := mpsc.New[kelvin](1)

	merged := MergeFrom[celsius, kelvin](crx, krx, func(k kelvin) celsius { return celsius(k - 273) })

	require.NoError(t, ktx.TrySend(300))
	v, err := merged.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, celsius(27), v)

	require.NoError(t, ctTx.TrySend(5))
	v, err = merged.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, celsius(5), v)

	merged.Close()
}
