package combine

import (
	"context"
	"fmt"
	"sync"

	"github.com/ib-77/lifeline/pkg/channel"
	"github.com/ib-77/lifeline/pkg/lifeline"
)

// MergeReceiver reads from several sources at once. Each source is pumped by
// its own lifeline, started on the first Recv. The merged stream ends once
// every source has ended.
type MergeReceiver[T any] struct {
	sources []channel.Receiver[T]
	out     chan T
	group   *lifeline.Group

	start     sync.Once
	closeOnce sync.Once
	closed    chan struct{}
}

func Merge[T any](sources ...channel.Receiver[T]) *MergeReceiver[T] {
	return &MergeReceiver[T]{
		sources: sources,
		out:     make(chan T),
		group:   lifeline.NewGroup("merge"),
		closed:  make(chan struct{}),
	}
}

// MergeFrom merges a stream of another type, converted with from.
func MergeFrom[T, T2 any](rx channel.Receiver[T], other channel.Receiver[T2], from func(T2) T) *MergeReceiver[T] {
	converted := Map(other, func(_ context.Context, v T2) T { return from(v) })
	return Merge[T](rx, converted)
}

func (m *MergeReceiver[T]) run() {
	for i, src := range m.sources {
		m.group.Spawn(fmt.Sprintf("source-%d", i), func(ctx context.Context) {
			for {
				v, err := src.Recv(ctx)
				if err != nil {
					return
				}

				select {
				case m.out <- v:
				case <-ctx.Done():
					return
				}
			}
		})
	}

	go func() {
		_ = m.group.Wait(context.Background())
		close(m.out)
	}()
}

func (m *MergeReceiver[T]) Recv(ctx context.Context) (T, error) {
	var zero T

	select {
	case <-m.closed:
		return zero, channel.ErrClosed
	default:
	}

	m.start.Do(m.run)

	select {
	case v, ok := <-m.out:
		if !ok {
			return zero, channel.ErrClosed
		}
		return v, nil
	case <-m.closed:
		return zero, channel.ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Close stops the pumps and closes every source.
func (m *MergeReceiver[T]) Close() {
	m.closeOnce.Do(func() {
		close(m.closed)
		_ = m.group.Close()
		_ = m.group.Wait(context.Background())
		for _, src := range m.sources {
			closeReceiver(src)
		}
	})
}
