package lifeline

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// Handle is anything a Group can own: a Lifeline or another Group.
type Handle interface {
	Close() error
	Wait(ctx context.Context) error
}

// Group owns a set of handles. Closing the group cancels all of them, which
// gives components a single shutdown point for every task they spawned.
type Group struct {
	name string

	mu      sync.Mutex
	members []Handle
	closed  bool
}

func NewGroup(name string) *Group {
	return &Group{name: name}
}

func (g *Group) Name() string {
	return g.name
}

// Add takes ownership of handles. Handles added after Close are closed
// immediately. Members whose task has already returned are dropped.
func (g *Group) Add(handles ...Handle) {
	g.mu.Lock()
	if !g.closed {
		g.members = append(slices.DeleteFunc(g.members, finished), handles...)
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()

	for _, h := range handles {
		_ = h.Close()
	}
}

func finished(h Handle) bool {
	d, ok := h.(interface{ Done() <-chan struct{} })
	if !ok {
		return false
	}

	select {
	case <-d.Done():
		return true
	default:
		return false
	}
}

func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.members)
}

// Spawn starts a task named "<group>/<name>" owned by the group.
func (g *Group) Spawn(name string, fn func(ctx context.Context), opts ...Option) *Lifeline {
	l := Spawn(g.name+"/"+name, fn, opts...)
	g.Add(l)
	return l
}

// Group creates a nested group named "<group>/<name>".
func (g *Group) Group(name string) *Group {
	child := NewGroup(g.name + "/" + name)
	g.Add(child)
	return child
}

func (g *Group) Close() error {
	g.mu.Lock()
	g.closed = true
	members := g.members
	g.mu.Unlock()

	var errs []error
	for _, h := range members {
		if err := h.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Wait blocks until every member has returned or ctx ends.
func (g *Group) Wait(ctx context.Context) error {
	g.mu.Lock()
	members := append([]Handle(nil), g.members...)
	g.mu.Unlock()

	for _, h := range members {
		if err := h.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}
