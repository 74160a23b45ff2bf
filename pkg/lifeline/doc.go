// Package lifeline ties background work to an explicit handle.
//
// Spawn starts a task and returns a *Lifeline. The task receives a context
// that is cancelled when the handle is cancelled or closed; it stops at its
// next context-aware call (usually a channel Send or Recv). The handle is the
// only owner of the task's lifetime, so components keep their handles as
// fields and close them on shutdown:
//
//	type Greeter struct {
//		listen *lifeline.Lifeline
//	}
//
//	func (g *Greeter) Close() error { return g.listen.Close() }
//
// Handles compose into trees with Group.
package lifeline
