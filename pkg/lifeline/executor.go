package lifeline

import "github.com/sourcegraph/conc/pool"

// Executor runs a task body. The default starts one goroutine per task.
type Executor interface {
	Go(f func())
}

type ExecutorFunc func(f func())

func (e ExecutorFunc) Go(f func()) {
	e(f)
}

type goroutines struct{}

func (goroutines) Go(f func()) {
	go f()
}

// Pool runs tasks on at most n goroutines. Spawn blocks while every worker
// is busy, so a pool suits short tasks rather than long-lived listeners.
type Pool struct {
	pool *pool.Pool
}

func PoolExecutor(n int) *Pool {
	return &Pool{pool: pool.New().WithMaxGoroutines(n)}
}

func (p *Pool) Go(f func()) {
	p.pool.Go(f)
}

// Wait blocks until every task submitted to the pool has returned. The pool
// cannot be used afterwards.
func (p *Pool) Wait() {
	p.pool.Wait()
}
