package flow

import "context"

// Runtime decouples the controller from scheduling. Post runs fn on the
// state loop; Go runs fn off the loop (blocking work such as network
// calls). All controller state is touched exclusively via Post, which is
// what makes the flow race-free without locks.
type Runtime interface {
	Post(fn func())
	Go(fn func())
}

// Loop is a single-goroutine task executor. Every state transition in
// the payment flow funnels through it, so transitions are serialized.
type Loop struct {
	tasks chan func()
}

func NewLoop() *Loop {
	return &Loop{tasks: make(chan func(), 64)}
}

// Run executes posted tasks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-l.tasks:
			task()
		}
	}
}

// Post enqueues fn for execution on the loop goroutine.
func (l *Loop) Post(fn func()) {
	l.tasks <- fn
}

// LoopRuntime is the production Runtime: Post targets the loop, Go
// spawns a goroutine.
type LoopRuntime struct {
	Loop *Loop
}

func (r LoopRuntime) Post(fn func()) { r.Loop.Post(fn) }

func (r LoopRuntime) Go(fn func()) { go fn() }
