// Package workerpool runs queue jobs on a fixed number of goroutines.
// Submissions hand off directly to an idle worker, so a caller popping from
// a queue never holds more jobs than it has workers for.
//
//	pool := workerpool.New(4)
//	defer pool.Shutdown()
//	if err := pool.SubmitContext(ctx, job); err != nil { ... }
package workerpool

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/adegaexpress/adega/pkg/logger"
)

var ErrPoolClosed = errors.New("workerpool: pool is closed")

type Pool struct {
	tasks  chan func()
	done   chan struct{}
	wg     sync.WaitGroup
	mu     sync.RWMutex
	once   sync.Once
	active atomic.Int64
}

// New starts size workers (at least one).
func New(size int) *Pool {
	p := &Pool{
		tasks: make(chan func()),
		done:  make(chan struct{}),
	}
	for i := 0; i < max(1, size); i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// SubmitContext blocks until a worker takes task, the pool shuts down, or
// ctx ends.
func (p *Pool) SubmitContext(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	select {
	case <-p.done:
		return ErrPoolClosed
	default:
	}

	select {
	case <-p.done:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	case p.tasks <- task:
		return nil
	}
}

// Active is the number of tasks running right now.
func (p *Pool) Active() int { return int(p.active.Load()) }

// Shutdown refuses new work and waits for running tasks. Repeat calls are
// no-ops.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		close(p.done)
		// Submitters hold the read lock while sending.
		p.mu.Lock()
		close(p.tasks)
		p.mu.Unlock()
		p.wg.Wait()
	})
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(task)
	}
}

func (p *Pool) run(task func()) {
	p.active.Add(1)
	defer p.active.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("workerpool: task panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	task()
}
