package internal

import (
	"context"
	"log/slog"
	"sync"
)

// DispatchHandler processes a single claimed job. The Executor is the
// only caller; T is *job.Job.
type DispatchHandler[T any] func(context.Context, T)

// Dispatcher hands claimed work off to exactly one background goroutine,
// one item at a time. The Executor relies on this to enforce its
// no-parallel-items guarantee: each poll pushes at most one peeked job,
// and Dispatcher guarantees that job finishes processing before the next
// Push's handler call begins.
//
// A one-slot buffer lets the poll loop hand off a freshly claimed job
// without blocking on the previous call's teardown.
type Dispatcher[T any] struct {
	wg     sync.WaitGroup
	in     chan T
	ctx    context.Context
	cancel context.CancelFunc
	log    *slog.Logger
}

// NewDispatcher creates a Dispatcher. Start must be called before Push.
func NewDispatcher[T any](log *slog.Logger) *Dispatcher[T] {
	return &Dispatcher[T]{log: log}
}

func (d *Dispatcher[T]) safeHandle(ctx context.Context, h DispatchHandler[T], item T) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("dispatcher handler panic recovered", "err", r)
		}
	}()
	h(ctx, item)
}

func (d *Dispatcher[T]) run(ctx context.Context, h DispatchHandler[T]) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case item := <-d.in:
			d.safeHandle(ctx, h, item)
		}
	}
}

// Push hands an item to the worker goroutine. It reports false if the
// dispatcher has been stopped before the item could be delivered.
func (d *Dispatcher[T]) Push(item T) bool {
	select {
	case <-d.ctx.Done():
		return false
	case d.in <- item:
		return true
	}
}

// Start launches the single worker goroutine that will call h for every
// pushed item, one at a time.
func (d *Dispatcher[T]) Start(ctx context.Context, h DispatchHandler[T]) {
	d.ctx, d.cancel = context.WithCancel(ctx)
	d.in = make(chan T, 1)
	d.wg.Add(1)
	go d.run(d.ctx, h)
}

// Stop cancels the dispatcher and returns a DoneChan that closes once
// the worker goroutine has exited.
func (d *Dispatcher[T]) Stop() DoneChan {
	d.cancel()
	return wrapWaitGroup(&d.wg)
}
