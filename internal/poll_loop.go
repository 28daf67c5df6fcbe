package internal

import (
	"context"
	"time"
)

// PollHandler is invoked once immediately and then again on every tick of
// a PollLoop: the executor's scheduler poll, or the retention worker's
// sweep for expired jobs.
type PollHandler func(context.Context)

// PollLoop drives a PollHandler on a fixed interval until its context is
// cancelled or Stop is called. Both the Executor and the retention
// Worker embed one; neither runs more than one PollHandler invocation at
// a time, since the ticker only fires again after the previous call
// returns.
type PollLoop struct {
	cancel context.CancelFunc
	done   DoneChan
}

func (p *PollLoop) run(ctx context.Context, h PollHandler, interval time.Duration) {
	defer close(p.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	h(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h(ctx)
		}
	}
}

// Start begins calling h every interval, starting immediately.
func (p *PollLoop) Start(ctx context.Context, h PollHandler, interval time.Duration) {
	p.done = make(DoneChan)
	ctx, p.cancel = context.WithCancel(ctx)
	go p.run(ctx, h, interval)
}

// Stop cancels the loop and returns a DoneChan that closes once the
// current (if any) in-flight call to h returns.
func (p *PollLoop) Stop() DoneChan {
	p.cancel()
	return p.done
}
