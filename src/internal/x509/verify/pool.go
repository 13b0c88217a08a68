// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509verify

import (
	"context"
	"sync"
	"time"
)

// workItem is one verification dispatched to the worker pool. The sequence
// number, not a pointer, identifies the originating job: the scheduler's
// owner goroutine resolves it back to a live job, so a completion arriving
// after the job (or the whole scheduler) is gone is a harmless miss.
type workItem struct {
	seq     uint64
	key     RequestKey
	started time.Time
}

// completion carries a finished verification back to the owner goroutine.
type completion struct {
	seq     uint64
	outcome Outcome
	started time.Time
}

// workerPool runs blocking verification calls on a bounded set of
// goroutines. Dispatch never blocks: a full queue is reported to the caller,
// which synthesizes an explicit failure outcome instead of stalling the
// owner goroutine.
//
// A worker already inside a [VerifyProc] call cannot be preempted; on
// shutdown it runs to completion and its delivery select drops the result.
type workerPool struct {
	proc        VerifyProc
	work        chan workItem
	completions chan<- completion
	quit        <-chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// newWorkerPool starts workers goroutines consuming a queue of queueDepth
// pending items. Completions are reported on the completions channel; quit
// releases idle workers and unblocks result delivery after teardown.
func newWorkerPool(proc VerifyProc, workers, queueDepth int, completions chan<- completion, quit <-chan struct{}) *workerPool {
	ctx, cancel := context.WithCancel(context.Background())
	p := &workerPool{
		proc:        proc,
		work:        make(chan workItem, queueDepth),
		completions: completions,
		quit:        quit,
		ctx:         ctx,
		cancel:      cancel,
	}
	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

// tryDispatch queues item without blocking. It reports false when the queue
// is full.
func (p *workerPool) tryDispatch(item workItem) bool {
	select {
	case p.work <- item:
		return true
	default:
		return false
	}
}

// shutdown signals cancellation to in-flight verifications. It does not wait
// for them: a blocking native call may outlive the engine, and its late
// completion is absorbed by the quit select in run.
func (p *workerPool) shutdown() { p.cancel() }

func (p *workerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case item := <-p.work:
			p.run(item)
		case <-p.quit:
			return
		}
	}
}

// run executes one verification and delivers its completion. Delivery
// selects against quit so a completion arriving after scheduler teardown is
// a no-op rather than a blocked goroutine.
func (p *workerPool) run(item workItem) {
	outcome := p.proc.Verify(p.ctx, item.key.Material())
	select {
	case p.completions <- completion{seq: item.seq, outcome: outcome, started: item.started}:
	case <-p.quit:
	}
}
