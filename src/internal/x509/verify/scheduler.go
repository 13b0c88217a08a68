// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509verify

import (
	"context"
	"crypto/sha256"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/H0llyW00dzZ/tls-cert-verifier/src/logger"
)

var (
	// ErrSchedulerClosed is returned by [Scheduler.Verify] after [Scheduler.Close].
	ErrSchedulerClosed = errors.New("x509verify: scheduler closed")

	// ErrInvalidKey is returned when a request key was not produced by
	// [NewRequestKey]. The request is rejected before any job state is touched.
	ErrInvalidKey = errors.New("x509verify: invalid request key")

	// ErrCanceled is returned by [Request.Wait] when the request was canceled
	// by engine teardown before a result could be delivered.
	ErrCanceled = errors.New("x509verify: request canceled")
)

const (
	// DefaultWorkers is the worker pool size when none is configured.
	DefaultWorkers = 4

	// DefaultQueueDepth is the dispatch queue depth when none is configured.
	DefaultQueueDepth = 64
)

// Request represents one caller's pending verification, attached to an
// in-flight job. The caller owns the handle: dropping interest via
// [Request.Release] detaches it without affecting the job or other waiters.
//
// Exactly one of the following happens to a live Request: its result channel
// receives one Outcome (delivered), or its canceled channel is closed by
// engine teardown (canceled). A released Request receives neither.
type Request struct {
	result   chan Outcome
	canceled chan struct{}
	sched    *Scheduler
	released atomic.Bool

	// job backlinks the owning job. Touched only on the owner goroutine;
	// nil once the request is detached, delivered, or canceled.
	job *schedJob
}

// Result returns the channel on which the outcome is delivered. It receives
// exactly one value in the delivered path and none otherwise.
func (r *Request) Result() <-chan Outcome { return r.result }

// Canceled returns a channel closed iff the engine was torn down before the
// outcome could be delivered.
func (r *Request) Canceled() <-chan struct{} { return r.canceled }

// Release drops the caller's interest in the pending verification. It is
// cheap, idempotent, never blocks on the worker pool, and never cancels the
// underlying job: even a job with no remaining waiters runs to completion
// and has its result discarded (and still cached).
func (r *Request) Release() {
	if !r.released.CompareAndSwap(false, true) {
		return
	}
	select {
	case r.sched.cmds <- schedCmd{op: opRelease, req: r}:
	case <-r.sched.quit:
		// Teardown already canceled every outstanding request.
	}
}

// Wait blocks until the outcome is delivered, the engine is torn down, or
// ctx is done. Context expiry releases the request; timeouts are a caller
// concern layered on top of the scheduler, not a scheduler feature.
func (r *Request) Wait(ctx context.Context) (Outcome, error) {
	select {
	case outcome := <-r.result:
		return outcome, nil
	case <-r.canceled:
		return Outcome{}, ErrCanceled
	case <-ctx.Done():
		r.Release()
		return Outcome{}, ctx.Err()
	}
}

// schedJob is one in-flight verification shared by every caller with the
// same request key. It lives in the owner goroutine's job table from
// dispatch until its completion arrives or the scheduler is torn down.
type schedJob struct {
	seq      uint64
	key      RequestKey
	started  time.Time
	requests map[*Request]struct{}
}

type cmdOp int

const (
	opVerify cmdOp = iota
	opRelease
)

type schedCmd struct {
	op  cmdOp
	key RequestKey
	req *Request
}

// CompletionFunc observes every job completion on the owner goroutine,
// before the outcome is fanned out to waiters. [Verifier] uses it to
// populate the cache.
type CompletionFunc func(key RequestKey, outcome Outcome, started time.Time)

// Scheduler coalesces concurrent verification requests: at most one job is
// in flight per request key, and its single outcome is fanned out to every
// attached request. All job-table mutation is confined to one owner
// goroutine fed by channels; the scheduler takes no locks.
type Scheduler struct {
	pool       *workerPool
	onComplete CompletionFunc
	log        logger.Logger
	metrics    *EngineMetrics
	clock      func() time.Time

	cmds        chan schedCmd
	completions chan completion
	quit        chan struct{}
	closeOnce   sync.Once
	loopDone    chan struct{}

	// Owner-goroutine state. jobs indexes by key digest for the
	// at-most-one-job-per-key invariant; bySeq resolves worker completions
	// and acts as the existence check that makes late completions no-ops.
	jobs    map[[sha256.Size]byte]*schedJob
	bySeq   map[uint64]*schedJob
	nextSeq uint64
}

// NewScheduler creates a scheduler dispatching to proc on a pool of workers
// goroutines with a dispatch queue of queueDepth. onComplete may be nil;
// metrics, log, and clock may be nil for defaults.
func NewScheduler(proc VerifyProc, workers, queueDepth int, onComplete CompletionFunc, em *EngineMetrics, log logger.Logger, clock func() time.Time) *Scheduler {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueDepth <= 0 {
		queueDepth = DefaultQueueDepth
	}
	if em == nil {
		em = newEngineMetrics()
	}
	if log == nil {
		log = logger.NewJSONLogger(nil, true)
	}
	if clock == nil {
		clock = time.Now
	}

	s := &Scheduler{
		onComplete:  onComplete,
		log:         log,
		metrics:     em,
		clock:       clock,
		cmds:        make(chan schedCmd),
		completions: make(chan completion, workers),
		quit:        make(chan struct{}),
		loopDone:    make(chan struct{}),
		jobs:        make(map[[sha256.Size]byte]*schedJob),
		bySeq:       make(map[uint64]*schedJob),
	}
	s.pool = newWorkerPool(proc, workers, queueDepth, s.completions, s.quit)

	go s.run()
	return s
}

// Verify attaches a new [Request] to the in-flight job for key, creating and
// dispatching the job if none exists. A malformed key is rejected
// synchronously before any job state is touched.
//
// Verify is safe for concurrent use; submissions are serialized onto the
// owner goroutine.
func (s *Scheduler) Verify(key RequestKey) (*Request, error) {
	if !key.Valid() {
		return nil, ErrInvalidKey
	}

	req := &Request{
		result:   make(chan Outcome, 1),
		canceled: make(chan struct{}),
		sched:    s,
	}
	select {
	case s.cmds <- schedCmd{op: opVerify, key: key, req: req}:
		return req, nil
	case <-s.quit:
		return nil, ErrSchedulerClosed
	}
}

// Close tears the scheduler down. Every in-flight job is destroyed and its
// attached requests are marked canceled; none of them receive an outcome.
// Workers blocked inside a verification are not waited for: they run to
// completion and their late results are discarded.
//
// Close is idempotent and returns once the owner goroutine has exited.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
		s.pool.shutdown()
	})
	<-s.loopDone
}

// run is the owner goroutine: the only code that touches the job table.
func (s *Scheduler) run() {
	defer close(s.loopDone)
	for {
		select {
		case cmd := <-s.cmds:
			switch cmd.op {
			case opVerify:
				s.handleVerify(cmd.key, cmd.req)
			case opRelease:
				s.handleRelease(cmd.req)
			}
		case c := <-s.completions:
			s.handleCompletion(c)
		case <-s.quit:
			s.teardown()
			return
		}
	}
}

// handleVerify attaches req to the job for key, creating it on first use.
// Dispatch failure from a saturated pool completes the request immediately
// with an explicit internal failure rather than leaving it hanging.
func (s *Scheduler) handleVerify(key RequestKey, req *Request) {
	digest := key.Digest()
	if job, ok := s.jobs[digest]; ok {
		job.requests[req] = struct{}{}
		req.job = job
		s.metrics.JobsCoalesced.Inc(1)
		return
	}

	s.nextSeq++
	job := &schedJob{
		seq:      s.nextSeq,
		key:      key,
		started:  s.clock(),
		requests: map[*Request]struct{}{req: {}},
	}
	if !s.pool.tryDispatch(workItem{seq: job.seq, key: key, started: job.started}) {
		s.metrics.DispatchFailures.Inc(1)
		s.log.Printf("verify dispatch refused for %s: worker queue full", key)
		req.result <- Outcome{
			Status: StatusInternalError,
			Detail: "verification worker queue is full",
		}
		return
	}

	s.jobs[digest] = job
	s.bySeq[job.seq] = job
	req.job = job
	s.metrics.JobsStarted.Inc(1)
}

// handleRelease detaches a released request from its job, if still attached.
func (s *Scheduler) handleRelease(req *Request) {
	if req.job == nil {
		return
	}
	delete(req.job.requests, req)
	req.job = nil
}

// handleCompletion resolves a worker completion to a live job and fans the
// outcome out. An unknown sequence means the job is already gone; the
// completion is dropped.
func (s *Scheduler) handleCompletion(c completion) {
	job, ok := s.bySeq[c.seq]
	if !ok {
		return
	}
	delete(s.bySeq, c.seq)
	delete(s.jobs, job.key.Digest())

	s.metrics.VerifyLatency.UpdateSince(c.started)
	if s.onComplete != nil {
		s.onComplete(job.key, c.outcome, c.started)
	}

	// Delivery order across waiters is unspecified; each live request
	// receives exactly one outcome on its buffered channel.
	for req := range job.requests {
		req.job = nil
		req.result <- c.outcome
	}
	job.requests = nil
}

// teardown destroys every in-flight job, marking each attached request
// canceled without delivering anything.
func (s *Scheduler) teardown() {
	for digest, job := range s.jobs {
		for req := range job.requests {
			req.job = nil
			close(req.canceled)
		}
		job.requests = nil
		delete(s.jobs, digest)
		delete(s.bySeq, job.seq)
	}
}
