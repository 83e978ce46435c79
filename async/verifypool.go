package async

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// VerifyResult is the outcome of one submitted verification job,
// matched back to its caller by ID.
type VerifyResult struct {
	ID uint64
	Ok bool
}

type verifyJob struct {
	id     uint64
	fn     func() bool
	result chan<- VerifyResult
}

// VerifyPool runs boolean verification predicates — typically Ed25519
// signature checks — on a small bounded worker pool, so a
// single-owner consumer can submit many checks without blocking its
// own goroutine on each one and have results re-enter it over a
// channel.
//
// Grounded on RunEvery's goroutine-plus-channel shape and its
// logrus.WithField trace logging.
type VerifyPool struct {
	jobs chan verifyJob
	wg   sync.WaitGroup
}

// NewVerifyPool starts workers goroutines draining a queue of depth
// queueDepth. Values below 1 are raised to 1.
func NewVerifyPool(workers, queueDepth int) *VerifyPool {
	if workers < 1 {
		workers = 1
	}
	if queueDepth < 1 {
		queueDepth = 1
	}
	p := &VerifyPool{jobs: make(chan verifyJob, queueDepth)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *VerifyPool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		job.result <- VerifyResult{ID: job.id, Ok: job.fn()}
	}
}

// Submit enqueues fn for evaluation and returns a channel that
// receives exactly one VerifyResult once a worker has run it. Submit
// blocks if the queue is full, providing backpressure
// requires at outbound-send-when-full suspension points.
func (p *VerifyPool) Submit(id uint64, fn func() bool) <-chan VerifyResult {
	result := make(chan VerifyResult, 1)
	p.jobs <- verifyJob{id: id, fn: fn, result: result}
	return result
}

// Close stops accepting new jobs and waits for in-flight workers to
// drain. Submit must not be called after Close.
func (p *VerifyPool) Close() {
	close(p.jobs)
	p.wg.Wait()
	log.WithField("component", "verifypool").Debug("verify pool drained")
}
