// Package pool provides a fixed-size worker pool with non-blocking submission
// and a blocking join. Workers pull units from a shared FIFO queue, so a free
// worker always takes the next pending unit.
package pool

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jamesainslie/parbench/pkg/parbench/logging"
)

// logger is the package-level logger for pool operations.
var logger = logging.Get("pool")

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("pool is closed")

// Unit is one schedulable piece of work. Side effects belong to the unit.
type Unit func() error

// Stats is a snapshot of pool counters.
type Stats struct {
	Workers   int   `json:"workers"`
	Submitted int64 `json:"submitted"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`

	// Discarded counts queued units dropped because an earlier unit failed.
	Discarded int64 `json:"discarded"`
}

// Pool runs submitted units on a fixed number of goroutines.
//
// Each unit runs exactly once on one worker and runs to completion. Once a
// unit fails, units still waiting in the queue are discarded instead of run,
// and Join reports the first failure.
type Pool struct {
	workers int

	mu       sync.Mutex
	ready    *sync.Cond // queue non-empty or pool closed
	idle     *sync.Cond // inFlight dropped to zero
	queue    []Unit
	head     int
	inFlight int
	closed   bool
	err      error

	wg sync.WaitGroup

	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	discarded atomic.Int64
}

// New starts a pool with the given number of workers (minimum 1).
func New(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}

	p := &Pool{workers: workers}
	p.ready = sync.NewCond(&p.mu)
	p.idle = sync.NewCond(&p.mu)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}

	logger.Debug("pool started", "workers", workers)
	return p
}

// Workers returns the pool size.
func (p *Pool) Workers() int {
	return p.workers
}

// Submit enqueues u and returns without waiting for it to run.
func (p *Pool) Submit(u Unit) error {
	if u == nil {
		return errors.New("nil unit")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	p.queue = append(p.queue, u)
	p.inFlight++
	p.submitted.Add(1)
	p.ready.Signal()
	return nil
}

// Join blocks until every unit submitted so far has finished, then returns
// the first unit error since the previous Join (or nil).
func (p *Pool) Join() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for p.inFlight > 0 {
		p.idle.Wait()
	}

	err := p.err
	p.err = nil
	return err
}

// Close stops accepting units, lets the workers drain the queue and waits
// for them to exit. It is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.ready.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()
	logger.Debug("pool closed", "completed", p.completed.Load(), "failed", p.failed.Load())
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   p.workers,
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Discarded: p.discarded.Load(),
	}
}

// worker pulls units until the pool is closed and the queue is empty.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for p.head == len(p.queue) && !p.closed {
			p.ready.Wait()
		}
		if p.head == len(p.queue) {
			p.mu.Unlock()
			return
		}

		u := p.pop()
		if p.err != nil {
			p.discarded.Add(1)
			p.finishLocked()
			p.mu.Unlock()
			continue
		}
		p.mu.Unlock()

		err := run(u)

		p.mu.Lock()
		if err != nil {
			p.failed.Add(1)
			if p.err == nil {
				p.err = err
				logger.Error("unit failed, discarding queued work", "worker", id, "err", err)
			}
		} else {
			p.completed.Add(1)
		}
		p.finishLocked()
		p.mu.Unlock()
	}
}

// pop removes the queue head. Must be called with p.mu held.
func (p *Pool) pop() Unit {
	u := p.queue[p.head]
	p.queue[p.head] = nil
	p.head++
	if p.head == len(p.queue) {
		p.queue = p.queue[:0]
		p.head = 0
	}
	return u
}

// finishLocked must be called with p.mu held.
func (p *Pool) finishLocked() {
	p.inFlight--
	if p.inFlight == 0 {
		p.idle.Broadcast()
	}
}

// run executes u, converting a panic into an error.
func run(u Unit) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unit panicked: %v", r)
		}
	}()
	return u()
}
