package sim

import (
	"fmt"
	"sync"
)

// Pool is a fixed set of worker goroutines fed through a task channel.
// Workers live for the pool's lifetime; Wait is the per-phase barrier.
type Pool struct {
	tasks   chan func()
	stop    chan struct{}
	workers sync.WaitGroup
	pending sync.WaitGroup
}

// NewPool starts workers goroutines. Worker counts below one are rejected;
// the serial engine covers that case.
func NewPool(workers int) (*Pool, error) {
	if workers < 1 {
		return nil, fmt.Errorf("sim: pool needs at least 1 worker, got %d", workers)
	}
	p := &Pool{
		tasks: make(chan func(), workers*4),
		stop:  make(chan struct{}),
	}
	p.workers.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run()
	}
	return p, nil
}

func (p *Pool) run() {
	defer p.workers.Done()
	for {
		select {
		case <-p.stop:
			return
		case task := <-p.tasks:
			task()
			p.pending.Done()
		}
	}
}

// Submit queues one task. Blocks only when the buffer is full.
func (p *Pool) Submit(task func()) {
	p.pending.Add(1)
	p.tasks <- task
}

// Wait blocks until every submitted task has finished.
func (p *Pool) Wait() {
	p.pending.Wait()
}

// Shutdown stops the workers after the current tasks finish. The pool must
// not be used afterwards.
func (p *Pool) Shutdown() {
	p.pending.Wait()
	close(p.stop)
	p.workers.Wait()
}
