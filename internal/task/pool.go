package task

import (
	"context"
	"errors"
	"log"
	"runtime/debug"
	"sync"
)

// ErrPoolSaturated is returned by Submit when the job queue is full
var ErrPoolSaturated = errors.New("worker pool queue is full")

// Pool is a bounded worker pool for the blocking segmentation calls. It is
// an explicitly owned resource: constructed once at startup and drained with
// StopWait on shutdown. Jobs carry no handle back to the submitter.
type Pool struct {
	queue  chan func()
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool starts workers goroutines consuming a queue of queueSize jobs
func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		queue:  make(chan func(), queueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.queue:
			if !ok {
				return
			}
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("worker recovered panic: %v\n%s", r, debug.Stack())
					}
				}()
				job()
			}()
		}
	}
}

// Submit enqueues a job without blocking. Returns ErrPoolSaturated when the
// queue is full.
func (p *Pool) Submit(job func()) error {
	if job == nil {
		return nil
	}
	select {
	case p.queue <- job:
		return nil
	default:
		return ErrPoolSaturated
	}
}

// StopWait closes the queue and waits for queued jobs to finish
func (p *Pool) StopWait() {
	close(p.queue)
	p.wg.Wait()
	p.cancel()
}

// Stop discards queued jobs and waits for in-flight jobs to finish
func (p *Pool) Stop() {
drain:
	for {
		select {
		case <-p.queue:
		default:
			break drain
		}
	}
	p.cancel()
	p.wg.Wait()
}
