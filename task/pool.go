package task

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/ferrocomb/wazeco/mpsc"
	"github.com/ferrocomb/wazeco/waitqueue"
)

// Pool is a fixed-size worker pool implementing Schedule: it is the
// concrete scheduler raw.rs leaves abstract behind the Header's vtable
// "schedule" function pointer, built from this repository's own
// mpsc.Queue (run queue) and waitqueue.WaitQueue (idle-worker parking)
// rather than a borrowed goroutine-per-task model.
type Pool struct {
	runQueue *mpsc.Queue[*Ref]
	idle     *waitqueue.WaitQueue
	inflight *semaphore.Weighted
	ready    chan *Ref
	stop     chan struct{}
}

// NewPool starts a Pool with the given number of worker goroutines, each
// bounded by a semaphore so at most maxConcurrentPolls Ref.Poll calls run
// at once even if more workers than that are configured — useful when
// workers are cheap but a downlevel resource (e.g. a shared compiler
// instance) caps real parallelism.
func NewPool(workers int, maxConcurrentPolls int64) *Pool {
	p := &Pool{
		runQueue: mpsc.New[*Ref](),
		idle:     waitqueue.New(),
		inflight: semaphore.NewWeighted(maxConcurrentPolls),
		stop:     make(chan struct{}),
	}
	p.ready = make(chan *Ref, workers)
	go p.dispatchLoop()
	for i := 0; i < workers; i++ {
		go p.workerLoop()
	}
	return p
}

// Schedule implements Schedule by pushing ref onto the pool's run queue
// and waking one idle worker, matching wake_by_val's Submit case handing
// a freshly notified task straight to the scheduler.
func (p *Pool) Schedule(ref *Ref) {
	p.runQueue.Enqueue(ref)
	p.idle.Wake()
}

// Close stops all worker goroutines once their current poll completes.
// Queued-but-unpolled tasks are left untouched; call Close only once the
// pool's owner knows no further work is expected.
func (p *Pool) Close() {
	close(p.stop)
	p.idle.Close()
}

// dispatchLoop is the run queue's single permitted consumer, matching
// mpsc.Queue's single-consumer contract: it drains ready work and fans it
// out to the worker pool over a channel instead of letting every worker
// call Dequeue directly.
func (p *Pool) dispatchLoop() {
	for {
		ref, ok := p.runQueue.Dequeue()
		if !ok {
			if err := p.idle.Wait(); err != nil {
				close(p.ready)
				return // pool closed
			}
			continue
		}
		select {
		case p.ready <- ref:
		case <-p.stop:
			close(p.ready)
			return
		}
	}
}

func (p *Pool) workerLoop() {
	ctx := context.Background()
	for ref := range p.ready {
		if err := p.inflight.Acquire(ctx, 1); err != nil {
			return
		}
		ref.Poll()
		p.inflight.Release(1)
	}
}
