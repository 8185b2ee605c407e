// Package taskpool (continued): Pool assigns tasks to free workers or
// queues them in a backlog, re-dispatching on worker release.
package taskpool

import (
	"sync"
	"sync/atomic"
	"time"
)

// Pool is the process-wide thread pool. Two locks guard the free stack
// and the backlog independently. AddTask only ever takes
// free-then-(drop)-then-backlog; releaseThread only takes
// backlog-then-(conditionally)-free — the consistent ordering rules out
// deadlock.
type Pool struct {
	workers []*worker

	freeMu sync.Mutex
	free   []*worker // stack: push/pop at the tail

	backlogMu sync.Mutex
	backlog   []Task // FIFO: append at tail, pop at head

	diag debugLogger

	execStat  stat
	completed uint64
}

// New creates an empty Pool. Call SpawnThreads before submitting tasks.
func New(diag debugLogger) *Pool {
	return &Pool{diag: diag}
}

// SpawnThreads creates and starts n workers, all starting in the free
// stack.
func (p *Pool) SpawnThreads(n int) {
	p.workers = make([]*worker, n)
	p.free = make([]*worker, 0, n)
	for i := 0; i < n; i++ {
		w := newWorker(i, p, p.diag)
		p.workers[i] = w
		p.free = append(p.free, w)
		w.start()
	}
}

// AddTask assigns t to a free worker if one is available; otherwise it
// is appended to the backlog.
func (p *Pool) AddTask(t Task) {
	p.freeMu.Lock()
	n := len(p.free)
	if n > 0 {
		w := p.free[n-1]
		p.free = p.free[:n-1]
		p.freeMu.Unlock()
		w.assign(t)
		return
	}
	p.freeMu.Unlock()

	p.backlogMu.Lock()
	p.backlog = append(p.backlog, t)
	p.backlogMu.Unlock()
}

// Stats reports a snapshot of task execution latency across every worker
// in the pool, accumulated via a Welford running mean/variance.
func (p *Pool) Stats() Snapshot { return p.execStat.snapshot() }

// releaseThread is invoked by a worker right after it finishes a task,
// along with how long Execute took. A released worker always drains one
// backlog item before parking, so no FIFO entry starves behind a
// freshly-parked worker.
func (p *Pool) releaseThread(id int, execDur time.Duration) {
	p.execStat.add(float64(execDur) / float64(time.Millisecond))
	if n := atomic.AddUint64(&p.completed, 1); p.diag != nil && n%256 == 0 {
		snap := p.execStat.snapshot()
		p.diag.Debugf("taskpool: %d tasks completed, exec latency avg=%.3fms std=%.3fms", n, snap.Mean, snap.Std)
	}

	p.backlogMu.Lock()
	if len(p.backlog) > 0 {
		t := p.backlog[0]
		p.backlog = p.backlog[1:]
		p.backlogMu.Unlock()
		p.workers[id].assign(t)
		return
	}
	p.backlogMu.Unlock()

	p.freeMu.Lock()
	p.free = append(p.free, p.workers[id])
	p.freeMu.Unlock()
}

// Workers reports the number of workers spawned into this pool.
func (p *Pool) Workers() int { return len(p.workers) }
