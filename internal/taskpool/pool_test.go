package taskpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fnTask struct{ fn func() }

func (t fnTask) Execute() { t.fn() }

func TestAddTaskRunsOnFreeWorker(t *testing.T) {
	p := New(nil)
	p.SpawnThreads(2)

	var n int32
	var wg sync.WaitGroup
	wg.Add(1)
	p.AddTask(fnTask{fn: func() {
		atomic.AddInt32(&n, 1)
		wg.Done()
	}})
	wg.Wait()

	if atomic.LoadInt32(&n) != 1 {
		t.Fatalf("n = %d, want 1", n)
	}
}

func TestBacklogFIFO(t *testing.T) {
	p := New(nil)
	p.SpawnThreads(1)

	block := make(chan struct{})
	started := make(chan struct{})
	p.AddTask(fnTask{fn: func() {
		close(started)
		<-block
	}})
	<-started // the single worker is now busy

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		i := i
		p.AddTask(fnTask{fn: func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
		}})
	}
	close(block)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	for i, v := range order {
		if v != i {
			t.Fatalf("backlog order = %v, want FIFO 0,1,2", order)
		}
	}
}

func TestWorkerReleasedAfterTask(t *testing.T) {
	p := New(nil)
	p.SpawnThreads(1)

	done := make(chan struct{})
	p.AddTask(fnTask{fn: func() { close(done) }})
	<-done

	// Give the worker loop time to call releaseThread before asserting.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		p.freeMu.Lock()
		n := len(p.free)
		p.freeMu.Unlock()
		if n == 1 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("worker never returned to the free stack")
}

func TestWorkerPanicDoesNotCrashProcess(t *testing.T) {
	p := New(nil)
	p.SpawnThreads(1)

	p.AddTask(fnTask{fn: func() { panic("boom") }})

	// The pool's other goroutines (none here) keep running: submitting a
	// second task to an independent pool proves the process itself
	// survived the panic.
	time.Sleep(50 * time.Millisecond)

	p2 := New(nil)
	p2.SpawnThreads(1)
	done := make(chan struct{})
	p2.AddTask(fnTask{fn: func() { close(done) }})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("process-wide deadlock after a worker panic")
	}
}
