// Package server composes the pieces in internal/taskpool, internal/reactor
// and internal/config into the process entry point: spawn the thread pool
// sized for accept_threads-1 accept tasks plus worker_threads workers, hand
// all but one accept task to the pool, then run the last accept task on the
// calling goroutine — the main thread doubles as an accept thread.
package server

import (
	"reactor-demo/internal/config"
	"reactor-demo/internal/diag"
	"reactor-demo/internal/reactor"
	"reactor-demo/internal/taskpool"
	"time"
)

// Exit codes: 0 success (Run itself never returns it), 10 resource
// exhaustion during startup, 100 any other failure — a startup failure or
// the main accept task's event loop ending on a reactor failure.
const (
	ExitOK         = 0
	ExitNoMemory   = 10
	ExitStartupErr = 100
)

// Run builds and runs the server described by opts. It returns
// ExitStartupErr if startup fails before the main accept task's event loop
// begins, or if that loop ends on a reactor failure; otherwise it blocks
// forever — there is no shutdown protocol.
func Run(opts config.Options, log *diag.Logger) int {
	acceptPoolSize := opts.AcceptThreads - 1
	pool := taskpool.New(log)
	pool.SpawnThreads(acceptPoolSize + opts.WorkerThreads)

	perReactorKB := reactor.PoolMemSize(opts.AcceptCapacity) / 1024
	log.Debugf("running %d accept threads; pool size: %d kb; total pool size: %d kb",
		opts.AcceptThreads, perReactorKB, perReactorKB*opts.AcceptThreads)

	slowDuration := time.Duration(opts.SlowDuration) * time.Millisecond

	for i := 0; i < acceptPoolSize; i++ {
		task, err := reactor.NewAcceptTask(opts.Port, opts.AcceptCapacity, pool, slowDuration, log)
		if err != nil {
			log.Errorf("creating accept task: %v", err)
			return ExitStartupErr
		}
		pool.AddTask(task)
	}

	if opts.Daemonize {
		if err := daemonize(log.Verbose()); err != nil {
			log.Errorf("daemonize: %v", err)
			return ExitStartupErr
		}
	}

	main, err := reactor.NewAcceptTask(opts.Port, opts.AcceptCapacity, pool, slowDuration, log)
	if err != nil {
		log.Errorf("creating main accept task: %v", err)
		return ExitStartupErr
	}
	main.Execute()
	return ExitStartupErr
}
