//go:build linux

package reactor

import (
	"fmt"
	"time"

	"reactor-demo/internal/slab"
	"reactor-demo/internal/taskpool"

	"golang.org/x/sys/unix"
)

// slowTask runs on a worker thread: it sleeps for the configured duration,
// then fires the connection's Signal so its owning reactor resumes the
// write side.
type slowTask struct {
	conn     *Conn
	duration time.Duration
}

func (t *slowTask) Execute() {
	time.Sleep(t.duration)
	t.conn.signal.Fire()
}

// AcceptTask owns one listening socket bound with SO_REUSEPORT, its own
// Reactor and its own per-reactor slab of Conn slots. It implements
// taskpool.Task so it can be handed to the thread pool exactly like any
// other task — the entry point spawns accept_threads-1 of these onto the
// pool and runs the last one on the calling goroutine itself.
type AcceptTask struct {
	listenFD     int
	port         int
	reactor      *Reactor
	pool         *slab.Pool[Conn]
	tasks        *taskpool.Pool
	slowDuration time.Duration
	diag         diagLogger
}

// Port reports the actually bound TCP port — useful when NewAcceptTask was
// called with port 0 to let the kernel pick one (tests; the CLI itself
// always requires an explicit --port).
func (a *AcceptTask) Port() int { return a.port }

// PoolMemSize reports the per-AcceptTask slab footprint for a given
// connection capacity, used in the startup diagnostic log.
func PoolMemSize(capacity int) int {
	return slab.MemSize[Conn](capacity)
}

// NewAcceptTask creates and binds the listening socket but does not yet
// start accepting; call Execute to run it (directly, or via a Pool).
func NewAcceptTask(port, capacity int, tasks *taskpool.Pool, slowDuration time.Duration, diag diagLogger) (*AcceptTask, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return nil, err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
		unix.Close(fd)
		return nil, err
	}
	sa := &unix.SockaddrInet4{Port: port}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, err
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return nil, err
	}
	boundPort := port
	if sa, err := unix.Getsockname(fd); err == nil {
		if in4, ok := sa.(*unix.SockaddrInet4); ok {
			boundPort = in4.Port
		}
	}
	r, err := newReactor()
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	return &AcceptTask{
		listenFD:     fd,
		port:         boundPort,
		reactor:      r,
		pool:         slab.New[Conn](capacity),
		tasks:        tasks,
		slowDuration: slowDuration,
		diag:         diag,
	}, nil
}

// Execute registers the listening socket, opportunistically accepts any
// connection that raced ahead of the event loop's first iteration, then
// runs the reactor forever.
func (a *AcceptTask) Execute() {
	if a.diag != nil {
		a.diag.Debugf("accept task: created, port %d", a.port)
	}
	if err := a.reactor.Register(a.listenFD, EventRead, a.onAcceptable); err != nil {
		a.diag.Errorf("accept task: registering listener: %v", err)
		return
	}

	if fd, _, err := unix.Accept4(a.listenFD, unix.SOCK_NONBLOCK); err == nil {
		a.diag.Debugf("accept task: opportunistic pre-loop accept")
		a.handleAccepted(fd)
	} else if err != unix.EAGAIN {
		a.diag.Errorf("accept task: pre-loop accept: %v", err)
	}

	a.diag.Debugf("accept task: running event loop")
	if err := a.reactor.Run(); err != nil {
		a.diag.Errorf("accept task: reactor loop exited: %v", err)
	}
}

func (a *AcceptTask) onAcceptable(events IOEvents) {
	fd, _, err := unix.Accept4(a.listenFD, unix.SOCK_NONBLOCK)
	if err != nil {
		if err == unix.EAGAIN {
			return
		}
		a.reactor.fail(fmt.Errorf("accept task: accept: %w", err))
		return
	}
	a.handleAccepted(fd)
}

// handleAccepted constructs a Conn in place in this AcceptTask's slab. If
// the slab is exhausted (accept_capacity reached) the connection is
// dropped rather than admitted.
func (a *AcceptTask) handleAccepted(fd int) {
	slot, id, err := a.pool.Acquire()
	if err != nil {
		a.diag.Debugf("accept task: connection capacity reached, dropping")
		unix.Close(fd)
		return
	}
	if err := slot.init(a.reactor, fd, a.pool, id, a.tasks, a.slowDuration, a.diag); err != nil {
		a.diag.Errorf("accept task: initializing connection: %v", err)
		a.pool.Release(id)
		unix.Close(fd)
	}
}
