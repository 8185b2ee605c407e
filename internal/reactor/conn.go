//go:build linux

package reactor

import (
	"fmt"

	"reactor-demo/internal/parser"
	"reactor-demo/internal/slab"
	"reactor-demo/internal/taskpool"
	"reactor-demo/internal/wire"
	"time"

	"golang.org/x/sys/unix"
)

// bufSize is the fixed per-connection receive buffer: a request whose
// request-line plus headers doesn't fit is a protocol error, not a
// growable-buffer case.
const bufSize = 4096

// connState exists for readability only; the
// transitions themselves are driven by which callback fires and by the
// readExpected/asyncOutstanding flags, not by switching on this value.
type connState int

const (
	stateReading connState = iota
	stateOffloaded
	stateWriting
	stateTerminating
)

func (s connState) String() string {
	switch s {
	case stateReading:
		return "READING"
	case stateOffloaded:
		return "OFFLOADED"
	case stateWriting:
		return "WRITING"
	case stateTerminating:
		return "TERMINATING"
	default:
		return "UNKNOWN"
	}
}

// Conn is a single accepted connection's context: receive buffer, parser
// state and the read/write/async plumbing. It is allocated in place inside
// a slab.Pool[Conn] and reused across connections, never individually
// heap-allocated.
type Conn struct {
	reactor *Reactor
	fd      int
	pool    *slab.Pool[Conn]
	slabID  int

	tasks        *taskpool.Pool
	slowDuration time.Duration
	diag         diagLogger

	buf          [bufSize]byte
	received     int
	parser       *parser.Parser
	readExpected bool
	sent         int

	asyncOutstanding bool
	signal           *Signal
	state            connState
}

// init constructs c in place over an already-accepted, non-blocking fd.
// Called once per Acquire.
func (c *Conn) init(r *Reactor, fd int, pool *slab.Pool[Conn], id int, tasks *taskpool.Pool, slowDuration time.Duration, diag diagLogger) error {
	c.reactor = r
	c.fd = fd
	c.pool = pool
	c.slabID = id
	c.tasks = tasks
	c.slowDuration = slowDuration
	c.diag = diag
	c.received = 0
	c.parser = parser.New()
	c.readExpected = true
	c.sent = 0
	c.asyncOutstanding = false
	c.state = stateReading

	sig, err := NewSignal(r, c.onAsync)
	if err != nil {
		return err
	}
	c.signal = sig

	if err := r.Register(fd, EventRead, c.onIO); err != nil {
		sig.Close()
		return err
	}
	if diag != nil {
		diag.Debugf("conn %d: created", fd)
	}
	return nil
}

func (c *Conn) onIO(events IOEvents) {
	if events&EventRead != 0 && c.fd != 0 {
		if c.readExpected {
			c.readConn()
		} else {
			c.readUnexpected()
		}
	}
	if events&EventWrite != 0 && c.fd != 0 {
		c.writeConn()
	}
}

func (c *Conn) readConn() {
	n, err := unix.Read(c.fd, c.buf[c.received:bufSize])
	if err != nil {
		if err == unix.EAGAIN {
			return
		}
		if err == unix.ENOTCONN {
			c.diag.Debugf("conn %d: peer reset", c.fd)
			c.destroy()
			return
		}
		c.reactor.fail(fmt.Errorf("conn %d: recv: %w", c.fd, err))
		return
	}
	if n == 0 {
		c.diag.Debugf("conn %d: peer shutdown", c.fd)
		c.destroy()
		return
	}
	c.received += n

	switch c.parser.Step(c.buf[:c.received]) {
	case parser.Terminate:
		c.destroy()
		return
	case parser.Proceed:
		c.diag.Debugf("conn %d: classified service=%d", c.fd, c.parser.Service)
		c.readExpected = false
		c.onClassified()
		return
	}

	if c.received >= bufSize {
		c.diag.Errorf("conn %d: request line did not fit in %d bytes", c.fd, bufSize)
		c.destroy()
		return
	}
}

// onClassified handles the parser reaching a complete request: fast
// requests (and any request when no worker threads exist) are answered
// inline; slow requests are handed to the thread pool with the read side
// still armed, so readUnexpected must treat any further read on this fd as
// a protocol violation while the slow task is in flight.
func (c *Conn) onClassified() {
	if c.parser.Service != parser.Slow || c.tasks == nil || c.tasks.Workers() == 0 {
		c.armWrite()
		return
	}
	if err := c.signal.Start(); err != nil {
		c.diag.Errorf("conn %d: starting async watcher: %v", c.fd, err)
		c.destroy()
		return
	}
	c.asyncOutstanding = true
	c.state = stateOffloaded
	c.tasks.AddTask(&slowTask{conn: c, duration: c.slowDuration})
}

// armWrite arms both read and write interest: further reads are routed to
// readUnexpected, which treats any further peer activity as a protocol
// violation.
func (c *Conn) armWrite() {
	c.state = stateWriting
	if err := c.reactor.Modify(c.fd, EventRead|EventWrite); err != nil {
		c.diag.Errorf("conn %d: arming write: %v", c.fd, err)
		c.destroy()
		return
	}
}

func (c *Conn) writeConn() {
	n, err := unix.Write(c.fd, wire.ResponseBytes[c.sent:])
	if err != nil {
		if err == unix.EAGAIN {
			return
		}
		c.reactor.fail(fmt.Errorf("conn %d: send: %w", c.fd, err))
		return
	}
	c.sent += n
	if c.sent == len(wire.ResponseBytes) {
		c.diag.Debugf("conn %d: sent reply", c.fd)
		c.destroy()
		return
	}
}

// readUnexpected handles any read activity once readExpected is false:
// either the peer sent more data than the protocol allows, or it closed
// the connection early. If a slow task is still outstanding the Conn must
// outlive it (the task will fire the Signal later), so this only closes
// the socket and defers destruction to onAsync; otherwise it destroys
// immediately.
func (c *Conn) readUnexpected() {
	var b [1]byte
	n, err := unix.Read(c.fd, b[:])
	if err != nil && err != unix.EAGAIN && err != unix.ENOTCONN {
		c.diag.Errorf("conn %d: recv: %v", c.fd, err)
	} else if err == unix.EAGAIN {
		return
	} else if err == unix.ENOTCONN {
		c.diag.Debugf("conn %d: peer reset (unexpected)", c.fd)
	} else if n == 0 {
		c.diag.Debugf("conn %d: peer shutdown (unexpected)", c.fd)
	} else {
		c.diag.Debugf("conn %d: unexpected read", c.fd)
	}

	if c.asyncOutstanding {
		c.state = stateTerminating
		c.terminate()
	} else {
		c.destroy()
	}
}

// onAsync is the Signal callback fired by a slowTask after it sleeps.
// asyncOutstanding is cleared first, before anything else in this method
// can observe it.
func (c *Conn) onAsync() {
	c.asyncOutstanding = false
	c.signal.Stop()
	if c.fd == 0 {
		// terminate() already ran while the task was in flight: the peer
		// went away during OFFLOADED. Finish the deferred destruction.
		c.destroy()
		return
	}
	c.armWrite()
}

// terminate idempotently stops and closes the connection's socket without
// releasing the slab slot — used for the peer-gone-while-offloaded path,
// where the Conn must stay alive until onAsync runs.
func (c *Conn) terminate() {
	if c.fd == 0 {
		return
	}
	c.diag.Debugf("conn %d: terminating", c.fd)
	c.reactor.Unregister(c.fd)
	unix.Close(c.fd)
	c.fd = 0
}

// destroy tears the connection down completely and returns its slab slot
// to the pool. terminate is idempotent, but destroy itself is not: every
// call closes the Signal and releases the slab slot again, so it runs
// exactly once per connection.
func (c *Conn) destroy() {
	c.terminate()
	if c.signal != nil {
		c.signal.Stop()
		c.signal.Close()
	}
	c.diag.Debugf("conn: destroying slot %d", c.slabID)
	c.pool.Release(c.slabID)
}
