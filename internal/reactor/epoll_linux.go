//go:build linux

// Package reactor implements the per-OS-thread event loop, connection state
// machine and accept task: epoll registration/dispatch built directly on
// golang.org/x/sys/unix's raw syscalls, since the standard net package
// doesn't expose the fd-level control this server's connection model
// needs.
package reactor

import "golang.org/x/sys/unix"

// IOEvents is a bitmask of readiness conditions a callback is invoked for.
type IOEvents uint32

const (
	EventRead IOEvents = 1 << iota
	EventWrite
	EventError
	EventHangup
)

// IOCallback is invoked with the readiness bits that fired for a fd.
type IOCallback func(events IOEvents)

// maxEvents bounds a single EpollWait batch; unrelated to accept_capacity.
const maxEvents = 128

// Reactor is a single epoll instance plus the fd->callback dispatch table.
// Every method except newReactor is only ever called from the goroutine
// that runs Run — a reactor is permanently owned by one OS thread, so
// there is deliberately no locking around registration here.
type Reactor struct {
	epfd      int
	callbacks map[int32]IOCallback
	events    [maxEvents]unix.EpollEvent
	fatalErr  error
}

func newReactor() (*Reactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &Reactor{epfd: epfd, callbacks: make(map[int32]IOCallback)}, nil
}

func toEpollEvents(ev IOEvents) uint32 {
	var out uint32
	if ev&EventRead != 0 {
		out |= unix.EPOLLIN
	}
	if ev&EventWrite != 0 {
		out |= unix.EPOLLOUT
	}
	return out
}

func fromEpollEvents(ev uint32) IOEvents {
	var out IOEvents
	if ev&unix.EPOLLIN != 0 {
		out |= EventRead
	}
	if ev&unix.EPOLLOUT != 0 {
		out |= EventWrite
	}
	if ev&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
		out |= EventHangup
	}
	if ev&unix.EPOLLERR != 0 {
		out |= EventError
	}
	return out
}

// Register starts monitoring fd for events, invoking cb on readiness.
func (r *Reactor) Register(fd int, events IOEvents, cb IOCallback) error {
	r.callbacks[int32(fd)] = cb
	ev := unix.EpollEvent{Events: toEpollEvents(events), Fd: int32(fd)}
	return unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
}

// Modify changes the interest set for an already-registered fd — used for
// the "arm write interest" / "arm read+write interest" transitions.
func (r *Reactor) Modify(fd int, events IOEvents) error {
	ev := unix.EpollEvent{Events: toEpollEvents(events), Fd: int32(fd)}
	return unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
}

// Unregister stops monitoring fd. It does not close fd.
func (r *Reactor) Unregister(fd int) error {
	delete(r.callbacks, int32(fd))
	return unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// fail records an unrecoverable error raised by a callback running inside
// Run and marks the reactor for shutdown. Only the first call has any
// effect. A connection- or accept-level error that isn't a protocol
// violation or a peer disconnect — an errno recv/send/accept has no
// business returning — is this class of failure: it takes down the whole
// reactor, not just the one fd, the same as an EpollWait failure does.
func (r *Reactor) fail(err error) {
	if r.fatalErr == nil {
		r.fatalErr = err
	}
}

// Run blocks forever, dispatching readiness callbacks. There is no
// shutdown protocol; Run only returns on an unrecoverable epoll_wait
// error or after a callback calls fail.
func (r *Reactor) Run() error {
	for {
		n, err := unix.EpollWait(r.epfd, r.events[:], -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return err
		}
		for i := 0; i < n; i++ {
			ev := r.events[i]
			cb, ok := r.callbacks[ev.Fd]
			if !ok {
				continue
			}
			cb(fromEpollEvents(ev.Events))
			if r.fatalErr != nil {
				return r.fatalErr
			}
		}
	}
}
