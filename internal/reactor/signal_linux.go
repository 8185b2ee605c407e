//go:build linux

package reactor

import (
	"encoding/binary"

	"golang.org/x/sys/unix"
)

// Signal is an eventfd-backed async watcher: any goroutine may Fire it,
// causing the owning Reactor to invoke a callback exactly once per Start.
// Each connection owns its own Signal rather than sharing one wakeup fd
// per reactor, so it can be independently started, stopped and fired
// without affecting any other connection's watcher.
type Signal struct {
	fd       int
	reactor  *Reactor
	callback func()
	started  bool
}

// NewSignal creates the eventfd but does not yet register it with r.
func NewSignal(r *Reactor, callback func()) (*Signal, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, err
	}
	return &Signal{fd: fd, reactor: r, callback: callback}, nil
}

// Start begins watching the eventfd for a Fire. Idempotent.
func (s *Signal) Start() error {
	if s.started {
		return nil
	}
	if err := s.reactor.Register(s.fd, EventRead, s.onReadable); err != nil {
		return err
	}
	s.started = true
	return nil
}

// Stop stops watching the eventfd. Idempotent; does not close it.
func (s *Signal) Stop() error {
	if !s.started {
		return nil
	}
	s.started = false
	return s.reactor.Unregister(s.fd)
}

// Close releases the eventfd. Callers must Stop before Close if Start was
// ever called.
func (s *Signal) Close() error {
	return unix.Close(s.fd)
}

// Fire wakes the reactor and schedules callback to run on its thread. Safe
// to call from any goroutine, including one that isn't the reactor's own —
// this is the primitive's entire purpose: a worker thread fires a
// connection's Signal to hand control back to its reactor.
func (s *Signal) Fire() {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	_, _ = unix.Write(s.fd, buf[:])
}

func (s *Signal) onReadable(events IOEvents) {
	var buf [8]byte
	_, _ = unix.Read(s.fd, buf[:])
	s.callback()
}
