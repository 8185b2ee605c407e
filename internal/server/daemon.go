package server

import (
	"os"

	"golang.org/x/sys/unix"
)

// daemonize detaches the process from its controlling terminal: chdir to
// a fixed directory (avoiding the "can't unmount" problem of staying in
// whatever dir launched us) and start a new session, same as libc's
// daemon(3). Unlike libc's daemon(), this does not fork — Go's runtime
// does not support fork safely once goroutines exist, and by the time
// this runs the worker threads are already running the other accept
// tasks on their listening sockets. Stdio is left attached when verbose
// so debug logging remains visible.
func daemonize(verbose bool) error {
	const dir = "/var/tmp"
	if err := os.Chdir(dir); err != nil {
		return err
	}
	if _, err := unix.Setsid(); err != nil {
		return err
	}
	if verbose {
		return nil
	}
	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer devNull.Close()
	fd := int(devNull.Fd())
	for _, std := range []int{0, 1, 2} {
		if err := unix.Dup2(fd, std); err != nil {
			return err
		}
	}
	return nil
}
