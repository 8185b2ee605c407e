//go:build linux

package server

import (
	"net"
	"testing"

	"reactor-demo/internal/config"
	"reactor-demo/internal/diag"
)

// TestRunReturnsStartupErrOnBindFailure exercises the one codepath of Run
// that can return without blocking forever: a bind failure before the main
// accept task's event loop starts. Binding the probe listener without
// SO_REUSEPORT guarantees our SO_REUSEPORT socket still collides with it.
func TestRunReturnsStartupErrOnBindFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("probe listen: %v", err)
	}
	defer l.Close()
	port := l.Addr().(*net.TCPAddr).Port

	opts := config.Options{
		Port:           port,
		AcceptThreads:  1,
		WorkerThreads:  1,
		AcceptCapacity: 4,
		SlowDuration:   10,
	}

	code := Run(opts, diag.New(false))
	if code != ExitStartupErr {
		t.Fatalf("Run() = %d, want ExitStartupErr (%d)", code, ExitStartupErr)
	}
}
