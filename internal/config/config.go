// Package config resolves the small set of knobs the core consumes as
// plain runtime configuration values, exposed as GNU-style long flags via
// pflag.
package config

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/spf13/pflag"
)

// Options holds the fully resolved configuration for one server run.
type Options struct {
	Port           int
	AcceptThreads  int
	WorkerThreads  int
	AcceptCapacity int
	SlowDuration   int // milliseconds
	Verbose        bool
	Daemonize      bool
}

// ErrMissingRequired is returned when a required option has no value.
var ErrMissingRequired = errors.New("config: missing required option")

// Parse resolves Options from argv (excluding the program name).
// Unlike pflag's package-level FlagSet, this never calls os.Exit: parse
// and validation failures are returned so the caller maps them to an
// exit code (see cmd/server/main.go).
func Parse(args []string) (Options, error) {
	fs := pflag.NewFlagSet("reactor-demo", pflag.ContinueOnError)
	fs.SetOutput(new(discard))

	port := fs.Int("port", 0, "TCP port to bind (required)")
	acceptThreads := fs.Int("accept-threads", 0, "number of reactors (default: hardware parallelism)")
	workerThreads := fs.Int("worker-threads", 0, "workers for slow tasks (default: accept-threads)")
	acceptCapacity := fs.Int("accept-capacity", 0, "slab size per reactor (required)")
	slowDuration := fs.Int("slow-duration", 0, "milliseconds a slow task sleeps (required)")
	verbose := fs.BoolP("verbose", "v", false, "enable diagnostic output")
	daemonize := fs.Bool("daemonize", false, "detach process; chdir /var/tmp")

	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}

	if *port <= 0 {
		return Options{}, fmt.Errorf("%w: --port", ErrMissingRequired)
	}
	if *acceptCapacity <= 0 {
		return Options{}, fmt.Errorf("%w: --accept-capacity", ErrMissingRequired)
	}
	if *slowDuration <= 0 {
		return Options{}, fmt.Errorf("%w: --slow-duration", ErrMissingRequired)
	}

	at := *acceptThreads
	if at <= 0 {
		at = runtime.NumCPU()
	}
	wt := *workerThreads
	if wt <= 0 {
		wt = at
	}

	return Options{
		Port:           *port,
		AcceptThreads:  at,
		WorkerThreads:  wt,
		AcceptCapacity: *acceptCapacity,
		SlowDuration:   *slowDuration,
		Verbose:        *verbose,
		Daemonize:      *daemonize,
	}, nil
}

// discard implements io.Writer, swallowing pflag's own usage/error output
// so callers fully own diagnostic formatting.
type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
