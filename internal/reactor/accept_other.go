//go:build !linux

package reactor

import (
	"time"

	"reactor-demo/internal/taskpool"
)

func PoolMemSize(capacity int) int { return 0 }

type AcceptTask struct{}

func NewAcceptTask(port, capacity int, tasks *taskpool.Pool, slowDuration time.Duration, diag diagLogger) (*AcceptTask, error) {
	return nil, ErrUnsupportedPlatform
}

func (a *AcceptTask) Execute() {}
