// Package scheduler provides the periodic ticker loops driving the
// telemetry poll and the heartbeat check.
package scheduler

import "errors"

var (
	ErrSchedulerAlreadyRunning = errors.New("scheduler is already running")
	ErrSchedulerNotRunning     = errors.New("scheduler is not running")
)
