package scheduler

import "errors"

var (
	// ErrPoolNotRunning is returned when trying to submit work to a stopped pool
	ErrPoolNotRunning = errors.New("worker pool is not running")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid worker pool configuration")
)
