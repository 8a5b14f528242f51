package scheduler

import "errors"

var (
	// ErrPoolClosed is returned by Submit and Start after Shutdown.
	ErrPoolClosed = errors.New("scheduler: pool is shut down")

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("scheduler: pool already started")

	// ErrNilTask is returned when Submit receives a nil task.
	ErrNilTask = errors.New("scheduler: nil task")
)
