package scheduler

import "errors"

var (
	// ErrInvalidInterval is returned when a task is registered without a
	// positive interval
	ErrInvalidInterval = errors.New("scheduler: interval must be positive")

	// ErrDuplicateTask is returned when a task name is registered twice
	ErrDuplicateTask = errors.New("scheduler: task already registered")

	// ErrTaskNotFound is returned by RunNow for an unknown task
	ErrTaskNotFound = errors.New("scheduler: task not found")

	// ErrTaskRunning is returned by RunNow while the task is still running
	ErrTaskRunning = errors.New("scheduler: task already running")

	// ErrSchedulerRunning is returned when registering after Start
	ErrSchedulerRunning = errors.New("scheduler: already started")
)
