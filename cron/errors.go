package cron

import "fmt"

var (
	// ErrNoTasks is returned when attempting to add a chain job with no tasks
	ErrNoTasks = fmt.Errorf("cron: no tasks provided")

	// ErrInvalidSpec is returned when a cron spec string is invalid
	ErrInvalidSpec = fmt.Errorf("cron: invalid cron spec")

	// ErrCronClosed is returned when attempting to operate on a closed cron manager
	ErrCronClosed = fmt.Errorf("cron: cron manager is closed")
)

// ErrAddChain wraps a failure to register a chain with the scheduler
func ErrAddChain(name, spec string, err error) error {
	return fmt.Errorf("cron: failed to add chain %s with spec %s: %w", name, spec, err)
}

// ErrPanic converts a recovered panic into an error
func ErrPanic(task string, r any) error {
	return fmt.Errorf("cron: task %s panicked: %v", task, r)
}
