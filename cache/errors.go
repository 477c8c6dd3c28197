package cache

import (
	"errors"
	"fmt"
	"time"
)

// Predefined errors
var (
	// ErrNotFound is returned when no readable document exists.
	// The synchronizer recovers from it with a full rebuild.
	ErrNotFound = errors.New("cache: document not found")
)

// Error constructors

// ErrInvalidConfig returns an error for an invalid configuration
func ErrInvalidConfig(msg string) error {
	return fmt.Errorf("cache: invalid config: %s", msg)
}

// ErrInvalidSlug returns an error for a slug that yields no file name
func ErrInvalidSlug(slug string) error {
	return fmt.Errorf("cache: invalid slug: %q (must contain letters or digits)", slug)
}

// ErrLockTimeout returns an error for a lock that could not be acquired in time
func ErrLockTimeout(path string, timeout time.Duration) error {
	return fmt.Errorf("cache: timed out after %v waiting for lock on %s", timeout, path)
}

// ErrLock wraps a failure to open or lock the lock file
func ErrLock(path string, err error) error {
	return fmt.Errorf("cache: failed to lock %s: %w", path, err)
}

// ErrCreateDir wraps a failure to create the feed directory
func ErrCreateDir(dir string, err error) error {
	return fmt.Errorf("cache: failed to create directory %s: %w", dir, err)
}

// ErrWrite wraps a failure to persist the document
func ErrWrite(path string, err error) error {
	return fmt.Errorf("cache: failed to write %s: %w", path, err)
}

// ErrDelete wraps a failure to remove the document
func ErrDelete(path string, err error) error {
	return fmt.Errorf("cache: failed to delete %s: %w", path, err)
}
