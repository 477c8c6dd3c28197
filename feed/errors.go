package feed

import (
	"errors"
	"fmt"
)

var (
	// ErrRecordNotFound is returned by a Gateway when the record does not exist.
	// The synchronizer treats it the same as a deleted record.
	ErrRecordNotFound = errors.New("feed: record not found")
)

// ErrInvalidEventKind returns an error for an unknown event kind
func ErrInvalidEventKind(kind string) error {
	return fmt.Errorf("feed: invalid event kind %q (must be saved, trashed or deleted)", kind)
}

// ErrMalformedDocument returns an error for a document that breaks the feed shape
func ErrMalformedDocument(reason string) error {
	return fmt.Errorf("feed: malformed document: %s", reason)
}

// ErrInvalidConfig returns an error for an invalid feed configuration
func ErrInvalidConfig(msg string) error {
	return fmt.Errorf("feed: invalid config: %s", msg)
}
