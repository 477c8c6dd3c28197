package syncer

import (
	"errors"
	"fmt"
)

var (
	// ErrNilDependency is returned when the engine is built without a store or gateway
	ErrNilDependency = errors.New("syncer: store and gateway are required")
)

// ErrInvalidConfig returns an error for an invalid configuration
func ErrInvalidConfig(msg string) error {
	return fmt.Errorf("syncer: invalid config: %s", msg)
}

// ErrGateway wraps a content store failure other than a vanished record
func ErrGateway(err error) error {
	return fmt.Errorf("syncer: content store failed: %w", err)
}

// ErrDecodeEvent wraps a transport message that is not a mutation event
func ErrDecodeEvent(err error) error {
	return fmt.Errorf("syncer: failed to decode event: %w", err)
}
