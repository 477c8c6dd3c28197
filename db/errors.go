package db

import (
	"errors"
	"fmt"
)

// ErrConnectionNotEstablished is returned by DB before a connection was opened
var ErrConnectionNotEstablished = errors.New("db: connection not established")

// ErrInvalidConfig reports a configuration rejected by Validate
func ErrInvalidConfig(msg string) error {
	return fmt.Errorf("db: invalid config: %s", msg)
}

// ErrConnection wraps a failure to open or reach the database
func ErrConnection(err error) error {
	return fmt.Errorf("db: connect: %w", err)
}
