package wordpress

import (
	"errors"
	"fmt"
)

var (
	// ErrNilDatabase is returned when New is called without a database
	ErrNilDatabase = errors.New("wordpress: database is required")
)

func ErrInvalidConfig(msg string) error {
	return fmt.Errorf("wordpress: invalid config: %s", msg)
}

// ErrQuery wraps a failed query against table
func ErrQuery(table string, err error) error {
	return fmt.Errorf("wordpress: query %s: %w", table, err)
}
