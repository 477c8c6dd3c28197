package logger

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every configuration error of this package
var ErrInvalidConfig = errors.New("logger: invalid config")

// ErrBuildLogger wraps a failure of the zap builder
func ErrBuildLogger(err error) error {
	return fmt.Errorf("logger: build: %w", err)
}

// ErrInvalidLevel reports a level zap cannot parse
func ErrInvalidLevel(level string, err error) error {
	return fmt.Errorf("%w: level %q: %w", ErrInvalidConfig, level, err)
}

// ErrInvalidEncoding reports an encoding other than json or console
func ErrInvalidEncoding(encoding string) error {
	return fmt.Errorf("%w: encoding %q (want json or console)", ErrInvalidConfig, encoding)
}
