package config

import "fmt"

// ErrParse wraps a malformed environment variable
func ErrParse(err error) error {
	return fmt.Errorf("config: parse env: %w", err)
}

// ErrInvalid wraps the validation failures of one or more sections
func ErrInvalid(err error) error {
	return fmt.Errorf("config: invalid: %w", err)
}
