package routine

import "fmt"

// ErrPanicRecovered is wrapped by every error produced from a recovered panic
var ErrPanicRecovered = fmt.Errorf("routine: panic recovered")

// ErrPanic returns an error wrapping the recovered panic value
func ErrPanic(name string, recovered any) error {
	if name == "" {
		return fmt.Errorf("%w: %v", ErrPanicRecovered, recovered)
	}
	return fmt.Errorf("%w in %s: %v", ErrPanicRecovered, name, recovered)
}
