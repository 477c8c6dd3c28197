// Package routine runs the long-lived goroutines of a jsonify process with
// panic recovery.
//
// A Runner ties a set of named goroutines to one context: the first one to
// fail or panic cancels the others, and Wait reports that first error.
package routine

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/dailyyoga/jsonify/logger"
	"go.uber.org/zap"
)

// Runner supervises named goroutines sharing one context
type Runner interface {
	// Go runs fn in a new goroutine with panic recovery.
	// A non-nil error or a panic cancels the runner's context.
	Go(name string, fn func(ctx context.Context) error)

	// Context is cancelled when the parent is cancelled or any goroutine fails
	Context() context.Context

	// Wait waits for all goroutines and returns the first failure
	Wait() error
}

// defaultRunner implements Runner interface
type defaultRunner struct {
	log    logger.Logger
	ctx    context.Context
	cancel context.CancelFunc

	wg   sync.WaitGroup
	once sync.Once
	err  error
}

// New creates a new Runner whose context derives from parent
func New(parent context.Context, log logger.Logger) Runner {
	ctx, cancel := context.WithCancel(parent)
	return &defaultRunner{
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Go runs fn in a new goroutine
func (r *defaultRunner) Go(name string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.run(name, fn); err != nil {
			r.once.Do(func() {
				r.err = err
				r.cancel()
			})
		}
	}()
}

// Context returns the shared context
func (r *defaultRunner) Context() context.Context {
	return r.ctx
}

// Wait waits for all goroutines started by this runner to complete
func (r *defaultRunner) Wait() error {
	r.wg.Wait()
	r.cancel()
	return r.err
}

func (r *defaultRunner) run(name string, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logPanic(r.log, name, rec)
			err = ErrPanic(name, rec)
		}
	}()
	return fn(r.ctx)
}

// GoNamed is a convenience function that executes a named function
// in a new goroutine with panic recovery
func GoNamed(log logger.Logger, name string, fn func()) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				logPanic(log, name, rec)
			}
		}()
		fn()
	}()
}

func logPanic(log logger.Logger, name string, rec any) {
	fields := []zap.Field{
		zap.Any("panic", rec),
		zap.String("stack", string(debug.Stack())),
	}
	if name != "" {
		fields = append([]zap.Field{zap.String("routine", name)}, fields...)
	}
	log.Error("goroutine panicked", fields...)
}
