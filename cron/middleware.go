package cron

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/dailyyoga/jsonify/logger"
	"go.uber.org/zap"
)

// Middleware decorates a Task
type Middleware func(Task) Task

// NewTask adapts a function to the Task interface
func NewTask(name string, run func(ctx context.Context) error) Task {
	return &taskFunc{name: name, run: run}
}

type taskFunc struct {
	name string
	run  func(ctx context.Context) error
}

func (t *taskFunc) Name() string                  { return t.name }
func (t *taskFunc) Run(ctx context.Context) error { return t.run(ctx) }

// applyMiddlewares wraps t so that mws[0] is the outermost layer
func applyMiddlewares(t Task, mws ...Middleware) Task {
	for i := len(mws) - 1; i >= 0; i-- {
		t = mws[i](t)
	}
	return t
}

// recoveryMiddleware turns a panicking task into a failed one
func recoveryMiddleware(log logger.Logger) Middleware {
	return func(next Task) Task {
		return NewTask(next.Name(), func(ctx context.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("task panicked",
						zap.String("task", next.Name()),
						zap.Any("panic", r),
						zap.ByteString("stack", debug.Stack()),
					)
					err = ErrPanic(next.Name(), r)
				}
			}()
			return next.Run(ctx)
		})
	}
}

// loggingMiddleware records the start, outcome and duration of every run
func loggingMiddleware(log logger.Logger) Middleware {
	return func(next Task) Task {
		return NewTask(next.Name(), func(ctx context.Context) error {
			start := time.Now()
			log.Info("task started", zap.String("task", next.Name()))

			err := next.Run(ctx)
			fields := []zap.Field{
				zap.String("task", next.Name()),
				zap.Duration("duration", time.Since(start)),
			}
			if err != nil {
				log.Error("task failed", append(fields, zap.Error(err))...)
				return err
			}
			log.Info("task completed", fields...)
			return nil
		})
	}
}

// TimeoutMiddleware bounds every task run by d
func TimeoutMiddleware(d time.Duration) Middleware {
	return func(next Task) Task {
		return NewTask(next.Name(), func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next.Run(ctx)
		})
	}
}
