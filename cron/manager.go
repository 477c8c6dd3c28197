package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dailyyoga/jsonify/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// chainJob represents a chain of tasks that execute sequentially
type chainJob struct {
	name   string
	tasks  []Task
	logger logger.Logger
	ctx    context.Context
}

func newChainJob(log logger.Logger, name string, tasks []Task, mws []Middleware) *chainJob {
	// apply middlewares to all tasks
	wrapped := make([]Task, len(tasks))
	for i, task := range tasks {
		// prefix with the chain name so logs identify the schedule
		prefixed := NewTask(name+":"+task.Name(), task.Run)
		wrapped[i] = applyMiddlewares(prefixed, mws...)
	}
	return &chainJob{name: name, tasks: wrapped, logger: log, ctx: context.Background()}
}

// Run implements cron.Job
func (j *chainJob) Run() {
	_ = j.run(j.ctx)
}

// run executes all tasks in the chain sequentially
// If any task fails, the chain is aborted and subsequent tasks are not executed
func (j *chainJob) run(parent context.Context) error {
	ctx := withSharedData(parent)

	j.logger.Info("chain job started", zap.String("chain_name", j.name))

	for _, task := range j.tasks {
		if err := task.Run(ctx); err != nil {
			j.logger.Error("chain job aborted due to task failure",
				zap.String("chain_name", j.name),
				zap.String("task_name", task.Name()),
				zap.Error(err),
			)
			return err
		}
	}

	j.logger.Info("chain job completed", zap.String("chain_name", j.name))
	return nil
}

// cronManager is the default implementation of the Cron interface
type cronManager struct {
	cron        *cron.Cron
	middlewares []Middleware
	logger      logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// newCronManager creates a new cron manager instance
func newCronManager(log logger.Logger, cfg *Config, mws ...Middleware) (*cronManager, error) {
	loc, err := time.LoadLocation(cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("cron: invalid location %q: %w", cfg.Location, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &cronManager{
		cron:        cron.New(cron.WithParser(specParser), cron.WithLocation(loc)),
		middlewares: mws,
		logger:      log,
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Start begins the cron scheduler
func (m *cronManager) Start() {
	m.cron.Start()
}

// Close stops the cron scheduler and waits for running jobs to complete
func (m *cronManager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	ctx := m.cron.Stop()
	<-ctx.Done()
}

// AddTasks adds a chain of tasks to be executed according to the cron spec
// The spec follows the standard cron format with support for seconds (6 fields)
// Example: "0 0 * * * *" (every hour at minute 0, second 0)
func (m *cronManager) AddTasks(name, spec string, tasks ...Task) error {
	if len(tasks) == 0 {
		return ErrNoTasks
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrCronClosed
	}

	job := newChainJob(m.logger, name, tasks, m.middlewares)
	job.ctx = m.ctx

	if _, err := m.cron.AddJob(spec, job); err != nil {
		return ErrAddChain(name, spec, err)
	}

	m.logger.Info("chain added",
		zap.String("chain_name", name),
		zap.String("spec", spec),
		zap.Int("task_count", len(tasks)),
	)

	return nil
}

// AddChain is alias for AddTasks
func (m *cronManager) AddChain(chain Chain) error {
	return m.AddTasks(chain.Name, chain.Spec, chain.Tasks...)
}
