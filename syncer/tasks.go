package syncer

import (
	"context"

	"github.com/dailyyoga/jsonify/cron"
)

// shared data key set by RebuildTask inside a cron chain
const rebuiltKey = "syncer:rebuilt"

// RebuildTask runs a full rebuild on a schedule
type RebuildTask struct {
	engine *Engine
}

// NewRebuildTask creates a cron task that rebuilds the document
func NewRebuildTask(e *Engine) *RebuildTask {
	return &RebuildTask{engine: e}
}

// Name returns the task name
func (t *RebuildTask) Name() string { return "feed-rebuild" }

// Run rebuilds the document
func (t *RebuildTask) Run(ctx context.Context) error {
	if _, err := t.engine.Rebuild(ctx); err != nil {
		return err
	}
	cron.GetSharedData(ctx).Mark(rebuiltKey)
	return nil
}

// SweepTask removes expired items on a schedule
type SweepTask struct {
	engine *Engine
}

// NewSweepTask creates a cron task that sweeps expired items
func NewSweepTask(e *Engine) *SweepTask {
	return &SweepTask{engine: e}
}

// Name returns the task name
func (t *SweepTask) Name() string { return "feed-expiry-sweep" }

// Run sweeps expired items. It is skipped when an earlier task in the
// same chain already rebuilt the document.
func (t *SweepTask) Run(ctx context.Context) error {
	if cron.GetSharedData(ctx).Marked(rebuiltKey) {
		return nil
	}
	_, err := t.engine.SweepExpired(ctx)
	return err
}
