// Package syncer keeps the feed document in step with the content store.
//
// Each call to Engine.Handle is stateless: it loads the persisted document,
// decides between a full rebuild and a single-entry patch, and writes the
// result back while holding the cache lock for the whole cycle.
package syncer

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/dailyyoga/jsonify/cache"
	"github.com/dailyyoga/jsonify/feed"
	"github.com/dailyyoga/jsonify/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Action is what an invocation did to the document
type Action string

const (
	ActionRebuild    Action = "rebuild"
	ActionUpsert     Action = "upsert"
	ActionRemove     Action = "remove"
	ActionSuppressed Action = "suppressed"
	ActionSweep      Action = "sweep"
)

// Outcome describes one invocation of the engine
type Outcome struct {
	EventID     string
	Kind        feed.EventKind
	SubjectID   uint64
	EffectiveID uint64
	Revision    bool
	Action      Action
	// Items is the number of posts in the document after the write
	Items int
	// Removed lists the ids dropped by an expiry sweep
	Removed  []uint64
	Duration time.Duration
	Err      error
}

// Journal receives every outcome. Implementations must not block.
type Journal interface {
	Record(o Outcome)
}

// Option customizes an Engine
type Option func(*Engine)

// WithClock overrides the time source used for visibility decisions
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithJournal sends outcomes to j
func WithJournal(j Journal) Option {
	return func(e *Engine) {
		e.journal = j
	}
}

// WithFeedConfig sets the visibility and formatting rules
func WithFeedConfig(cfg *feed.Config, opts ...feed.FormatterOption) Option {
	return func(e *Engine) {
		e.policy = feed.NewPolicy(cfg)
		e.formatter = feed.NewFormatter(cfg, opts...)
	}
}

// Engine is the synchronization engine
type Engine struct {
	logger    logger.Logger
	store     cache.Store
	gateway   feed.Gateway
	policy    *feed.Policy
	formatter *feed.Formatter
	journal   Journal
	now       func() time.Time

	maxPosts int
}

// New creates an engine over store and gateway
func New(log logger.Logger, store cache.Store, gateway feed.Gateway, cfg *Config, opts ...Option) (*Engine, error) {
	if store == nil || gateway == nil {
		return nil, ErrNilDependency
	}
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg = cfg.MergeDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	e := &Engine{
		logger:    log,
		store:     store,
		gateway:   gateway,
		policy:    feed.NewPolicy(nil),
		formatter: feed.NewFormatter(nil),
		now:       time.Now,
		maxPosts:  cfg.MaxPosts,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Path returns the location of the managed document
func (e *Engine) Path() string {
	return e.store.Path()
}

// Handle processes one mutation event.
//
// A missing document, or an event without a subject, rebuilds the whole
// document. Otherwise only the effective subject's entry is touched.
// Autosave events return immediately without any I/O.
func (e *Engine) Handle(ctx context.Context, ev feed.MutationEvent) (Outcome, error) {
	start := e.now()
	out := Outcome{EventID: ev.ID, Kind: ev.Kind}
	if out.EventID == "" {
		out.EventID = uuid.NewString()
	}

	if ev.Autosave {
		out.Action = ActionSuppressed
		return e.finish(out, start, nil)
	}
	if err := ev.Validate(); err != nil {
		return e.finish(out, start, err)
	}

	revision := false
	if ev.HasSubject() {
		out.SubjectID = *ev.SubjectID
		effective, isRevision, err := feed.ResolveSubject(ctx, e.gateway, out.SubjectID)
		if err != nil {
			return e.finish(out, start, ErrGateway(err))
		}
		out.EffectiveID, out.Revision = effective, isRevision
		revision = isRevision
	}

	err := e.store.Update(ctx, func(current *feed.Document) (*feed.Document, error) {
		if current == nil || !ev.HasSubject() {
			doc, err := e.build(ctx)
			if err != nil {
				return nil, err
			}
			out.Action = ActionRebuild
			out.Items = len(doc.Posts)
			return doc, nil
		}

		// a removal event about a revision says nothing about the parent
		forceRemove := ev.Kind.Removal() && !revision
		visible, item, err := e.evaluate(ctx, out.EffectiveID, forceRemove)
		if err != nil {
			return nil, err
		}
		meta, err := e.gateway.SiteMetadata(ctx)
		if err != nil {
			return nil, ErrGateway(err)
		}

		current.Metadata = meta
		if visible {
			current.Posts[out.EffectiveID] = item
			out.Action = ActionUpsert
		} else {
			delete(current.Posts, out.EffectiveID)
			out.Action = ActionRemove
		}
		out.Items = len(current.Posts)
		return current, nil
	})

	return e.finish(out, start, err)
}

// Rebuild regenerates the whole document from the content store
func (e *Engine) Rebuild(ctx context.Context) (Outcome, error) {
	return e.Handle(ctx, feed.RebuildRequest())
}

// RegenerateReport is the operator-facing result of Regenerate
type RegenerateReport struct {
	Path      string
	Deleted   bool
	DeleteErr error
	Items     int
	Err       error
}

// Regenerate deletes the document and rebuilds it. The rebuild runs even
// when the delete fails, which is expected when no document existed.
func (e *Engine) Regenerate(ctx context.Context) RegenerateReport {
	report := RegenerateReport{Path: e.store.Path()}

	if err := e.store.Delete(ctx); err != nil {
		report.DeleteErr = err
		if !errors.Is(err, cache.ErrNotFound) {
			e.logger.Warn("failed to delete feed document before regenerating",
				zap.String("path", report.Path),
				zap.Error(err),
			)
		}
	} else {
		report.Deleted = true
	}

	out, err := e.Rebuild(ctx)
	report.Items = out.Items
	report.Err = err
	return report
}

// SweepExpired removes cached items whose expiry field has been reached.
// Nothing is written when no item expired or no document exists.
func (e *Engine) SweepExpired(ctx context.Context) (Outcome, error) {
	start := e.now()
	out := Outcome{EventID: uuid.NewString(), Action: ActionSweep}
	field := e.policy.ExpiryField()

	err := e.store.Update(ctx, func(current *feed.Document) (*feed.Document, error) {
		if current == nil {
			return nil, nil
		}
		out.Items = len(current.Posts)

		now := e.now()
		var removed []uint64
		for id, item := range current.Posts {
			if value, ok := item.Custom[field]; ok && e.policy.Expired(value, now) {
				removed = append(removed, id)
			}
		}
		if len(removed) == 0 {
			return nil, nil
		}

		meta, err := e.gateway.SiteMetadata(ctx)
		if err != nil {
			return nil, ErrGateway(err)
		}
		current.Metadata = meta
		for _, id := range removed {
			delete(current.Posts, id)
		}
		slices.Sort(removed)
		out.Removed = removed
		out.Items = len(current.Posts)
		return current, nil
	})

	return e.finish(out, start, err)
}

// build enumerates the content store into a fresh document
func (e *Engine) build(ctx context.Context) (*feed.Document, error) {
	records, err := e.gateway.ListPublished(ctx, e.maxPosts)
	if err != nil {
		return nil, ErrGateway(err)
	}
	meta, err := e.gateway.SiteMetadata(ctx)
	if err != nil {
		return nil, ErrGateway(err)
	}

	now := e.now()
	doc := feed.NewDocument(meta)
	for _, r := range records {
		if e.policy.IsVisible(r, now) {
			doc.Posts[r.ID] = e.formatter.Format(r)
		}
	}
	return doc, nil
}

// evaluate fetches one record and decides whether it belongs in the document
func (e *Engine) evaluate(ctx context.Context, id uint64, forceRemove bool) (bool, feed.Item, error) {
	if forceRemove {
		return false, feed.Item{}, nil
	}

	record, err := e.gateway.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, feed.ErrRecordNotFound) {
			return false, feed.Item{}, ErrGateway(err)
		}
		// vanished records are indistinguishable from deleted ones
		record = nil
	}

	status := e.policy.Classify(record, e.now())
	if status != feed.StatusPublished {
		e.logger.Debug("record not visible",
			zap.Uint64("effective_id", id),
			zap.Stringer("status", status),
		)
		return false, feed.Item{}, nil
	}
	return true, e.formatter.Format(record), nil
}

func (e *Engine) finish(out Outcome, start time.Time, err error) (Outcome, error) {
	out.Duration = e.now().Sub(start)
	out.Err = err

	fields := []zap.Field{
		zap.String("event_id", out.EventID),
		zap.String("kind", string(out.Kind)),
		zap.Uint64("subject_id", out.SubjectID),
		zap.Uint64("effective_id", out.EffectiveID),
		zap.String("action", string(out.Action)),
		zap.Int("items", out.Items),
		zap.Duration("duration", out.Duration),
	}
	switch {
	case err != nil:
		e.logger.Error("feed sync failed", append(fields, zap.Error(err))...)
	case out.Action == ActionSuppressed:
		e.logger.Debug("autosave event suppressed", fields...)
	default:
		e.logger.Info("feed synced", append(fields, zap.Int("removed", len(out.Removed)))...)
	}

	if e.journal != nil {
		e.journal.Record(out)
	}
	return out, err
}
