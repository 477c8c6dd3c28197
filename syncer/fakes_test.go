package syncer

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dailyyoga/jsonify/cache"
	"github.com/dailyyoga/jsonify/feed"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var fixedNow = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

// memoryGateway is an in-memory content store
type memoryGateway struct {
	mu        sync.Mutex
	records   map[uint64]*feed.Record
	revisions map[uint64]uint64
	meta      feed.Metadata
	err       error
	calls     int
	lastLimit int
}

func newMemoryGateway(records ...*feed.Record) *memoryGateway {
	g := &memoryGateway{
		records:   make(map[uint64]*feed.Record),
		revisions: make(map[uint64]uint64),
		meta:      feed.Metadata{Title: "News", Link: "https://blogs.example/news", Description: "Latest", Language: "en-GB", Slug: "news"},
	}
	for _, r := range records {
		g.put(r)
	}
	return g
}

func (g *memoryGateway) put(r *feed.Record) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.records[r.ID] = r
}

func (g *memoryGateway) remove(id uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.records, id)
}

func (g *memoryGateway) setStatus(id uint64, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.records[id].Status = status
}

func (g *memoryGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *memoryGateway) ListPublished(_ context.Context, limit int) ([]*feed.Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.lastLimit = limit
	if g.err != nil {
		return nil, g.err
	}
	var out []*feed.Record
	for _, r := range g.records {
		if r.Status == "publish" && r.Type == "post" {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (g *memoryGateway) GetByID(_ context.Context, id uint64) (*feed.Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	r, ok := g.records[id]
	if !ok {
		return nil, feed.ErrRecordNotFound
	}
	return r, nil
}

func (g *memoryGateway) RevisionParent(_ context.Context, id uint64) (uint64, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return 0, false, g.err
	}
	parent, ok := g.revisions[id]
	return parent, ok, nil
}

func (g *memoryGateway) SiteMetadata(context.Context) (feed.Metadata, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return feed.Metadata{}, g.err
	}
	return g.meta, nil
}

// countingStore records every call that reaches the file store
type countingStore struct {
	cache.Store
	calls atomic.Int32
}

func (s *countingStore) Read(ctx context.Context) (*feed.Document, error) {
	s.calls.Add(1)
	return s.Store.Read(ctx)
}

func (s *countingStore) Write(ctx context.Context, doc *feed.Document) error {
	s.calls.Add(1)
	return s.Store.Write(ctx, doc)
}

func (s *countingStore) Delete(ctx context.Context) error {
	s.calls.Add(1)
	return s.Store.Delete(ctx)
}

func (s *countingStore) Update(ctx context.Context, fn cache.UpdateFunc) error {
	s.calls.Add(1)
	return s.Store.Update(ctx, fn)
}

// recordingJournal keeps every outcome
type recordingJournal struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (j *recordingJournal) Record(o Outcome) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.outcomes = append(j.outcomes, o)
}

func post(id uint64, title string, age time.Duration) *feed.Record {
	return &feed.Record{
		ID:          id,
		Type:        "post",
		Status:      "publish",
		Title:       title,
		Permalink:   "https://blogs.example/news/?p=" + title,
		Content:     title + " body",
		AuthorName:  "Editor",
		Categories:  []string{"News"},
		PublishedAt: fixedNow.Add(-age),
		Meta:        map[string][]string{},
	}
}

type harness struct {
	engine  *Engine
	gateway *memoryGateway
	store   *countingStore
	journal *recordingJournal
	logs    *observer.ObservedLogs
}

func newHarness(t *testing.T, gw *memoryGateway, opts ...Option) *harness {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	fs, err := cache.New(log, &cache.Config{
		BaseDir:     t.TempDir(),
		Slug:        "news",
		LockTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("cache.New() failed: %v", err)
	}
	store := &countingStore{Store: fs}
	journal := &recordingJournal{}

	opts = append([]Option{WithClock(func() time.Time { return fixedNow }), WithJournal(journal)}, opts...)
	e, err := New(log, store, gw, nil, opts...)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return &harness{engine: e, gateway: gw, store: store, journal: journal, logs: logs}
}

// document reads the persisted document bypassing the counters
func (h *harness) document(t *testing.T) *feed.Document {
	t.Helper()
	doc, err := h.store.Store.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	return doc
}

func ids(doc *feed.Document) []uint64 {
	out := make([]uint64, 0, len(doc.Posts))
	for id := range doc.Posts {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
