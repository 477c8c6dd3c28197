package ch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

type recordingInsert struct {
	mu      sync.Mutex
	batches map[TableName][][]Row
	err     error
}

func (r *recordingInsert) insert(_ context.Context, table TableName, rows []Row) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.batches == nil {
		r.batches = make(map[TableName][][]Row)
	}
	r.batches[table] = append(r.batches[table], append([]Row(nil), rows...))
	return r.err
}

func (r *recordingInsert) rows(table TableName) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.batches[table] {
		n += len(b)
	}
	return n
}

func row(id string) Row {
	return &SyncLogRow{EventID: id, Site: "news", Kind: "saved", Action: "upsert", CreatedAt: time.Unix(0, 0)}
}

type badRow struct{}

func (badRow) TableName() TableName { return "bad" }
func (badRow) Columns() []string    { return []string{"a", "b"} }
func (badRow) Values() []any        { return []any{1} }

// ============ Config ============

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr string
	}{
		{"valid", (&Config{Hosts: []string{"ch:9000"}}).MergeDefaults(), ""},
		{"no hosts", DefaultConfig(), "hosts are required"},
		{"zero flush size", &Config{Hosts: []string{"ch:9000"}, Username: "u", Writer: WriterConfig{FlushInterval: time.Second}}, "flush_size"},
		{"min above size", &Config{Hosts: []string{"ch:9000"}, Username: "u", Writer: WriterConfig{FlushInterval: time.Second, FlushSize: 1, MinFlushSize: 2}}, "min_flush_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfig_Enabled(t *testing.T) {
	if DefaultConfig().Enabled() {
		t.Error("default config must be disabled")
	}
	if !(&Config{Hosts: []string{"ch:9000"}}).Enabled() {
		t.Error("config with hosts must be enabled")
	}
}

// ============ Rows ============

func TestSyncLogRow(t *testing.T) {
	created := time.Date(2024, 3, 5, 13, 0, 0, 0, time.FixedZone("X", 3600))
	r := &SyncLogRow{EventID: "e", Site: "news", SubjectID: 7, Items: 3, DurationMs: 12, CreatedAt: created}

	if len(r.Columns()) != len(r.Values()) {
		t.Fatalf("columns and values differ: %d vs %d", len(r.Columns()), len(r.Values()))
	}
	values := r.Values()
	if got := values[len(values)-1].(time.Time); got.Location() != time.UTC {
		t.Errorf("created_at must be sent in UTC, got %v", got)
	}
	if got := insertQuery(SyncLogTable, []Row{r}); got !=
		"INSERT INTO `jsonify_sync_log` (event_id, site, kind, subject_id, effective_id, action, items, duration_ms, error, created_at)" {
		t.Errorf("unexpected insert query %q", got)
	}
	for _, col := range r.Columns() {
		if !strings.Contains(SyncLogDDL, col+" ") {
			t.Errorf("DDL is missing column %s", col)
		}
	}
}

// ============ Writer ============

func TestWriter_FlushOnSize(t *testing.T) {
	defer goleak.VerifyNone(t)
	rec := &recordingInsert{}
	w := newWriter(rec.insert, &WriterConfig{FlushInterval: time.Hour, FlushSize: 2}, zap.NewNop())
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}

	if err := w.Write(context.Background(), []Row{row("a"), row("b")}); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for rec.rows(SyncLogTable) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := rec.rows(SyncLogTable); got != 2 {
		t.Fatalf("expected a size-triggered flush of 2 rows, got %d", got)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestWriter_FlushOnInterval(t *testing.T) {
	defer goleak.VerifyNone(t)
	rec := &recordingInsert{}
	w := newWriter(rec.insert, &WriterConfig{FlushInterval: 10 * time.Millisecond, FlushSize: 100}, zap.NewNop())
	_ = w.Start()
	defer w.Close()

	_ = w.Write(context.Background(), []Row{row("a")})
	deadline := time.Now().Add(2 * time.Second)
	for rec.rows(SyncLogTable) < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := rec.rows(SyncLogTable); got != 1 {
		t.Fatalf("expected interval flush, got %d rows", got)
	}
}

func TestWriter_CloseFlushesRemaining(t *testing.T) {
	defer goleak.VerifyNone(t)
	rec := &recordingInsert{}
	w := newWriter(rec.insert, &WriterConfig{FlushInterval: time.Hour, FlushSize: 100}, zap.NewNop())
	_ = w.Start()

	for i := 0; i < 10; i++ {
		if err := w.Write(context.Background(), []Row{row("x"), nil}); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if got := rec.rows(SyncLogTable); got != 10 {
		t.Fatalf("expected 10 rows flushed on close, got %d", got)
	}
	if err := w.Write(context.Background(), []Row{row("late")}); !errors.Is(err, ErrWriterClosed) {
		t.Fatalf("expected ErrWriterClosed, got %v", err)
	}
	if err := w.Start(); !errors.Is(err, ErrWriterClosed) {
		t.Fatalf("expected ErrWriterClosed from Start, got %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestWriter_InsertFailureIsLogged(t *testing.T) {
	defer goleak.VerifyNone(t)
	log, logs := newObservedLogger()
	rec := &recordingInsert{err: errors.New("boom")}
	w := newWriter(rec.insert, &WriterConfig{FlushInterval: time.Hour, FlushSize: 100}, log)
	_ = w.Start()
	_ = w.Write(context.Background(), []Row{row("a")})
	_ = w.Close()

	if logs.FilterMessage("failed to batch insert").Len() != 1 {
		t.Fatalf("expected insert failure log, got %v", logs.All())
	}
	done := logs.FilterMessage("flush completed").All()
	if len(done) != 1 || done[0].ContextMap()["failed_rows"] != int64(1) {
		t.Fatalf("expected one failed row, got %v", done)
	}
}

func TestWriter_RejectsInvalidRow(t *testing.T) {
	defer goleak.VerifyNone(t)
	w := newWriter((&recordingInsert{}).insert, nil, zap.NewNop())
	defer w.Close()

	if err := w.Write(context.Background(), []Row{badRow{}}); !errors.Is(err, ErrInvalidRow) {
		t.Fatalf("expected ErrInvalidRow, got %v", err)
	}
}

func TestWriter_CloseWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t)
	log, logs := newObservedLogger()
	rec := &recordingInsert{}
	w := newWriter(rec.insert, nil, log)
	_ = w.Write(context.Background(), []Row{row("a")})

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if rec.rows(SyncLogTable) != 0 {
		t.Error("unstarted writer must not insert")
	}
	if logs.FilterMessage("writer closed before start, rows dropped").Len() != 1 {
		t.Errorf("expected dropped rows warning, got %v", logs.All())
	}
}

// ============ Query ============

type fakeRows struct {
	driver.Rows
	data [][]any
	pos  int
}

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos <= len(r.data)
}

func (r *fakeRows) Scan(dest ...any) error {
	for i, v := range r.data[r.pos-1] {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *uint64:
			*d = v.(uint64)
		case *uint32:
			*d = v.(uint32)
		case *time.Time:
			*d = v.(time.Time)
		}
	}
	return nil
}

func (r *fakeRows) Err() error   { return nil }
func (r *fakeRows) Close() error { return nil }

type fakeClient struct {
	query string
	args  []any
	rows  *fakeRows
	exec  []string
}

func (c *fakeClient) Writer() (Writer, error) { return nil, ErrConnectionClosed }
func (c *fakeClient) Exec(_ context.Context, q string, _ ...any) error {
	c.exec = append(c.exec, q)
	return nil
}
func (c *fakeClient) Query(_ context.Context, q string, args ...any) (driver.Rows, error) {
	c.query, c.args = q, args
	return c.rows, nil
}
func (c *fakeClient) Close() error { return nil }

func TestRecentSyncLog(t *testing.T) {
	created := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	c := &fakeClient{rows: &fakeRows{data: [][]any{
		{"e1", "news", "saved", uint64(7), uint64(7), "upsert", uint32(3), uint64(12), "", created},
	}}}

	got, err := RecentSyncLog(context.Background(), c, "news", 5)
	if err != nil {
		t.Fatalf("RecentSyncLog: %v", err)
	}
	if len(got) != 1 || got[0].EventID != "e1" || got[0].Items != 3 || !got[0].CreatedAt.Equal(created) {
		t.Fatalf("unexpected rows: %+v", got)
	}
	if !strings.Contains(c.query, "WHERE site = ?") || !strings.HasSuffix(c.query, "ORDER BY created_at DESC LIMIT ?") {
		t.Errorf("unexpected query %q", c.query)
	}
	if len(c.args) != 2 || c.args[0] != "news" || c.args[1] != 5 {
		t.Errorf("unexpected args %v", c.args)
	}

	c.rows = &fakeRows{}
	if _, err := RecentSyncLog(context.Background(), c, "", 0); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(c.query, "WHERE") || len(c.args) != 1 || c.args[0] != 20 {
		t.Errorf("expected all sites with default limit, got %q %v", c.query, c.args)
	}
}

func TestCreateSyncLogTable(t *testing.T) {
	c := &fakeClient{}
	if err := CreateSyncLogTable(context.Background(), c); err != nil {
		t.Fatal(err)
	}
	if len(c.exec) != 1 || !strings.HasPrefix(c.exec[0], "CREATE TABLE IF NOT EXISTS `jsonify_sync_log`") {
		t.Fatalf("unexpected exec %v", c.exec)
	}
}
