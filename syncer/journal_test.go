package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dailyyoga/jsonify/ch"
	"github.com/dailyyoga/jsonify/feed"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeWriter struct {
	rows []ch.Row
	err  error
}

func (w *fakeWriter) Start() error { return nil }
func (w *fakeWriter) Close() error { return nil }
func (w *fakeWriter) Write(_ context.Context, rows []ch.Row) error {
	if w.err != nil {
		return w.err
	}
	w.rows = append(w.rows, rows...)
	return nil
}

func TestOutcomeRow(t *testing.T) {
	at := time.Date(2024, 3, 5, 13, 0, 0, 0, time.FixedZone("X", 7200))
	o := Outcome{
		EventID:     "e1",
		Kind:        feed.EventTrashed,
		SubjectID:   14,
		EffectiveID: 11,
		Action:      ActionRemove,
		Items:       4,
		Duration:    1500 * time.Microsecond,
		Err:         errors.New("disk full"),
	}
	row := OutcomeRow("news", o, at)

	want := ch.SyncLogRow{
		EventID: "e1", Site: "news", Kind: "trashed", SubjectID: 14, EffectiveID: 11,
		Action: "remove", Items: 4, DurationMs: 1, Error: "disk full", CreatedAt: at.UTC(),
	}
	if *row != want {
		t.Fatalf("got %+v, want %+v", *row, want)
	}
}

func TestClickHouseJournal_Record(t *testing.T) {
	w := &fakeWriter{}
	j := NewClickHouseJournal(nil, w, "news")
	j.Record(Outcome{EventID: "e1", Action: ActionUpsert, Items: 2})

	if len(w.rows) != 1 {
		t.Fatalf("expected one row, got %d", len(w.rows))
	}
	row := w.rows[0].(*ch.SyncLogRow)
	if row.Site != "news" || row.Action != "upsert" || row.CreatedAt.IsZero() {
		t.Errorf("unexpected row %+v", row)
	}
}

func TestClickHouseJournal_WriteFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	j := NewClickHouseJournal(zap.New(core), &fakeWriter{err: ch.ErrWriterClosed}, "news")

	j.Record(Outcome{EventID: "e1"})

	entries := logs.FilterMessage("sync journal write failed").All()
	if len(entries) != 1 || entries[0].ContextMap()["event_id"] != "e1" {
		t.Fatalf("expected failure log, got %v", logs.All())
	}
}
