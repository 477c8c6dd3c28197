package main

import (
	"bytes"
	"errors"
	"flag"
	"strings"
	"testing"
	"time"

	"github.com/dailyyoga/jsonify/ch"
	"github.com/dailyyoga/jsonify/feed"
	"github.com/dailyyoga/jsonify/syncer"
)

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no command", nil, "usage: jsonify"},
		{"unknown command", []string{"explode"}, `unknown command "explode"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, &stdout, &stderr); code != 2 {
				t.Fatalf("exit code = %d, want 2", code)
			}
			if !strings.Contains(stderr.String(), tt.want) {
				t.Fatalf("stderr %q does not contain %q", stderr.String(), tt.want)
			}
		})
	}
}

func TestRun_ConfigError(t *testing.T) {
	t.Setenv("JSONIFY_MAX_POSTS", "0")
	var stdout, stderr bytes.Buffer
	if code := run([]string{"sweep"}, &stdout, &stderr); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "config: invalid") {
		t.Fatalf("unexpected stderr %q", stderr.String())
	}
}

func TestRun_InvalidEventKind(t *testing.T) {
	t.Setenv("JSONIFY_LOG_LEVEL", "error")
	var stdout, stderr bytes.Buffer
	if code := run([]string{"handle", "-kind", "published", "-id", "3"}, &stdout, &stderr); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "invalid event kind") {
		t.Fatalf("unexpected stderr %q", stderr.String())
	}
}

func TestEventFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantKind    feed.EventKind
		wantSubject bool
		wantErr     bool
	}{
		{"defaults request a rebuild", nil, feed.EventSaved, false, false},
		{"trash", []string{"-kind", "trashed", "-id", "42"}, feed.EventTrashed, true, false},
		{"autosave", []string{"-id", "7", "-autosave"}, feed.EventSaved, true, false},
		{"bad kind", []string{"-kind", "moved"}, "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			var ef eventFlags
			ef.register(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatal(err)
			}
			ev, err := ef.event()
			if (err != nil) != tt.wantErr {
				t.Fatalf("event() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if ev.Kind != tt.wantKind || ev.HasSubject() != tt.wantSubject || ev.ID == "" {
				t.Fatalf("unexpected event %+v", ev)
			}
			if ev.Autosave != ef.autosave {
				t.Errorf("autosave flag not carried")
			}
		})
	}
}

func TestPrintRegenerate(t *testing.T) {
	tests := []struct {
		name   string
		report syncer.RegenerateReport
		want   string
	}{
		{
			"success",
			syncer.RegenerateReport{Path: "/srv/jsonfeeds/news.json", Deleted: true, Items: 3},
			"Clearing Cache...\nDeleting /srv/jsonfeeds/news.json... Success!\nRe-Generating Cache...\nAll finished!\n",
		},
		{
			"nothing to delete",
			syncer.RegenerateReport{Path: "/srv/jsonfeeds/news.json", DeleteErr: errors.New("absent")},
			"Clearing Cache...\nDeleting /srv/jsonfeeds/news.json... Failed!\nRe-Generating Cache...\nAll finished!\n",
		},
		{
			"rebuild failed",
			syncer.RegenerateReport{Path: "/p.json", Deleted: true, Err: errors.New("db down")},
			"Clearing Cache...\nDeleting /p.json... Success!\nRe-Generating Cache...\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printRegenerate(&buf, tt.report)
			if buf.String() != tt.want {
				t.Fatalf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestPrintOutcome(t *testing.T) {
	var buf bytes.Buffer
	printOutcome(&buf, syncer.Outcome{
		EventID: "e1", Action: syncer.ActionUpsert, SubjectID: 14, EffectiveID: 11,
		Items: 5, Duration: 1234 * time.Microsecond,
	})
	out := buf.String()
	for _, want := range []string{"event     e1", "action    upsert", "subject   14", "effective 11", "items     5", "duration  1ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q is missing %q", out, want)
		}
	}
	if strings.Contains(out, "error") {
		t.Errorf("unexpected error line in %q", out)
	}
}

func TestPrintJournal(t *testing.T) {
	var buf bytes.Buffer
	printJournal(&buf, []ch.SyncLogRow{{
		Site: "news", Kind: "saved", SubjectID: 7, Action: "upsert", Items: 3, DurationMs: 12,
		CreatedAt: time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC),
	}})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "TIME") {
		t.Fatalf("unexpected output %q", buf.String())
	}
	if fields := strings.Fields(lines[1]); len(fields) != 7 || fields[0] != "2024-03-05T12:00:00Z" || fields[4] != "upsert" {
		t.Fatalf("unexpected row %v", fields)
	}
}
