package logger

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_NilConfig(t *testing.T) {
	l, err := New(nil)
	if err != nil {
		t.Fatalf("New(nil) failed: %v", err)
	}
	if l == nil {
		t.Fatal("New(nil) returned nil logger")
	}
	l.Info("test")
	_ = l.Sync()
}

func TestNew_PartialConfig(t *testing.T) {
	l, err := New(&Config{Encoding: "console"})
	if err != nil {
		t.Fatalf("New with partial config failed: %v", err)
	}
	l.Debug("not shown at info level")
	l.Info("test from partial config")
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"invalid level", &Config{Level: "loud", Encoding: "json"}},
		{"invalid encoding", &Config{Level: "info", Encoding: "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestConfig_MergeDefaults(t *testing.T) {
	cfg := (&Config{Level: "debug"}).MergeDefaults()
	if cfg.Level != "debug" || cfg.Encoding != "json" {
		t.Errorf("unexpected merge result: %+v", cfg)
	}
	if len(cfg.OutputPaths) != 1 || cfg.OutputPaths[0] != "stdout" {
		t.Errorf("unexpected output paths: %v", cfg.OutputPaths)
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("dropped", zap.String("key", "value"))
	if err := l.Sync(); err != nil {
		t.Errorf("Sync on nop logger: %v", err)
	}
}

func TestNamed(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	l := Named(zap.New(core), "cache")
	l.Info("hello")

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["component"]; got != "cache" {
		t.Errorf("expected component=cache, got %v", got)
	}
}
