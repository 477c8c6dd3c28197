package db

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"
)

func newObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

// ============ Config ============

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return (&Config{Host: "db", User: "wp", Database: "wordpress"}).MergeDefaults()
	}
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing host", func(c *Config) { c.Host = "" }, "host is required"},
		{"missing user", func(c *Config) { c.User = "" }, "user is required"},
		{"missing database", func(c *Config) { c.Database = "" }, "database is required"},
		{"bad port", func(c *Config) { c.Port = -1 }, "port is required"},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
		{"uppercase log level", func(c *Config) { c.LogLevel = "INFO" }, ""},
		{"idle above open", func(c *Config) { c.MaxIdleConns = 10 }, "max_idle_conns"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	c := (&Config{Host: "db", User: "wp", Password: "secret", Database: "wordpress"}).MergeDefaults()
	want := "wp:secret@tcp(db:3306)/wordpress?charset=utf8mb4&parseTime=True&loc=UTC"
	if got := c.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestConfig_GormLogLevel(t *testing.T) {
	tests := map[string]glogger.LogLevel{
		"silent": glogger.Silent,
		"error":  glogger.Error,
		"warn":   glogger.Warn,
		"Info":   glogger.Info,
		"":       glogger.Warn,
	}
	for in, want := range tests {
		if got := (&Config{LogLevel: in}).GormLogLevel(); got != want {
			t.Errorf("GormLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

// ============ Gorm logger ============

func TestGormLogger_Trace(t *testing.T) {
	sql := func() (string, int64) { return "SELECT 1", 1 }
	tests := []struct {
		name    string
		level   glogger.LogLevel
		begin   time.Time
		err     error
		wantMsg string
	}{
		{"error", glogger.Warn, time.Now(), errors.New("boom"), "sql error"},
		{"record not found is quiet", glogger.Warn, time.Now(), gorm.ErrRecordNotFound, ""},
		{"slow", glogger.Warn, time.Now().Add(-2 * time.Second), nil, "slow sql"},
		{"info trace", glogger.Info, time.Now(), nil, "sql trace"},
		{"silent", glogger.Silent, time.Now(), errors.New("boom"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, logs := newObservedLogger()
			g := newGormLogger(log, tt.level, time.Second)
			g.Trace(context.Background(), tt.begin, sql, tt.err)

			if tt.wantMsg == "" {
				if logs.Len() != 0 {
					t.Fatalf("expected no logs, got %v", logs.All())
				}
				return
			}
			entries := logs.FilterMessage(tt.wantMsg).All()
			if len(entries) != 1 {
				t.Fatalf("expected one %q entry, got %v", tt.wantMsg, logs.All())
			}
			if entries[0].ContextMap()["component"] != "gorm" {
				t.Errorf("expected component=gorm, got %v", entries[0].ContextMap())
			}
		})
	}
}

func TestGormLogger_LogMode(t *testing.T) {
	log, logs := newObservedLogger()
	g := newGormLogger(log, glogger.Silent, time.Second)
	g.Info(context.Background(), "hidden %d", 1)
	g.LogMode(glogger.Info).Info(context.Background(), "shown %d", 2)

	if logs.Len() != 1 || logs.All()[0].Message != "shown 2" {
		t.Fatalf("unexpected logs: %v", logs.All())
	}
}

// ============ Open ============

func TestOpen_SQLite(t *testing.T) {
	log, _ := newObservedLogger()
	d, err := Open(log, sqlite.Open(":memory:"), &Config{MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := d.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	gdb, err := d.DB()
	if err != nil || gdb == nil {
		t.Fatalf("DB: %v", err)
	}
	var one int
	if err := gdb.Raw("SELECT 1").Scan(&one).Error; err != nil || one != 1 {
		t.Fatalf("query: %d, %v", one, err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestOpen_InvalidPool(t *testing.T) {
	_, err := Open(nil, sqlite.Open(":memory:"), &Config{LogLevel: "loud"})
	if err == nil || !strings.Contains(err.Error(), "db: invalid config") {
		t.Fatalf("expected invalid config, got %v", err)
	}
}

func TestNewMySQL_ValidatesBeforeDialing(t *testing.T) {
	_, err := NewMySQL(zap.NewNop(), &Config{Host: "db"})
	if err == nil || !strings.Contains(err.Error(), "user is required") {
		t.Fatalf("expected validation error, got %v", err)
	}
}
