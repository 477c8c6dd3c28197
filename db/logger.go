package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dailyyoga/jsonify/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"
)

// gormLogger is a custom GORM logger that uses the project's zap logger
type gormLogger struct {
	logger        logger.Logger
	level         glogger.LogLevel
	slowThreshold time.Duration
}

func newGormLogger(log logger.Logger, level glogger.LogLevel, slow time.Duration) *gormLogger {
	return &gormLogger{
		logger:        logger.Named(log, "gorm"),
		level:         level,
		slowThreshold: slow,
	}
}

// LogMode sets the log level and returns a new logger
func (g *gormLogger) LogMode(level glogger.LogLevel) glogger.Interface {
	return &gormLogger{
		logger:        g.logger,
		level:         level,
		slowThreshold: g.slowThreshold,
	}
}

// Info logs info level messages
func (g *gormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if g.level >= glogger.Info {
		g.logger.Info(fmt.Sprintf(msg, data...))
	}
}

// Warn logs warn level messages
func (g *gormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if g.level >= glogger.Warn {
		g.logger.Warn(fmt.Sprintf(msg, data...))
	}
}

// Error logs error level messages
func (g *gormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if g.level >= glogger.Error {
		g.logger.Error(fmt.Sprintf(msg, data...))
	}
}

// Trace logs SQL execution details.
// A missing row is an expected answer for the gateway, not an error.
func (g *gormLogger) Trace(
	_ context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error,
) {
	if g.level <= glogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && g.level >= glogger.Error:
		g.logger.Error("sql error", append(fields, zap.Error(err))...)
	case elapsed > g.slowThreshold && g.slowThreshold != 0 && g.level >= glogger.Warn:
		g.logger.Warn("slow sql", append(fields, zap.Duration("threshold", g.slowThreshold))...)
	case g.level >= glogger.Info:
		g.logger.Info("sql trace", fields...)
	}
}
