package logger

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// global backs the package-level logging functions. It is nil until New
// or SetGlobalLogger runs, or until the first package-level call builds
// a default logger.
var global atomic.Pointer[zap.Logger]

func storeGlobal(l *zap.Logger) {
	global.Store(l)
}

func loadGlobal() *zap.Logger {
	if l := global.Load(); l != nil {
		return l
	}
	zl, err := build(DefaultConfig(), zapcore.InfoLevel, 1)
	if err != nil {
		zl = zap.NewNop()
	}
	// keep whichever logger won a concurrent first use
	if global.CompareAndSwap(nil, zl) {
		return zl
	}
	return global.Load()
}

// SetGlobalLogger replaces the global logger.
// It should carry AddCallerSkip(1) so package-level calls report their caller.
func SetGlobalLogger(l *zap.Logger) {
	storeGlobal(l)
}

// GetGlobalLogger returns the global logger, building a default one on first use
func GetGlobalLogger() *zap.Logger {
	return loadGlobal()
}

func Debug(msg string, fields ...zap.Field) { loadGlobal().Debug(msg, fields...) }

func Info(msg string, fields ...zap.Field) { loadGlobal().Info(msg, fields...) }

func Warn(msg string, fields ...zap.Field) { loadGlobal().Warn(msg, fields...) }

func Error(msg string, fields ...zap.Field) { loadGlobal().Error(msg, fields...) }

// Sync flushes the global logger
func Sync() error {
	return loadGlobal().Sync()
}
