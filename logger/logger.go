// Package logger provides the structured logger shared by every jsonify
// component. It wraps zap and keeps the interface small enough to be
// replaced by an observer core in tests.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger defines the interface for logging operations
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Sync() error
}

// New creates a new logger with the given configuration.
// A nil config uses DefaultConfig; empty fields are filled from it.
// The returned logger also becomes the global logger.
func New(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg = cfg.MergeDefaults()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, ErrInvalidLevel(cfg.Level, err)
	}

	zl, err := build(cfg, level, 0)
	if err != nil {
		return nil, ErrBuildLogger(err)
	}

	// package-level functions sit one frame above the caller
	storeGlobal(zl.WithOptions(zap.AddCallerSkip(1)))

	return zl, nil
}

// Nop returns a logger that discards everything.
// Useful for library callers that do not care about jsonify's output.
func Nop() Logger {
	return zap.NewNop()
}

// Named returns a child logger tagged with a component name when the
// underlying implementation is zap; other implementations are returned as is.
func Named(l Logger, component string) Logger {
	if zl, ok := l.(*zap.Logger); ok {
		return zl.With(zap.String("component", component))
	}
	return l
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func build(cfg *Config, level zapcore.Level, callerSkip int) (*zap.Logger, error) {
	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Encoding == "console",
		Encoding:         cfg.Encoding,
		EncoderConfig:    encoderConfig(),
		OutputPaths:      cfg.OutputPaths,
		ErrorOutputPaths: cfg.ErrorOutputPaths,
	}
	return zapConfig.Build(
		zap.AddCallerSkip(callerSkip),
		zap.AddStacktrace(zapcore.DPanicLevel),
	)
}
