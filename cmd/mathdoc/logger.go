package main

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds a console logger on w. Warnings and above are shown by
// default, debug with verbose, errors only with quiet.
func newLogger(w io.Writer, f *commonFlags) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zapcore.WarnLevel
	switch {
	case f.quiet:
		level = zapcore.ErrorLevel
	case f.verbose:
		level = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg.EncoderConfig),
		zapcore.Lock(zapcore.AddSync(w)),
		cfg.Level,
	)
	return zap.New(core)
}
