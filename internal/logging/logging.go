// Package logging builds the application logger: a rotated JSON log
// file plus an optional console core for debugging. The terminal UI
// owns stdout, so console output stays off unless debug mode is on.
package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how much the logger writes.
type Options struct {
	// File is the log file path. Empty disables the file core.
	File string
	// Debug enables the console core and lowers the file level.
	Debug bool
}

// New builds the logger. It never fails: an unusable log directory
// degrades to a no-op file core rather than blocking startup.
func New(opts Options) *zap.Logger {
	var cores []zapcore.Core

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err == nil {
			rotator := &lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     30, // days
				Compress:   true,
			}
			level := zap.InfoLevel
			if opts.Debug {
				level = zap.DebugLevel
			}
			cores = append(cores, zapcore.NewCore(jsonEncoder(), zapcore.AddSync(rotator), level))
		}
	}

	if opts.Debug {
		consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), zap.DebugLevel))
	}

	if len(cores) == 0 {
		return zap.NewNop()
	}
	return zap.New(zapcore.NewTee(cores...))
}

func jsonEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.MessageKey = "message"
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(cfg)
}

// DefaultLogPath returns the log file location, honoring
// REKISHI_LOG_FILE and falling back to the XDG state directory.
func DefaultLogPath() string {
	if p := os.Getenv("REKISHI_LOG_FILE"); p != "" {
		return p
	}
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "rekishi.log"
		}
		base = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(base, "rekishi", "rekishi.log")
}
