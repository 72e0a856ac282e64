// Package logging builds the zap logger shared by the CLI and the registry.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where and how verbosely the logger writes
type Config struct {
	Level string
	// File enables a rotated log file in addition to stderr
	File       string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
	Verbose    bool
}

// ParseLevel converts a level name. Unknown names fall back to def.
func ParseLevel(level string, def zapcore.Level) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	}
	return def
}

// New creates a logger writing console output to stderr and, when a log file
// is configured, JSON lines to a rotated file. Verbose forces debug level.
func New(cfg Config) (*zap.Logger, error) {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg Config, stderr io.Writer) (*zap.Logger, error) {
	level := ParseLevel(cfg.Level, zapcore.WarnLevel)
	if cfg.Verbose {
		level = zapcore.DebugLevel
	}
	enabler := zap.NewAtomicLevelAt(level)

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.TimeKey = ""
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.AddSync(stderr), enabler),
	}

	if strings.TrimSpace(cfg.File) != "" {
		writer, err := fileWriter(cfg)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(writer),
			enabler,
		))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}

func fileWriter(cfg Config) (*lumberjack.Logger, error) {
	// Fail early on an unwritable path; lumberjack would only report it on first write
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	f.Close()

	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}, nil
}
