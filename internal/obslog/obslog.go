// Package obslog owns the process-wide zap logger.
package obslog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var globalLogger = zap.NewNop()

// L returns the global logger. It is a no-op logger until InitFromEnv runs.
func L() *zap.Logger { return globalLogger }

// Named returns a child of the global logger for one component.
func Named(component string) *zap.Logger { return globalLogger.Named(component) }

// Options configure the logger. FromEnv fills them from LOG_* variables.
type Options struct {
	Level   zapcore.Level
	Console bool
	File    string // empty disables file output
	Format  string // legacy, json or console
	Caller  bool
}

func FromEnv() Options {
	o := Options{
		Level:   parseLevel(getenvDefault("LOG_LEVEL", "info")),
		Console: strings.EqualFold(getenvDefault("LOG_TO_CONSOLE", "true"), "true"),
		Caller:  strings.EqualFold(getenvDefault("LOG_CALLER", "false"), "true"),
		Format:  strings.ToLower(strings.TrimSpace(getenvDefault("LOG_FORMAT", "legacy"))),
	}
	if strings.EqualFold(getenvDefault("LOG_TO_FILE", "false"), "true") {
		o.File = strings.TrimSpace(getenvDefault("LOG_FILE", filepath.Join("logs", "scoreboard-live.log")))
	}
	return o
}

// InitFromEnv builds the global logger from the environment.
func InitFromEnv() error {
	logger, err := New(FromEnv())
	if err != nil {
		return err
	}
	globalLogger = logger
	return nil
}

// New builds a logger writing to stdout and/or a file.
func New(o Options) (*zap.Logger, error) {
	switch o.Format {
	case "legacy", "json", "console":
	default:
		o.Format = "legacy"
	}

	var cores []zapcore.Core
	if o.Console {
		cores = append(cores, zapcore.NewCore(newEncoder(o.Format), zapcore.AddSync(os.Stdout), o.Level))
	}
	if o.File != "" {
		if err := ensureDir(filepath.Dir(o.File)); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(o.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(newEncoder(o.Format), zapcore.AddSync(f), o.Level))
	}
	if len(cores) == 0 {
		enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), o.Level))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	if o.Caller || o.Format == "legacy" {
		logger = logger.WithOptions(zap.AddCaller())
	}
	return logger.WithOptions(zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func newEncoder(format string) zapcore.Encoder {
	switch format {
	case "json":
		return zapcore.NewJSONEncoder(jsonEncoderConfig())
	case "console":
		return zapcore.NewConsoleEncoder(consoleEncoderConfig())
	default:
		return zapcore.NewConsoleEncoder(legacyEncoderConfig())
	}
}

func ensureDir(dir string) error {
	if strings.TrimSpace(dir) == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLevel(s string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(s))
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func legacyEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.ConsoleSeparator = " | "
	return cfg
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	return cfg
}
