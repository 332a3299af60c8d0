// Package logger sets up the process-wide slog logger, optionally writing to
// a rotated log file.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Output targets
const (
	OutputStdout = "stdout"
	OutputFile   = "file"
	OutputBoth   = "both"
)

// Config controls the log level, format and destination
type Config struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // json or text
	Output     string `yaml:"output"` // stdout, file or both
	FilePath   string `yaml:"file_path"`
	MaxSize    int    `yaml:"max_size"` // megabytes
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"` // days
	Compress   bool   `yaml:"compress"`
	AddSource  bool   `yaml:"add_source"`
}

// ParseLevel maps a level name to a slog.Level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger writing to w, or to the configured destination when w is nil
func New(cfg Config, w io.Writer) (*slog.Logger, error) {
	if w == nil {
		out, err := writer(cfg)
		if err != nil {
			return nil, err
		}
		w = out
	}

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler), nil
}

// Init builds the logger and installs it as the slog default
func Init(cfg Config) error {
	l, err := New(cfg, nil)
	if err != nil {
		return err
	}
	slog.SetDefault(l)
	return nil
}

func writer(cfg Config) (io.Writer, error) {
	output := strings.ToLower(cfg.Output)
	if output == "" || output == OutputStdout {
		return os.Stdout, nil
	}
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("log output %q requires a file path", cfg.Output)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	switch output {
	case OutputFile:
		return file, nil
	case OutputBoth:
		return io.MultiWriter(os.Stdout, file), nil
	}
	return nil, fmt.Errorf("unknown log output %q", cfg.Output)
}
