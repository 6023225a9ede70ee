package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Global is the process-wide logger. It defaults to an info-level text
// handler on stdout until Init is called with the loaded configuration.
var Global *slog.Logger

func init() {
	Global = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// Config defines the logger configuration
type Config struct {
	Level      string `toml:"level"`       // debug, info, warn, error
	Format     string `toml:"format"`      // text, json
	OutputPath string `toml:"output_path"` // log file path; empty keeps stdout only
	MaxSize    int    `toml:"max_size"`    // maximum size in megabytes
	MaxAge     int    `toml:"max_age"`     // maximum age in days
	MaxBackups int    `toml:"max_backups"` // maximum number of old log files
	Compress   bool   `toml:"compress"`    // compress old files
}

// Init rebuilds the global logger from configuration, rotating the file
// output with lumberjack and mirroring it to stdout.
func Init(cfg *Config) error {
	out := io.Writer(os.Stdout)
	if cfg.OutputPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.OutputPath,
			MaxSize:    cfg.MaxSize,
			MaxAge:     cfg.MaxAge,
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.Compress,
		})
	}

	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	Global = slog.New(handler)

	Global.Info("logger initialized",
		"level", cfg.Level,
		"format", cfg.Format,
		"path", cfg.OutputPath)
	return nil
}
