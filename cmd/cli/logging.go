package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

type logConfig struct {
	Level  string
	Format string // "json" or "text"
	Output io.Writer
}

func newLogger(config logConfig) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(config.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", config.Level)
	}

	writer := config.Output
	if writer == nil {
		writer = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(config.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(writer, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(writer, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", config.Format)
	}
}

// setupLogging installs the default logger described by the persistent
// flags. The returned function closes the log file, if any, and restores the
// previous default logger.
func setupLogging(cmd *cobra.Command) (func() error, error) {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	path, _ := cmd.Flags().GetString("log-file")

	config := logConfig{Level: level, Format: format}
	var file *os.File
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, err
		}
		var err error
		file, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, err
		}
		config.Output = file
	}

	logger, err := newLogger(config)
	if err != nil {
		if file != nil {
			file.Close()
		}
		return nil, err
	}

	previous := slog.Default()
	previousWriter, previousFlags := log.Writer(), log.Flags()
	slog.SetDefault(logger)
	return func() error {
		slog.SetDefault(previous)
		log.SetOutput(previousWriter)
		log.SetFlags(previousFlags)
		if file == nil {
			return nil
		}
		return file.Close()
	}, nil
}
