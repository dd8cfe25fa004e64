// Package logging builds the structured loggers used by the TUI and CLI.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/labinot-bajgora/ECK-safety/internal/config"
)

// DefaultFileName is the log file created next to the database.
const DefaultFileName = "safetyhub.log"

// Path returns the log file for cfg. An unset LogFile puts the log next
// to dbPath.
func Path(cfg config.Config, dbPath string) string {
	if cfg.LogFile != "" {
		return cfg.LogFile
	}
	return filepath.Join(filepath.Dir(dbPath), DefaultFileName)
}

// NewFile returns a logger appending to the log file for cfg. The TUI
// owns the terminal, so it must never log to stdout or stderr. Close the
// returned closer on exit.
func NewFile(cfg config.Config, dbPath string) (*slog.Logger, io.Closer, error) {
	path := Path(cfg, dbPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return New(f, cfg.Level()), f, nil
}

// New returns a text logger writing to w at level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
