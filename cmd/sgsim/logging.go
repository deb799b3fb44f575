package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	logDir      = "logs"
	logFileName = "sgsim.log"
)

// setupLogging routes slog to logs/sgsim.log when debug is set and discards
// it otherwise. The caller closes the returned file.
func setupLogging(debug bool) *os.File {
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	if !debug {
		slog.SetDefault(discard)
		return nil
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		slog.SetDefault(discard)
		return nil
	}
	f, err := os.OpenFile(filepath.Join(logDir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		slog.SetDefault(discard)
		return nil
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return f
}
