// Package main is the entry point for the Keyword Synergy server.
//
// MAIN PACKAGE IN GO:
// The main package should be kept minimal. Its job is to:
// 1. Read configuration (flags, environment, optional .env file)
// 2. Create dependencies (logger, data directory)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/handler, etc.).
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/sakif/keyword-synergy/internal/server"
)

func main() {
	// A missing .env is normal; the environment and flags still apply.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := newCmd(cfg, serve).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// serve builds the logger, prepares the data directory and runs the server
// until SIGINT/SIGTERM.
func serve(_ *cobra.Command, cfg *Config) error {
	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))

	// Ensure the data directory exists (like `mkdir -p`).
	if cfg.dbPath != ":memory:" {
		dbDir := filepath.Dir(cfg.dbPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return fmt.Errorf("creating database directory %s: %w", dbDir, err)
		}
	}

	srv, err := server.New(cfg.server(), logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM).
	return srv.Start()
}
