// Package main is the entry point for the ReFlex emulator settings tool.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dshills/reflex-emulator/internal/app"
	"github.com/dshills/reflex-emulator/internal/config"
	"github.com/dshills/reflex-emulator/internal/logging"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const shutdownTimeout = 5 * time.Second

type cliOptions struct {
	configPath string
	backend    string
	path       string
	key        string
	logLevel   string
	events     bool
	args       []string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	loadOpts := []config.LoadOption{
		config.WithOverrides(opts.overrides()),
		config.WithLogger(logging.New(os.Stderr, logging.DefaultOptions())),
	}
	if opts.configPath != "" {
		loadOpts = append(loadOpts, config.WithFile(opts.configPath))
	}
	cfg, err := config.Load(loadOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load configuration: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, app.Options{Config: cfg})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}

	// Ensure cleanup on all exit paths
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = application.Shutdown(sctx)
	}()

	if err := application.Run(ctx, opts.args); err != nil {
		if errors.Is(err, app.ErrUsage) || errors.Is(err, app.ErrUnknownCommand) {
			fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
			flag.Usage()
			return 2
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}

// overrides turns the flags that were set into a configuration layer.
func (o cliOptions) overrides() map[string]any {
	storage := map[string]any{}
	if o.backend != "" {
		storage["backend"] = o.backend
	}
	if o.path != "" {
		storage["path"] = o.path
	}
	if o.key != "" {
		storage["key"] = o.key
	}

	m := map[string]any{}
	if len(storage) > 0 {
		m["storage"] = storage
	}
	if o.logLevel != "" {
		m["log"] = map[string]any{"level": o.logLevel}
	}
	if o.events {
		m["events"] = map[string]any{"enabled": true}
	}
	return m
}

func parseFlags() cliOptions {
	var opts cliOptions
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file (toml, yaml or json)")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.backend, "backend", "", "Durable backend (memory, file, sqlite, redis)")
	flag.StringVar(&opts.path, "path", "", "Backup file or database path")
	flag.StringVar(&opts.key, "key", "", "Record key")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.events, "events", false, "Publish settings events to Redis")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "ReFlex emulator settings\n\n")
		fmt.Fprintf(os.Stderr, "Usage: emulator [options] [command] [args...]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\n%s\n", app.Usage)
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  emulator                              Show the settings\n")
		fmt.Fprintf(os.Stderr, "  emulator set amountTouchPoints 5      Change one setting\n")
		fmt.Fprintf(os.Stderr, "  emulator -backend sqlite -path db.sq  Use a SQLite backup\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("emulator %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	opts.args = flag.Args()
	return opts
}
