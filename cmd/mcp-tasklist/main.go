// SPDX-License-Identifier: AGPL-3.0-only
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jolks/mcp-tasklist/internal/config"
	"github.com/jolks/mcp-tasklist/internal/logging"
	"github.com/jolks/mcp-tasklist/internal/notify"
	"github.com/jolks/mcp-tasklist/internal/server"
	"github.com/jolks/mcp-tasklist/internal/storage"
	"github.com/jolks/mcp-tasklist/internal/tasks"
)

var (
	// buildVersion is set at build time via -ldflags "-X main.buildVersion=<version>"
	buildVersion    = "dev"
	workDir         = flag.String("work-dir", "", "Working directory for logs and the json snapshot (default: ~/.mcp-tasklist)")
	address         = flag.String("address", "", "The address to bind the server to")
	port            = flag.Int("port", 0, "The port to bind the server to")
	transport       = flag.String("transport", "", "Transport mode: sse or stdio")
	logLevel        = flag.String("log-level", "", "Logging level: debug, info, warn, error, fatal")
	showVersion     = flag.Bool("version", false, "Show version information and exit")
	storageBackend  = flag.String("storage-backend", "", "Storage backend: json, memory, postgres or mysql (default: json)")
	storageKey      = flag.String("storage-key", "", "Key the task snapshot is stored under (default: crud-app-tasks)")
	storageDSN      = flag.String("storage-dsn", "", "Connection string for the postgres and mysql backends")
	storageWatch    = flag.Bool("storage-watch", false, "Reload tasks when the snapshot changes in storage")
	notificationTTL = flag.Duration("notification-ttl", 0, "How long a notification stays visible (default: 3s)")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg := loadConfig()

	// Fill in build version from ldflags if available
	if buildVersion != "" {
		cfg.Server.Version = buildVersion
	}

	// Show version and exit if requested
	if *showVersion {
		log.Printf("%s version %s", cfg.Server.Name, cfg.Server.Version)
		os.Exit(0)
	}

	// Create a context that will be cancelled on interrupt signal
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the application
	app, err := createApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Start the application
	if err := app.Start(ctx); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	// Wait for termination signal
	waitForSignal(cancel, app)
}

// loadConfig loads configuration from environment and command line flags
func loadConfig() *config.Config {
	// Start with defaults
	cfg := config.DefaultConfig()

	// A .env file in the work dir fills in unset environment variables
	if err := config.LoadDotEnv(filepath.Join(resolveWorkDir(), ".env")); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Override with environment variables
	config.FromEnv(cfg)

	// Override with command-line flags
	applyCommandLineFlagsToConfig(cfg)

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	return cfg
}

// resolveWorkDir returns the -work-dir flag or ~/.mcp-tasklist, creating it
func resolveWorkDir() string {
	wd := *workDir
	if wd == "" {
		home := os.Getenv("HOME")
		if home == "" {
			// Fallback to current directory if HOME is unset
			home, _ = os.Getwd()
		}
		wd = filepath.Join(home, ".mcp-tasklist")
	}
	_ = os.MkdirAll(wd, 0o755)
	return wd
}

// flagPassed reports whether the named flag was set on the command line
func flagPassed(name string) bool {
	passed := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			passed = true
		}
	})
	return passed
}

// applyCommandLineFlagsToConfig applies command line flags to the configuration
func applyCommandLineFlagsToConfig(cfg *config.Config) {
	wd := resolveWorkDir()

	if *address != "" {
		cfg.Server.Address = *address
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *transport != "" {
		cfg.Server.TransportMode = *transport
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	// Logs go to the work dir unless MCP_TASKLIST_LOGGING_FILE chose a file;
	// stdout belongs to the stdio transport.
	if cfg.Logging.FilePath == "" {
		cfg.Logging.FilePath = filepath.Join(wd, "mcp-tasklist.log")
	}
	if *storageBackend != "" {
		cfg.Storage.Backend = *storageBackend
	}
	if *storageKey != "" {
		cfg.Storage.Key = *storageKey
	}
	if *storageDSN != "" {
		cfg.Storage.DSN = *storageDSN
	}
	// Always place the json snapshot in work-dir
	cfg.Storage.Dir = wd
	if flagPassed("storage-watch") {
		cfg.Storage.Watch = *storageWatch
	}
	if *notificationTTL > 0 {
		cfg.Notifications.TTL = *notificationTTL
	}
}

// setupLogger creates the application logger and installs it as the default
func setupLogger(cfg *config.Config) (*logging.Logger, error) {
	level := logging.ParseLevel(cfg.Logging.Level)
	if cfg.Logging.FilePath == "" {
		logger := logging.New(logging.Options{Level: level, Output: os.Stderr})
		logging.SetDefaultLogger(logger)
		return logger, nil
	}

	logger, err := logging.FileLogger(cfg.Logging.FilePath, level)
	if err != nil {
		return nil, fmt.Errorf("failed to create file logger: %w", err)
	}
	logging.SetDefaultLogger(logger)
	return logger, nil
}

// Application represents the running application
type Application struct {
	manager tasks.Manager
	server  *server.MCPServer
	logger  *logging.Logger
}

// createApp creates a new application instance
func createApp(ctx context.Context, cfg *config.Config) (*Application, error) {
	logger, err := setupLogger(cfg)
	if err != nil {
		return nil, err
	}

	// Initialize storage backend
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	logger.Infof("Using %s storage with key %q", cfg.Storage.Backend, cfg.Storage.Key)

	queue := notify.NewQueue(cfg.Notifications.TTL)
	manager := tasks.NewStore(store, queue,
		tasks.WithWatch(cfg.Storage.Watch),
		tasks.WithLogger(logger),
	)
	if err := manager.Initialize(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	mcpServer, err := server.NewMCPServer(cfg, manager)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	app := &Application{
		manager: manager,
		server:  mcpServer,
		logger:  logger,
	}

	return app, nil
}

// Start starts the application
func (a *Application) Start(ctx context.Context) error {
	// Start notification expiry and the storage watch
	a.manager.Start(ctx)
	a.logger.Infof("Task store started")

	// Start the MCP server
	if err := a.server.Start(ctx); err != nil {
		return err
	}
	a.logger.Infof("MCP server started")

	return nil
}

// Stop stops the application
func (a *Application) Stop() error {
	if err := a.manager.Stop(); err != nil {
		a.logger.Errorf("Error stopping task store: %v", err)
	}
	a.logger.Infof("Task store stopped")

	// Stop the server
	if err := a.server.Stop(); err != nil {
		a.logger.Errorf("Error stopping MCP server: %v", err)
		return err
	}
	a.logger.Infof("MCP server stopped")

	return nil
}

// waitForSignal waits for termination signals and performs cleanup
func waitForSignal(cancel context.CancelFunc, app *Application) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	<-signalCh
	app.logger.Infof("Received termination signal, shutting down...")

	// Cancel the context to initiate shutdown
	cancel()

	// Stop the application with a timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	shutdownDone := make(chan struct{})
	go func() {
		if err := app.Stop(); err != nil {
			app.logger.Errorf("Error during shutdown: %v", err)
		}
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		app.logger.Infof("Graceful shutdown completed")
	case <-shutdownCtx.Done():
		app.logger.Warnf("Shutdown timed out")
	}
}
