// SPDX-License-Identifier: AGPL-3.0-only
package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jolks/mcp-tasklist/internal/config"
	"github.com/jolks/mcp-tasklist/internal/model"
)

// resetFlags points every flag variable at its zero value for the duration of a test
func resetFlags(t *testing.T) {
	t.Helper()
	saved := []interface{}{*workDir, *address, *port, *transport, *logLevel,
		*storageBackend, *storageKey, *storageDSN, *storageWatch, *notificationTTL}
	t.Cleanup(func() {
		*workDir = saved[0].(string)
		*address = saved[1].(string)
		*port = saved[2].(int)
		*transport = saved[3].(string)
		*logLevel = saved[4].(string)
		*storageBackend = saved[5].(string)
		*storageKey = saved[6].(string)
		*storageDSN = saved[7].(string)
		*storageWatch = saved[8].(bool)
		*notificationTTL = saved[9].(time.Duration)
	})
	*workDir, *address, *transport, *logLevel = "", "", "", ""
	*storageBackend, *storageKey, *storageDSN = "", "", ""
	*port = 0
	*storageWatch = false
	*notificationTTL = 0
}

// TestApplyCommandLineFlagsToConfig tests the application of command line flags to the configuration
func TestApplyCommandLineFlagsToConfig(t *testing.T) {
	resetFlags(t)
	cfg := config.DefaultConfig()

	// Simulate setting command line flags
	tmp := t.TempDir()
	*workDir = tmp
	*address = "192.168.1.1"
	*port = 9090
	*transport = "sse"
	*logLevel = "debug"
	*storageBackend = "memory"
	*storageKey = "my-tasks"
	*notificationTTL = 5 * time.Second

	applyCommandLineFlagsToConfig(cfg)

	if cfg.Server.Address != "192.168.1.1" {
		t.Errorf("expected address 192.168.1.1, got %s", cfg.Server.Address)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.TransportMode != "sse" {
		t.Errorf("expected transport mode sse, got %s", cfg.Server.TransportMode)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	expectedLog := filepath.Join(tmp, "mcp-tasklist.log")
	if cfg.Logging.FilePath != expectedLog {
		t.Errorf("expected log file %s, got %s", expectedLog, cfg.Logging.FilePath)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("expected storage backend memory, got %s", cfg.Storage.Backend)
	}
	if cfg.Storage.Key != "my-tasks" {
		t.Errorf("expected storage key my-tasks, got %s", cfg.Storage.Key)
	}
	if cfg.Storage.Dir != tmp {
		t.Errorf("expected storage dir %s, got %s", tmp, cfg.Storage.Dir)
	}
	if cfg.Notifications.TTL != 5*time.Second {
		t.Errorf("expected notification ttl 5s, got %s", cfg.Notifications.TTL)
	}
	// storage-watch was not passed on the command line
	if cfg.Storage.Watch {
		t.Errorf("expected storage watch to keep its default")
	}
}

// TestLoadConfig tests the loading of configuration from defaults, environment, and flags
func TestLoadConfig(t *testing.T) {
	resetFlags(t)

	// Set environment variables
	t.Setenv("MCP_TASKLIST_SERVER_ADDRESS", "10.0.0.1")
	t.Setenv("MCP_TASKLIST_SERVER_PORT", "8888")
	t.Setenv("MCP_TASKLIST_LOGGING_LEVEL", "warn")
	t.Setenv("MCP_TASKLIST_STORAGE_KEY", "env-key")
	t.Setenv("MCP_TASKLIST_STORAGE_WATCH", "true")

	// Flags override env vars
	tmp := t.TempDir()
	*workDir = tmp
	*address = "192.168.1.1"
	*logLevel = "debug"

	cfg := loadConfig()

	if cfg.Server.Address != "192.168.1.1" {
		t.Errorf("expected address 192.168.1.1, got %s", cfg.Server.Address)
	}
	if cfg.Server.Port != 8888 {
		t.Errorf("expected port 8888 from env, got %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	if cfg.Storage.Key != "env-key" {
		t.Errorf("expected storage key env-key, got %s", cfg.Storage.Key)
	}
	if !cfg.Storage.Watch {
		t.Errorf("expected storage watch from env")
	}
	if cfg.Server.TransportMode != "stdio" {
		t.Errorf("expected default transport stdio, got %s", cfg.Server.TransportMode)
	}
}

// TestLoadConfigKeepsLogFileFromEnv ensures an explicit log file is not replaced by the work dir
func TestLoadConfigKeepsLogFileFromEnv(t *testing.T) {
	resetFlags(t)
	tmp := t.TempDir()
	logFile := filepath.Join(tmp, "custom.log")
	t.Setenv("MCP_TASKLIST_LOGGING_FILE", logFile)
	*workDir = tmp

	cfg := loadConfig()
	if cfg.Logging.FilePath != logFile {
		t.Errorf("expected log file %s, got %s", logFile, cfg.Logging.FilePath)
	}
}

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	tmp := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Storage.Backend = backend
	cfg.Storage.Dir = tmp
	cfg.Logging.FilePath = filepath.Join(tmp, "mcp-tasklist.log")
	// stdio avoids binding a port; the server is never started here
	cfg.Server.TransportMode = "stdio"
	return cfg
}

// TestCreateAppSeedsDefaults tests that a fresh store starts with the sample tasks
func TestCreateAppSeedsDefaults(t *testing.T) {
	app, err := createApp(context.Background(), testConfig(t, "memory"))
	if err != nil {
		t.Fatalf("Failed to create application: %v", err)
	}
	defer app.manager.Stop()

	if app.server == nil {
		t.Fatal("createApp returned nil server")
	}
	got := app.manager.List(model.FilterAll)
	if len(got) != 3 {
		t.Fatalf("expected 3 default tasks, got %d", len(got))
	}
	if got[0].Title != "Learn React" {
		t.Errorf("expected first task Learn React, got %s", got[0].Title)
	}
}

// TestCreateAppRestoresSnapshot tests that a json snapshot survives a restart
func TestCreateAppRestoresSnapshot(t *testing.T) {
	cfg := testConfig(t, "json")
	ctx := context.Background()

	app, err := createApp(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create application: %v", err)
	}
	if _, err := app.manager.Add(ctx, "Persist me", "", model.PriorityLow); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := app.manager.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	restarted, err := createApp(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to recreate application: %v", err)
	}
	defer restarted.manager.Stop()

	got := restarted.manager.List(model.FilterAll)
	if len(got) != 4 {
		t.Fatalf("expected 4 tasks after restart, got %d", len(got))
	}
	if got[3].Title != "Persist me" || got[3].Priority != model.PriorityLow {
		t.Errorf("unexpected restored task %+v", got[3])
	}
}

// TestCreateAppRejectsUnknownBackend tests that storage selection errors surface
func TestCreateAppRejectsUnknownBackend(t *testing.T) {
	if _, err := createApp(context.Background(), testConfig(t, "floppy")); err == nil {
		t.Fatal("expected error for unknown storage backend")
	}
}
