package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/aerial-hk/internal/api"
	"github.com/nerrad567/aerial-hk/internal/infrastructure/config"
	"github.com/nerrad567/aerial-hk/internal/infrastructure/logging"
	"github.com/nerrad567/aerial-hk/internal/maestro"
)

// simulatedConfig is a config that needs no hardware, broker or terminal.
const simulatedConfig = `
vehicle:
  id: test-hk

hardware:
  simulate: true

audio:
  enabled: false

input:
  keyboard:
    enabled: false
  ir:
    enabled: false

database:
  enabled: true
  path: "%s"

mqtt:
  enabled: false

influxdb:
  enabled: false

api:
  enabled: false

logging:
  level: error
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("AERIALHK_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_SimulatedStartStop runs the whole stack on the simulator until
// the context ends.
func TestRun_SimulatedStartStop(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	t.Setenv("AERIALHK_CONFIG", writeConfig(t, fmt.Sprintf(simulatedConfig, dbPath)))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("journal database not created: %v", err)
	}
}

// TestRun_MissingChoreography verifies a configured but absent timeline
// file stops startup.
func TestRun_MissingChoreography(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	content := fmt.Sprintf(simulatedConfig, dbPath) + `
choreography:
  file: /nonexistent/timelines.yaml
`
	t.Setenv("AERIALHK_CONFIG", writeConfig(t, content))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail when the choreography file is missing")
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("AERIALHK_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("AERIALHK_CONFIG", "/etc/aerialhk.yaml")
	if got := getConfigPath(); got != "/etc/aerialhk.yaml" {
		t.Errorf("getConfigPath() = %q, want /etc/aerialhk.yaml", got)
	}
}

type fakeCheck struct{ err error }

func (f fakeCheck) HealthCheck(context.Context) error { return f.err }

func TestStartupHealthCheck(t *testing.T) {
	down := errors.New("unreachable")
	tests := []struct {
		name     string
		checks   map[string]api.HealthChecker
		wantErr  bool
		wantWarn bool
	}{
		{name: "all healthy", checks: map[string]api.HealthChecker{"database": fakeCheck{}, "mqtt": fakeCheck{}}},
		{name: "mqtt down", checks: map[string]api.HealthChecker{"database": fakeCheck{}, "mqtt": fakeCheck{down}}, wantWarn: true},
		{name: "influxdb down", checks: map[string]api.HealthChecker{"influxdb": fakeCheck{down}}, wantWarn: true},
		{name: "database down", checks: map[string]api.HealthChecker{"database": fakeCheck{down}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := logging.NewWithWriter(config.LoggingConfig{Level: "warn", Format: "text"}, "test", &buf)

			err := startupHealthCheck(context.Background(), tt.checks, log)
			if (err != nil) != tt.wantErr {
				t.Fatalf("startupHealthCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := bytes.Contains(buf.Bytes(), []byte("optional component unhealthy")); got != tt.wantWarn {
				t.Errorf("warning logged = %v, want %v", got, tt.wantWarn)
			}
		})
	}
}

type recordingPort struct {
	bytes.Buffer
	closed bool
}

func (p *recordingPort) Close() error {
	p.closed = true
	return nil
}

func TestCloseActuators_ParksServosBeforeClosing(t *testing.T) {
	port := &recordingPort{}
	drv, err := maestro.New(port, config.Default().Hardware.Maestro)
	if err != nil {
		t.Fatalf("maestro.New() error = %v", err)
	}
	log := logging.NewWithWriter(config.LoggingConfig{Level: "error", Format: "text"}, "test", &bytes.Buffer{})

	closeActuators(drv, log)

	// Compact protocol go-home command.
	if got := port.Bytes(); !bytes.Equal(got, []byte{0xa2}) {
		t.Errorf("written = % x, want a2", got)
	}
	if !port.closed {
		t.Error("port not closed")
	}
}
