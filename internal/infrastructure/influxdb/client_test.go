package influxdb_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/nerrad567/aerial-hk/internal/infrastructure/config"
	"github.com/nerrad567/aerial-hk/internal/infrastructure/influxdb"
)

// testConfig returns a configuration for a local dev InfluxDB.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "aerialhk-dev-token",
		Org:           "aerialhk",
		Bucket:        "aerialhk",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

// skipIfNoInfluxDB skips the test if InfluxDB is not running.
func skipIfNoInfluxDB(t *testing.T) {
	t.Helper()
	if os.Getenv("RUN_INTEGRATION") == "" {
		client, err := influxdb.Connect(testConfig(), "hk-test")
		if err != nil {
			t.Skip("InfluxDB not available, skipping integration test")
		}
		client.Close()
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	_, err := influxdb.Connect(cfg, "hk-test")
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_InvalidURL(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:59999"

	_, err := influxdb.Connect(cfg, "hk-test")
	if !errors.Is(err, influxdb.ErrUnreachable) {
		t.Errorf("Connect() error = %v, want ErrUnreachable", err)
	}
}

func TestClose_Nil(t *testing.T) {
	var client *influxdb.Client
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client = %v", err)
	}
}

func TestWriteTimingMetrics(t *testing.T) {
	skipIfNoInfluxDB(t)

	client, err := influxdb.Connect(testConfig(), "hk-test")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	var writeErr error
	client.SetOnError(func(err error) { writeErr = err })

	now := time.Now()
	client.WriteFiring("power-on", "tail-lights-on", 2*time.Millisecond, now)
	client.WriteAxisPosition("tilt", 120, now)
	client.WriteAudioCommand("PLAYFILE", true, 40*time.Millisecond, now)
	client.Flush()

	if writeErr != nil {
		t.Errorf("async write error: %v", writeErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() = %v", err)
	}

	client.Close()
	if err := client.HealthCheck(ctx); !errors.Is(err, influxdb.ErrClosed) {
		t.Errorf("HealthCheck() after Close = %v, want ErrClosed", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}
