// Aerial HK - animatronic vehicle controller
//
// This is the main entry point for the vehicle controller. It loads the
// configuration, opens the servo/light controller, the sound module and the
// operator inputs, and runs the control loop until interrupted. Telemetry
// (MQTT, InfluxDB, the SQLite journal and the diagnostics API) is optional
// and never blocks the loop.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	_ "github.com/nerrad567/aerial-hk/migrations"

	"github.com/nerrad567/aerial-hk/internal/api"
	"github.com/nerrad567/aerial-hk/internal/audio"
	"github.com/nerrad567/aerial-hk/internal/choreography"
	"github.com/nerrad567/aerial-hk/internal/controller"
	"github.com/nerrad567/aerial-hk/internal/infrastructure/config"
	"github.com/nerrad567/aerial-hk/internal/infrastructure/database"
	"github.com/nerrad567/aerial-hk/internal/infrastructure/influxdb"
	"github.com/nerrad567/aerial-hk/internal/infrastructure/logging"
	"github.com/nerrad567/aerial-hk/internal/infrastructure/mqtt"
	"github.com/nerrad567/aerial-hk/internal/input"
	"github.com/nerrad567/aerial-hk/internal/journal"
	"github.com/nerrad567/aerial-hk/internal/lighting"
	"github.com/nerrad567/aerial-hk/internal/maestro"
	"github.com/nerrad567/aerial-hk/internal/telemetry"
	"github.com/nerrad567/aerial-hk/internal/timeline"
	"github.com/nerrad567/aerial-hk/internal/vehicle"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// startupCheckTimeout bounds the initial health checks.
const startupCheckTimeout = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// actuators is what the vehicle drives: real hardware or the simulator.
type actuators interface {
	vehicle.Driver
	lighting.Output
}

// soundModule is the audio player as main sees it.
type soundModule interface {
	controller.Audio
	Close() error
}

// run is the application logic, separated from main for testability.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // startup wiring: one branch per optional component
	log := logging.Default()
	log.Info("starting Aerial HK",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version).With("vehicle", cfg.Vehicle.ID)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Timeline catalogue
	catalog := choreography.NewCatalog()
	catalog.SetLogger(log)
	if cfg.Choreography.File != "" {
		if loadErr := catalog.LoadFile(cfg.Choreography.File); loadErr != nil {
			return fmt.Errorf("loading choreography: %w", loadErr)
		}
	}
	log.Info("timeline catalogue ready", "timelines", catalog.Count())

	// Actuators
	hw, err := openActuators(cfg, log)
	if err != nil {
		return err
	}
	defer closeActuators(hw, log)

	// Audio
	sound, player, err := openAudio(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := sound.Close(); closeErr != nil {
			log.Error("error closing audio", "error", closeErr)
		}
	}()

	// Journal (optional)
	var (
		db   *database.DB
		repo *journal.SQLiteRepository
	)
	if cfg.Database.Enabled {
		db, repo, err = openJournal(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
	} else {
		log.Info("journal disabled")
	}

	// MQTT (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient = connectMQTT(cfg, log)
		if mqttClient != nil {
			defer func() {
				log.Info("disconnecting from MQTT")
				if closeErr := mqttClient.Close(); closeErr != nil {
					log.Error("error closing MQTT", "error", closeErr)
				}
			}()
		}
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient = connectInflux(cfg, log)
		if influxClient != nil {
			defer func() {
				log.Info("closing InfluxDB connection")
				if closeErr := influxClient.Close(); closeErr != nil {
					log.Error("error closing InfluxDB", "error", closeErr)
				}
			}()
		}
	} else {
		log.Info("InfluxDB disabled")
	}

	// The WebSocket hub exists before the API server so telemetry can feed it.
	checks := healthChecks(db, mqttClient, influxClient)
	var hub *api.Hub
	if cfg.API.Enabled {
		hub = api.NewHub(cfg.WebSocket, log)
	}

	// Telemetry
	sinks := telemetry.Sinks{}
	if mqttClient != nil {
		sinks.MQTT = mqttClient
		sinks.StateTopic = mqtt.Topics{}.VehicleState()
	}
	if influxClient != nil {
		sinks.Metrics = influxClient
	}
	if repo != nil {
		sinks.Journal = repo
	}
	if hub != nil {
		sinks.Hub = hub
	}
	pub := telemetry.NewPublisher(cfg.Telemetry.QueueSize, sinks)
	pub.SetLogger(log)
	if player != nil {
		player.SetObserver(pub)
	}

	// Vehicle
	model := vehicle.New(vehicle.CalibrationFromConfig(cfg.Calibration), hw)
	model.SetLogger(log)
	model.SetObserver(pub)

	lights := lighting.New(hw)
	lights.SetLogger(log)

	codes := make(chan input.RawCode, cfg.Input.QueueSize)
	producers, err := openInputs(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		for _, p := range producers {
			if closeErr := p.Close(); closeErr != nil {
				log.Error("error closing input", "error", closeErr)
			}
		}
	}()

	ctrl := controller.New(controller.Options{
		TickInterval: cfg.GetTickInterval(),
		Scheduler: timeline.Options{
			Capacity:     cfg.Scheduler.Capacity,
			StepInterval: cfg.GetStepInterval(),
		},
	}, controller.Deps{
		Model:   model,
		Lights:  lights,
		Audio:   sound,
		Catalog: catalog,
		Clock:   timeline.NewSystemClock(),
		Input:   codes,
	})
	ctrl.SetLogger(log)
	ctrl.SetObserver(pub)
	ctrl.SetTimelineObserver(pub)

	if err := startupHealthCheck(ctx, checks, log); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	ctrl.Start()

	if cfg.API.Enabled {
		deps := api.Deps{
			Config:    cfg.API,
			WS:        cfg.WebSocket,
			Logger:    log,
			Status:    ctrl,
			Timelines: catalog,
			Telemetry: pub,
			Checks:    checks,
			Hub:       hub,
			Version:   version,
		}
		if repo != nil {
			deps.Journal = repo
		}
		if db != nil {
			deps.Schema = db
		}
		server, err := api.New(deps)
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return pub.Run(gctx) })
	g.Go(func() error { return ctrl.Run(gctx) })
	if hub != nil {
		g.Go(func() error {
			hub.Run(gctx)
			return nil
		})
	}
	for _, p := range producers {
		g.Go(func() error {
			// A failed input is logged; the other input keeps the vehicle usable.
			if err := p.Run(gctx, codes); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("input stopped", "error", err)
			}
			return nil
		})
	}

	log.Info("initialisation complete, press * or the remote's power key to fly")

	if err := g.Wait(); err != nil {
		return fmt.Errorf("control loop: %w", err)
	}

	log.Info("Aerial HK stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses AERIALHK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("AERIALHK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// openActuators returns the simulator or an initialised Maestro driver.
func openActuators(cfg *config.Config, log *logging.Logger) (actuators, error) {
	if cfg.Hardware.Simulate {
		sim := maestro.NewSimulator()
		sim.SetLogger(log)
		log.Info("servo controller simulated")
		return sim, nil
	}

	drv, err := maestro.Open(cfg.Hardware.Maestro)
	if err != nil {
		return nil, fmt.Errorf("opening servo controller: %w", err)
	}
	drv.SetLogger(log)
	if err := drv.Init(maestro.SpeedsFromConfig(cfg.Calibration)); err != nil {
		_ = drv.Close()
		return nil, fmt.Errorf("initialising servo controller: %w", err)
	}
	if err := drv.Errors(); err != nil {
		log.Warn("servo controller reported errors", "error", err)
	}
	log.Info("servo controller ready", "port", cfg.Hardware.Maestro.Port, "device", cfg.Hardware.Maestro.Device)
	return drv, nil
}

// closeActuators parks a real servo controller at its home positions
// before closing the port.
func closeActuators(hw actuators, log *logging.Logger) {
	if homer, ok := hw.(interface{ GoHome() error }); ok {
		if err := homer.GoHome(); err != nil {
			log.Warn("servo controller did not go home", "error", err)
		}
	}
	if closer, ok := hw.(interface{ Close() error }); ok {
		log.Info("closing servo controller")
		if err := closer.Close(); err != nil {
			log.Error("error closing servo controller", "error", err)
		}
	}
}

// openAudio returns the serial player, or a silent stand-in when audio is
// disabled. player is nil in the silent case.
func openAudio(cfg *config.Config, log *logging.Logger) (soundModule, *audio.Player, error) {
	if !cfg.Audio.Enabled {
		silent := audio.NewSilent(audio.TracksFromConfig(cfg.Audio.Tracks))
		silent.SetLogger(log)
		return silent, nil, nil
	}

	player, err := audio.Open(cfg.Audio)
	if err != nil {
		return nil, nil, fmt.Errorf("opening audio: %w", err)
	}
	player.SetLogger(log)
	log.Info("audio player ready", "port", cfg.Audio.Port)
	return player, player, nil
}

// openJournal opens the database, applies migrations and closes runs a
// previous process left open.
func openJournal(ctx context.Context, cfg *config.Config, log *logging.Logger) (*database.DB, *journal.SQLiteRepository, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	repo := journal.NewSQLiteRepository(db.DB)
	n, err := repo.AbandonRunning(ctx, time.Now())
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("closing stale runs: %w", err)
	}
	log.Info("journal ready", "path", cfg.Database.Path, "abandoned_runs", n)
	return db, repo, nil
}

// connectMQTT connects to the broker. Telemetry is optional, so a failure
// is logged and the vehicle runs without it.
func connectMQTT(cfg *config.Config, log *logging.Logger) *mqtt.Client {
	client, err := mqtt.Connect(cfg.MQTT, cfg.Vehicle.ID, log)
	if err != nil {
		log.Warn("MQTT unavailable, continuing without it", "error", err)
		return nil
	}
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)
	return client
}

// connectInflux connects to InfluxDB, logging and carrying on without it on
// failure.
func connectInflux(cfg *config.Config, log *logging.Logger) *influxdb.Client {
	client, err := influxdb.Connect(cfg.InfluxDB, cfg.Vehicle.ID)
	if err != nil {
		log.Warn("InfluxDB unavailable, continuing without it", "error", err)
		return nil
	}
	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	return client
}

// openInputs opens every enabled operator input.
func openInputs(cfg *config.Config, log *logging.Logger) ([]input.Producer, error) {
	var producers []input.Producer

	if cfg.Input.Keyboard.Enabled {
		kb, err := input.OpenKeyboard(cfg.Input.Keyboard.Device)
		if err != nil {
			return nil, fmt.Errorf("opening keyboard: %w", err)
		}
		kb.SetLogger(log)
		producers = append(producers, kb)
	}

	if cfg.Input.IR.Enabled {
		ir, err := input.OpenIR(cfg.Input.IR)
		if err != nil {
			for _, p := range producers {
				_ = p.Close()
			}
			return nil, fmt.Errorf("opening IR receiver: %w", err)
		}
		ir.SetLogger(log)
		producers = append(producers, ir)
	}

	if len(producers) == 0 {
		log.Warn("no operator input enabled")
	}
	return producers, nil
}

// healthChecks collects the checkers of the connected infrastructure.
func healthChecks(db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) map[string]api.HealthChecker {
	checks := make(map[string]api.HealthChecker)
	if db != nil {
		checks["database"] = db
	}
	if mqttClient != nil {
		checks["mqtt"] = mqttClient
	}
	if influxClient != nil {
		checks["influxdb"] = influxClient
	}
	return checks
}

// requiredChecks are the components whose failure stops startup. The
// telemetry sinks are optional and only warn.
var requiredChecks = map[string]bool{"database": true}

// startupHealthCheck verifies every connection before the vehicle moves.
func startupHealthCheck(ctx context.Context, checks map[string]api.HealthChecker, log *logging.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, startupCheckTimeout)
	defer cancel()
	for name, c := range checks {
		err := c.HealthCheck(ctx)
		switch {
		case err == nil:
		case requiredChecks[name]:
			return fmt.Errorf("%s: %w", name, err)
		default:
			log.Warn("optional component unhealthy at startup", "component", name, "error", err)
		}
	}
	return nil
}
