package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the Aerial HK controller.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Vehicle      VehicleConfig      `yaml:"vehicle"`
	Calibration  CalibrationConfig  `yaml:"calibration"`
	Hardware     HardwareConfig     `yaml:"hardware"`
	Audio        AudioConfig        `yaml:"audio"`
	Input        InputConfig        `yaml:"input"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
	Choreography ChoreographyConfig `yaml:"choreography"`
	Database     DatabaseConfig     `yaml:"database"`
	MQTT         MQTTConfig         `yaml:"mqtt"`
	API          APIConfig          `yaml:"api"`
	WebSocket    WebSocketConfig    `yaml:"websocket"`
	InfluxDB     InfluxDBConfig     `yaml:"influxdb"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// VehicleConfig identifies this vehicle in telemetry and logs.
type VehicleConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// CalibrationConfig holds the mechanical ranges of every axis, in degrees.
// These vary per build, so none of them are compiled in.
type CalibrationConfig struct {
	Thrust ThrustCalibration `yaml:"thrust"`
	Tilt   AxisCalibration   `yaml:"tilt"`
	Turn   AxisCalibration   `yaml:"turn"`
}

// AxisCalibration is the safe range and neutral position of one axis.
type AxisCalibration struct {
	Center int `yaml:"center"`
	Min    int `yaml:"min"`
	Max    int `yaml:"max"`
	// Speed is the servo slew rate in degrees per second (0 = unlimited).
	Speed int `yaml:"speed"`
}

// ThrustCalibration extends AxisCalibration with the thrust intent offsets.
type ThrustCalibration struct {
	AxisCalibration `yaml:",inline"`
	// Offset is added to or subtracted from Center for directional thrust.
	Offset int `yaml:"offset"`
	// FullOffset is added to Center when the tilt axis reaches its maximum.
	FullOffset int `yaml:"full_offset"`
}

// HardwareConfig contains the servo/light controller settings.
type HardwareConfig struct {
	// Simulate logs actuator and light writes instead of opening the controller.
	Simulate bool          `yaml:"simulate"`
	Maestro  MaestroConfig `yaml:"maestro"`
}

// MaestroConfig contains Pololu Maestro serial controller settings.
type MaestroConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
	// Device is the Pololu protocol device number. Zero selects the compact protocol.
	Device  int                           `yaml:"device"`
	Servos  map[string]ServoChannelConfig `yaml:"servos"`
	Lights  map[string]LightChannelConfig `yaml:"lights"`
	Timeout int                           `yaml:"timeout_ms"`
}

// ServoChannelConfig maps one axis onto a Maestro channel.
type ServoChannelConfig struct {
	Channel int `yaml:"channel"`
	// MinPulse and MaxPulse are the pulse widths in microseconds for 0 and 180 degrees.
	MinPulse int  `yaml:"min_pulse"`
	MaxPulse int  `yaml:"max_pulse"`
	Reverse  bool `yaml:"reverse"`
	// Acceleration is the raw Maestro acceleration limit (0 = unlimited).
	Acceleration int `yaml:"acceleration"`
}

// LightChannelConfig maps one light channel onto a Maestro output.
type LightChannelConfig struct {
	Channel int `yaml:"channel"`
	// OffTarget and OnTarget are Maestro targets in quarter-microseconds.
	OffTarget int `yaml:"off_target"`
	OnTarget  int `yaml:"on_target"`
}

// AudioConfig contains the serial audio player settings.
type AudioConfig struct {
	Enabled       bool         `yaml:"enabled"`
	Port          string       `yaml:"port"`
	Baud          int          `yaml:"baud"`
	AckTimeout    int          `yaml:"ack_timeout_ms"`
	DefaultVolume int          `yaml:"default_volume"`
	Tracks        TracksConfig `yaml:"tracks"`
}

// TracksConfig names the files on the audio player's storage.
type TracksConfig struct {
	Takeoff string `yaml:"takeoff"`
	FlyMore string `yaml:"fly_more"`
	Landing string `yaml:"landing"`
	Scene01 string `yaml:"scene_01"`
	Stop    string `yaml:"stop"`
}

// InputConfig contains operator input settings.
type InputConfig struct {
	Keyboard KeyboardConfig `yaml:"keyboard"`
	IR       IRConfig       `yaml:"ir"`
	// QueueSize bounds raw codes waiting for the control loop.
	QueueSize int `yaml:"queue_size"`
}

// KeyboardConfig contains raw keystroke input settings.
type KeyboardConfig struct {
	Enabled bool   `yaml:"enabled"`
	Device  string `yaml:"device"`
}

// IRConfig contains the infra-red receiver bridge settings.
type IRConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    string `yaml:"port"`
	Baud    int    `yaml:"baud"`
}

// SchedulerConfig contains control loop and timer table settings.
type SchedulerConfig struct {
	// TickInterval is the control loop period in milliseconds.
	TickInterval int `yaml:"tick_interval_ms"`
	// Capacity is the number of concurrent timer slots.
	Capacity int `yaml:"capacity"`
	// StepInterval is how often the step cursor walks oversized timelines, in milliseconds.
	StepInterval int `yaml:"step_interval_ms"`
}

// ChoreographyConfig points at optional operator-authored timelines.
type ChoreographyConfig struct {
	File string `yaml:"file"`
}

// DatabaseConfig contains SQLite journal database settings.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains diagnostics HTTP server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains WebSocket event stream settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// TelemetryConfig contains the observation queue settings.
type TelemetryConfig struct {
	QueueSize int `yaml:"queue_size"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: AERIALHK_SECTION_KEY
// For example: AERIALHK_AUDIO_PORT, AERIALHK_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration. It is what Load starts from
// and is valid on its own, with every external link in simulated mode.
func Default() *Config {
	return defaultConfig()
}

// defaultConfig returns a Config with the calibration of the reference build.
func defaultConfig() *Config {
	return &Config{
		Vehicle: VehicleConfig{
			ID:   "hk-001",
			Name: "Aerial HK",
		},
		Calibration: CalibrationConfig{
			Thrust: ThrustCalibration{
				AxisCalibration: AxisCalibration{Center: 110, Min: 40, Max: 170, Speed: 125},
				Offset:          25,
				FullOffset:      50,
			},
			Tilt: AxisCalibration{Center: 120, Min: 80, Max: 180, Speed: 50},
			Turn: AxisCalibration{Center: 85, Min: 35, Max: 135, Speed: 25},
		},
		Hardware: HardwareConfig{
			Simulate: true,
			Maestro: MaestroConfig{
				Port:    "/dev/ttyACM0",
				Baud:    9600,
				Timeout: 500,
				Servos: map[string]ServoChannelConfig{
					"thrust_left":  {Channel: 0, MinPulse: 500, MaxPulse: 2500},
					"thrust_right": {Channel: 1, MinPulse: 500, MaxPulse: 2500, Reverse: true},
					"tilt":         {Channel: 2, MinPulse: 500, MaxPulse: 2500},
					"turn":         {Channel: 3, MinPulse: 500, MaxPulse: 2500},
				},
				Lights: map[string]LightChannelConfig{
					"tail":       {Channel: 4, OffTarget: 0, OnTarget: 8000},
					"landing":    {Channel: 5, OffTarget: 0, OnTarget: 8000},
					"search":     {Channel: 6, OffTarget: 0, OnTarget: 8000},
					"blue_front": {Channel: 7, OffTarget: 0, OnTarget: 8000},
					"red_back":   {Channel: 8, OffTarget: 0, OnTarget: 8000},
					"weapon":     {Channel: 9, OffTarget: 0, OnTarget: 8000},
				},
			},
		},
		Audio: AudioConfig{
			Port:          "/dev/ttyUSB0",
			Baud:          115200,
			AckTimeout:    1000,
			DefaultVolume: 15,
			Tracks: TracksConfig{
				Takeoff: "/fly.mp3",
				FlyMore: "/flymore.mp3",
				Landing: "/land.mp3",
				Scene01: "/scene01.mp3",
				Stop:    "/stop.mp3",
			},
		},
		Input: InputConfig{
			Keyboard: KeyboardConfig{
				Enabled: true,
				Device:  "/dev/tty",
			},
			IR: IRConfig{
				Port: "/dev/ttyUSB1",
				Baud: 9600,
			},
			QueueSize: 32,
		},
		Scheduler: SchedulerConfig{
			TickInterval: 5,
			Capacity:     16,
			StepInterval: 10,
		},
		Database: DatabaseConfig{
			Path:        "./data/aerialhk.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "aerialhk",
			},
			QoS: 0,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8090,
			Timeouts: APITimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/api/v1/ws",
			MaxMessageSize: 4096,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			URL:           "http://localhost:8086",
			Org:           "aerialhk",
			Bucket:        "aerialhk",
			BatchSize:     100,
			FlushInterval: 5,
		},
		Telemetry: TelemetryConfig{
			QueueSize: 256,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: AERIALHK_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Hardware
	if v := os.Getenv("AERIALHK_HARDWARE_SIMULATE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Hardware.Simulate = b
		}
	}
	if v := os.Getenv("AERIALHK_MAESTRO_PORT"); v != "" {
		cfg.Hardware.Maestro.Port = v
	}

	// Audio
	if v := os.Getenv("AERIALHK_AUDIO_PORT"); v != "" {
		cfg.Audio.Port = v
	}

	// Input
	if v := os.Getenv("AERIALHK_IR_PORT"); v != "" {
		cfg.Input.IR.Port = v
	}

	// Choreography
	if v := os.Getenv("AERIALHK_CHOREOGRAPHY_FILE"); v != "" {
		cfg.Choreography.File = v
	}

	// Database
	if v := os.Getenv("AERIALHK_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("AERIALHK_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("AERIALHK_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("AERIALHK_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("AERIALHK_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("AERIALHK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Vehicle.ID == "" {
		errs = append(errs, "vehicle.id is required")
	}

	errs = append(errs, c.Calibration.Thrust.AxisCalibration.check("calibration.thrust")...)
	errs = append(errs, c.Calibration.Tilt.check("calibration.tilt")...)
	errs = append(errs, c.Calibration.Turn.check("calibration.turn")...)
	if c.Calibration.Thrust.Offset < 0 || c.Calibration.Thrust.FullOffset < 0 {
		errs = append(errs, "calibration.thrust offsets must not be negative")
	}

	if !c.Hardware.Simulate && c.Hardware.Maestro.Port == "" {
		errs = append(errs, "hardware.maestro.port is required unless hardware.simulate is set")
	}
	if c.Hardware.Maestro.Device < 0 || c.Hardware.Maestro.Device > 127 {
		errs = append(errs, "hardware.maestro.device must be between 0 and 127")
	}

	if c.Audio.Enabled && c.Audio.Port == "" {
		errs = append(errs, "audio.port is required when audio is enabled")
	}
	if c.Audio.AckTimeout <= 0 {
		errs = append(errs, "audio.ack_timeout_ms must be positive")
	}
	if c.Audio.DefaultVolume < 0 || c.Audio.DefaultVolume > 30 {
		errs = append(errs, "audio.default_volume must be between 0 and 30")
	}

	if c.Input.IR.Enabled && c.Input.IR.Port == "" {
		errs = append(errs, "input.ir.port is required when IR input is enabled")
	}
	if c.Input.QueueSize < 1 {
		errs = append(errs, "input.queue_size must be at least 1")
	}

	if c.Scheduler.TickInterval < 1 {
		errs = append(errs, "scheduler.tick_interval_ms must be at least 1")
	}
	if c.Scheduler.Capacity < 2 {
		errs = append(errs, "scheduler.capacity must be at least 2")
	}
	if c.Scheduler.StepInterval < 1 {
		errs = append(errs, "scheduler.step_interval_ms must be at least 1")
	}

	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when the journal is enabled")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.Telemetry.QueueSize < 1 {
		errs = append(errs, "telemetry.queue_size must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func (a AxisCalibration) check(name string) []string {
	var errs []string
	if a.Min > a.Max {
		errs = append(errs, name+".min must not exceed max")
	}
	if a.Center < a.Min || a.Center > a.Max {
		errs = append(errs, name+".center must lie within min..max")
	}
	if a.Min < 0 || a.Max > 180 {
		errs = append(errs, name+" range must lie within 0..180 degrees")
	}
	return errs
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetTickInterval returns the control loop period.
func (c *Config) GetTickInterval() time.Duration {
	return time.Duration(c.Scheduler.TickInterval) * time.Millisecond
}

// GetStepInterval returns the step cursor period.
func (c *Config) GetStepInterval() time.Duration {
	return time.Duration(c.Scheduler.StepInterval) * time.Millisecond
}

// GetAckTimeout returns how long the audio player is given to acknowledge a command.
func (c *Config) GetAckTimeout() time.Duration {
	return time.Duration(c.Audio.AckTimeout) * time.Millisecond
}
